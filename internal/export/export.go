// =============================================================================
// Fuel Invoice Extractor - Export Module
// =============================================================================
//
// This module writes extracted fuel records in the supported output formats:
//
//   csv   delimiter-separated rows, one per record, with a header row
//   xlsx  Excel workbook with a "records" and a "summary" sheet
//   json  the full batch result
//   xml   <fuelRecords> document with one <record> element per record
//
// Every tabular format uses the column order of types.Columns().
//
// =============================================================================

package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

// Format is an output format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	JSON Format = "json"
	XML  Format = "xml"
)

// ErrUnknownFormat is returned for format names that are not supported.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat parses a format name. Names are case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, XLSX, JSON, XML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ParseFormats parses a list of format names, dropping duplicates.
// Entries may themselves be comma separated ("csv,xlsx").
func ParseFormats(names []string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			f, err := ParseFormat(part)
			if err != nil {
				return nil, err
			}
			if !seen[f] {
				seen[f] = true
				formats = append(formats, f)
			}
		}
	}
	return formats, nil
}

// Extension returns the file extension of the format, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Options controls exporter output.
type Options struct {
	// CSVDelimiter separates CSV fields. Default: ';'
	CSVDelimiter rune
}

// DefaultOptions returns the default export options.
func DefaultOptions() Options {
	return Options{CSVDelimiter: ';'}
}

// Write writes the batch in the given format.
func Write(format Format, w io.Writer, batch *types.BatchResult, opts Options) error {
	switch format {
	case CSV:
		return WriteCSV(w, batch.Records(), opts.CSVDelimiter)
	case XLSX:
		return WriteXLSX(w, batch)
	case JSON:
		return WriteJSON(w, batch)
	case XML:
		return WriteXML(w, batch.Records())
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

// row renders a record as strings in column order.
func row(r types.Record) []string {
	return []string{
		r.Plate,
		r.FulfillmentDate,
		r.FulfillmentTime,
		fmt.Sprintf("%d", r.Odometer),
		r.Liters.String(),
		r.TotalAmount.String(),
		r.Supplier,
		r.FuelSupplyType,
		r.ReceiptNumber,
		r.Locality,
	}
}
