package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/normalize"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

const (
	RecordsSheet = "records"
	SummarySheet = "summary"
)

// WriteXLSX writes a workbook with two sheets:
//
//	records  one row per record, header in row 1
//	summary  one row per document plus a totals row
//
// Numeric fields are stored as numbers. Unparsed values are stored as text
// and absent values leave the cell empty.
func WriteXLSX(w io.Writer, batch *types.BatchResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	if err := writeRecordsSheet(f, batch.Records()); err != nil {
		return err
	}
	if err := writeSummarySheet(f, batch); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRecordsSheet(f *excelize.File, records []types.Record) error {
	header := make([]any, 0, len(types.Columns()))
	for _, c := range types.Columns() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(RecordsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write records header: %w", err)
	}

	for i, r := range records {
		cells := []any{
			r.Plate,
			r.FulfillmentDate,
			r.FulfillmentTime,
			r.Odometer,
			cellValue(r.Liters),
			cellValue(r.TotalAmount),
			r.Supplier,
			r.FuelSupplyType,
			r.ReceiptNumber,
			r.Locality,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(RecordsSheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write record row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, batch *types.BatchResult) error {
	header := []any{"Filename", "Timestamp", "Records", "TotalAmount"}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}

	rowNum := 2
	for _, res := range batch.Results {
		cells := []any{res.Filename, res.Timestamp.Format("2006-01-02 15:04:05"), res.RecordCount, res.TotalAmount}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write summary row for %s: %w", res.Filename, err)
		}
		rowNum++
	}

	totals := []any{"TOTAL", "", batch.RecordCount, batch.TotalAmount}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SummarySheet, cell, &totals); err != nil {
		return fmt.Errorf("failed to write summary totals: %w", err)
	}
	return nil
}

func cellValue(v normalize.Value) any {
	switch v.Kind {
	case normalize.Integer:
		return v.Int
	case normalize.Decimal:
		return v.Dec
	case normalize.Raw:
		return v.Text
	default:
		return nil
	}
}
