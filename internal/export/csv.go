package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

// WriteCSV writes a header row and one row per record.
// A zero delimiter means ';'.
func WriteCSV(w io.Writer, records []types.Record, delimiter rune) error {
	if delimiter == 0 {
		delimiter = ';'
	}

	cw := csv.NewWriter(w)
	cw.Comma = delimiter

	if err := cw.Write(types.Columns()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
