package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

// WriteJSON writes the batch result as indented JSON.
func WriteJSON(w io.Writer, batch *types.BatchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(batch); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
