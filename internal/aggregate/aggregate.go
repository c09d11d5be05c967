// Package aggregate computes record totals for documents and batches.
package aggregate

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

// Total sums the numeric amounts of the records. Absent and unparsed amounts
// contribute nothing. The sum is computed in decimal so that adding many
// two-digit amounts does not accumulate binary rounding error.
func Total(records []types.Record) float64 {
	sum := decimal.Zero
	for _, r := range records {
		if f, ok := r.TotalAmount.Float(); ok {
			sum = sum.Add(decimal.NewFromFloat(f))
		}
	}
	return sum.InexactFloat64()
}

// Document builds the result of one document.
func Document(filename string, ts time.Time, records []types.Record) types.DocumentResult {
	if records == nil {
		records = []types.Record{}
	}
	return types.DocumentResult{
		Filename:    filename,
		Timestamp:   ts,
		Records:     records,
		RecordCount: len(records),
		TotalAmount: Total(records),
	}
}

// =============================================================================
// BATCH COLLECTOR
// =============================================================================

// Collector gathers per-document outcomes from concurrent workers.
// All methods are safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	results  map[int]types.DocumentResult
	failures map[int]types.DocumentFailure
	skipped  map[int]string
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		results:  make(map[int]types.DocumentResult),
		failures: make(map[int]types.DocumentFailure),
		skipped:  make(map[int]string),
	}
}

// Add records the result of the document submitted at position idx.
func (c *Collector) Add(idx int, res types.DocumentResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[idx] = res
}

// Fail records a document that could not be processed.
func (c *Collector) Fail(idx int, filename string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[idx] = types.DocumentFailure{Filename: filename, Error: err.Error()}
}

// Skip records a document that was ignored.
func (c *Collector) Skip(idx int, filename string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipped[idx] = filename
}

// Result returns the batch result with entries in submission order.
// Batch totals are the sums of the per-document totals.
func (c *Collector) Result() *types.BatchResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	batch := &types.BatchResult{
		Results:  []types.DocumentResult{},
		Failures: []types.DocumentFailure{},
		Skipped:  []string{},
	}

	total := decimal.Zero
	for _, idx := range sortedKeys(c.results) {
		res := c.results[idx]
		batch.Results = append(batch.Results, res)
		batch.RecordCount += res.RecordCount
		total = total.Add(decimal.NewFromFloat(res.TotalAmount))
	}
	for _, idx := range sortedKeys(c.failures) {
		batch.Failures = append(batch.Failures, c.failures[idx])
	}
	for _, idx := range sortedKeys(c.skipped) {
		batch.Skipped = append(batch.Skipped, c.skipped[idx])
	}

	batch.ProcessedFiles = len(batch.Results)
	batch.TotalAmount = total.InexactFloat64()
	return batch
}

func sortedKeys[V any](m map[int]V) []int {
	return slices.Sorted(maps.Keys(m))
}
