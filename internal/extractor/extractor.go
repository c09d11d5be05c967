// =============================================================================
// Fuel Invoice Extractor - Extractor Module
// =============================================================================
//
// This module contains the document-level extraction logic. It runs the whole
// pipeline for one invoice document, and runs batches of documents
// concurrently.
//
// EXTRACTION PIPELINE (one document):
//   1. Obtain positioned words per page from the WordSource
//   2. Rebuild text lines per page (top to bottom)
//   3. Match each line against the transaction and plate grammars
//   4. Fold the matches through the plate association state
//   5. Flush unassigned purchases and total the records
//
// Steps 2-5 are strictly sequential: the plate printed after a group of
// purchases applies to them, so lines must be visited in document order.
//
// CONCURRENCY:
//   Documents are independent. ExtractBatch processes them on a bounded
//   worker pool; each document gets its own association state, and results
//   are gathered through a mutex-protected collector.
//
// =============================================================================

package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/aggregate"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/association"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/lines"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/normalize"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/observability/metrics"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// WordSource extracts positioned words from the raw bytes of a document.
// Implementations must return pages in document order.
type WordSource interface {
	Pages(ctx context.Context, content []byte) ([]types.Page, error)
}

// Logger is an interface for logging. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Document is an invoice submitted for extraction.
type Document struct {
	// Filename is the name the document was submitted under.
	Filename string

	// Content is the raw document bytes.
	Content []byte
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrUnsupportedType is returned for documents that are not PDFs.
var ErrUnsupportedType = errors.New("document is not a PDF")

// DocumentError reports a document that could not be processed.
type DocumentError struct {
	Filename string
	Err      error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("processing %s: %v", e.Filename, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// =============================================================================
// EXTRACTOR
// =============================================================================

// Extractor runs the extraction pipeline.
type Extractor struct {
	source      WordSource
	logger      Logger
	now         func() time.Time
	concurrency int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithClock sets the clock used to timestamp results.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithConcurrency bounds the number of documents processed at once by
// ExtractBatch. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(e *Extractor) {
		if n < 1 {
			n = 1
		}
		e.concurrency = n
	}
}

// New creates an Extractor reading words from source.
func New(source WordSource, opts ...Option) *Extractor {
	e := &Extractor{
		source:      source,
		logger:      nopLogger{},
		now:         time.Now,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsPDF reports whether a file name has the PDF extension.
func IsPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// Extract processes one document.
//
// RETURNS:
//   - The document result, or
//   - a *DocumentError naming the document when it is not a PDF, cannot be
//     decoded, or ctx is cancelled. No partial result is returned.
func (e *Extractor) Extract(ctx context.Context, doc Document) (*types.DocumentResult, error) {
	start := time.Now()

	if !IsPDF(doc.Filename) {
		return nil, &DocumentError{Filename: doc.Filename, Err: ErrUnsupportedType}
	}

	e.logger.Debug("extracting document", "file", doc.Filename, "bytes", len(doc.Content))

	pages, err := e.source.Pages(ctx, doc.Content)
	if err != nil {
		metrics.ObserveFailure(time.Since(start))
		return nil, &DocumentError{Filename: doc.Filename, Err: fmt.Errorf("failed to read words: %w", err)}
	}

	return e.extractPages(ctx, doc.Filename, pages, start)
}

// ExtractPages runs the pipeline on words that were already extracted.
func (e *Extractor) ExtractPages(ctx context.Context, filename string, pages []types.Page) (*types.DocumentResult, error) {
	return e.extractPages(ctx, filename, pages, time.Now())
}

func (e *Extractor) extractPages(ctx context.Context, filename string, pages []types.Page, start time.Time) (*types.DocumentResult, error) {
	state := association.New()

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			metrics.ObserveFailure(time.Since(start))
			return nil, &DocumentError{Filename: filename, Err: err}
		}
		for line := range lines.Lines(page.Words) {
			kind := state.Line(line)
			e.logger.Debug("line", "file", filename, "page", page.Number, "kind", kind.String(), "text", line)
		}
	}

	records := state.Finish()
	res := aggregate.Document(filename, e.now(), records)

	stats := state.Stats()
	elapsed := time.Since(start)
	metrics.ObserveDocument(metrics.DocumentCounts{
		Records:    res.RecordCount,
		Duplicates: stats.Duplicates,
		Unassigned: stats.UnknownVehicle,
		Unparsed:   unparsedValues(records),
	}, elapsed)

	e.logger.Info("extracted document",
		"file", filename,
		"pages", len(pages),
		"records", res.RecordCount,
		"total_amount", res.TotalAmount,
		"duplicates", stats.Duplicates,
		"unassigned", stats.UnknownVehicle,
		"elapsed", elapsed,
	)

	return &res, nil
}

// unparsedValues counts numeric fields kept as raw text.
func unparsedValues(records []types.Record) int {
	n := 0
	for _, r := range records {
		if r.Liters.Kind == normalize.Raw {
			n++
		}
		if r.TotalAmount.Kind == normalize.Raw {
			n++
		}
	}
	return n
}

// ExtractBatch processes documents concurrently.
//
// Documents that are not PDFs are skipped without error. A document that
// fails is listed in Failures and does not affect the others. Results keep
// the submission order.
func (e *Extractor) ExtractBatch(ctx context.Context, docs []Document) *types.BatchResult {
	collector := aggregate.NewCollector()

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i, doc := range docs {
		if !IsPDF(doc.Filename) {
			e.logger.Info("skipping non-PDF document", "file", doc.Filename)
			metrics.ObserveSkipped()
			collector.Skip(i, doc.Filename)
			continue
		}

		g.Go(func() error {
			res, err := e.Extract(ctx, doc)
			if err != nil {
				e.logger.Error("document failed", "file", doc.Filename, "error", err)
				collector.Fail(i, doc.Filename, err)
				return nil
			}
			collector.Add(i, *res)
			return nil
		})
	}

	_ = g.Wait()

	batch := collector.Result()
	e.logger.Info("batch complete",
		"documents", len(docs),
		"processed", batch.ProcessedFiles,
		"failed", len(batch.Failures),
		"skipped", len(batch.Skipped),
		"records", batch.RecordCount,
		"total_amount", batch.TotalAmount,
	)
	return batch
}

// =============================================================================
// DEFAULT LOGGER
// =============================================================================

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
