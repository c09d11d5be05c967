// =============================================================================
// Fuel Invoice Extractor - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - lines, association, aggregate (the extraction core)
//   - extractor, pdfwords (document orchestration)
//   - export, validation, server (consumers of extracted records)
//
// =============================================================================

package types

import (
	"time"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/normalize"
)

// =============================================================================
// INPUT TYPES
// =============================================================================

// PositionedWord is a single word token produced by the word extractor.
type PositionedWord struct {
	// Text is the word as printed.
	Text string

	// Top is the vertical position of the word, measured from the top of
	// the page. Words sharing a rounded Top belong to the same line.
	Top float64

	// X is the horizontal position. It is informational only: token order
	// within a line is the order in which the extractor produced the words.
	X float64
}

// Page holds the words of one document page, in extractor order.
type Page struct {
	// Number is the 1-indexed page number.
	Number int

	// Words are the positioned words on the page.
	Words []PositionedWord
}

// =============================================================================
// RECORD TYPES
// =============================================================================

// Fixed record values.
const (
	// SupplierIP is the only fuel card supplier handled by the grammar.
	SupplierIP = "IP"

	// FuelSupplyExternal is the supply type of every matched transaction.
	FuelSupplyExternal = "external"
)

// Record is one fuel purchase. While it waits in the association buffer its
// Plate is empty; once a plate (or the unknown-vehicle marker) is assigned
// it becomes a final record and is never modified again.
//
// The field order is the column order used by every exporter.
type Record struct {
	Plate           string          `json:"Plate"`
	FulfillmentDate string          `json:"FulfillmentDate"`
	FulfillmentTime string          `json:"FulfillmentTime"`
	Odometer        int             `json:"Odometer"`
	Liters          normalize.Value `json:"Liters"`
	TotalAmount     normalize.Value `json:"TotalAmount"`
	Supplier        string          `json:"Supplier"`
	FuelSupplyType  string          `json:"FuelSupplyType"`
	ReceiptNumber   string          `json:"ReceiptNumber"`
	Locality        string          `json:"Locality"`
}

// DedupKey identifies a unique fuel transaction within a document.
type DedupKey struct {
	Date          string
	Time          string
	ReceiptNumber string
}

// Key returns the deduplication key of the record.
func (r Record) Key() DedupKey {
	return DedupKey{
		Date:          r.FulfillmentDate,
		Time:          r.FulfillmentTime,
		ReceiptNumber: r.ReceiptNumber,
	}
}

// Columns returns the export column names in record field order.
func Columns() []string {
	return []string{
		"Plate",
		"FulfillmentDate",
		"FulfillmentTime",
		"Odometer",
		"Liters",
		"TotalAmount",
		"Supplier",
		"FuelSupplyType",
		"ReceiptNumber",
		"Locality",
	}
}

// =============================================================================
// RESULT TYPES
// =============================================================================

// DocumentResult holds the records extracted from one document.
type DocumentResult struct {
	Filename    string    `json:"filename"`
	Timestamp   time.Time `json:"timestamp"`
	Records     []Record  `json:"data"`
	RecordCount int       `json:"records_count"`
	TotalAmount float64   `json:"total_amount"`
}

// DocumentFailure names a document that could not be processed.
type DocumentFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// BatchResult aggregates the results of a batch of documents.
type BatchResult struct {
	// Results holds one entry per successfully processed document, in the
	// order the documents were submitted.
	Results []DocumentResult `json:"results"`

	// Failures holds documents that could not be processed.
	Failures []DocumentFailure `json:"failures"`

	// Skipped lists documents ignored because they are not PDFs.
	Skipped []string `json:"skipped"`

	ProcessedFiles int     `json:"processed_files"`
	RecordCount    int     `json:"total_records"`
	TotalAmount    float64 `json:"total_amount"`
}

// Records returns the records of every document in the batch, in order.
func (b *BatchResult) Records() []Record {
	var all []Record
	for _, r := range b.Results {
		all = append(all, r.Records...)
	}
	return all
}
