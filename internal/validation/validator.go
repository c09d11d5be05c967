// =============================================================================
// Fuel Invoice Extractor - Record Quality Check
// =============================================================================
//
// This module inspects extracted fuel records and reports data quality
// issues. Extraction never rejects a matched transaction, so records with
// missing or unparsed values reach the output; the quality check makes them
// visible to whoever reconciles the invoice.
//
// CHECKS (per record):
//   - plate          : record was not associated with a vehicle
//   - odometer       : odometer reading missing, unparsable or out of range
//   - liters/amount  : value absent or kept as unparsed text
//   - date/time      : fulfillment date or time is not a calendar value
//
// SEVERITY:
//   Every built-in check reports a warning. Custom rules may report errors.
//   A result is valid when it has no errors (or no issues at all when
//   warnings are treated as errors).
//
// =============================================================================

package validation

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/association"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/normalize"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Date and time layouts printed on the invoices.
const (
	DateLayout = "02/01/06"
	TimeLayout = "15:04"
)

// =============================================================================
// ISSUE TYPES
// =============================================================================

// Issue is a single quality problem found on a record.
type Issue struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Filename is the document the record was extracted from.
	Filename string

	// Record is the 1-based position of the record within its document.
	Record int

	// ReceiptNumber identifies the purchase on the invoice.
	ReceiptNumber string

	// Field is the record field the issue is about.
	Field string

	// Value is the offending value as it is exported.
	Value string

	// Rule names the check that reported the issue.
	Rule string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (i *Issue) Error() string {
	return fmt.Sprintf("[%s] %s record %d (receipt %s), field '%s': %s (value: '%s')",
		strings.ToUpper(i.Severity),
		i.Filename,
		i.Record,
		i.ReceiptNumber,
		i.Field,
		i.Message,
		i.Value,
	)
}

// Result contains the outcome of a quality check.
type Result struct {
	// IsValid is false when there are errors, or any issue at all when
	// warnings are treated as errors.
	IsValid bool

	// Issues contains every issue found, in document and record order.
	Issues []*Issue

	ErrorCount       int
	WarningCount     int
	RecordsChecked   int
	DocumentsChecked int
}

// =============================================================================
// CHECKER
// =============================================================================

// RuleFunc is a custom check. It returns nil when the record passes.
type RuleFunc func(record types.Record) *Issue

// Options contains options for the quality check.
type Options struct {
	// TreatWarningsAsErrors makes any issue invalidate the result.
	// Default: false
	TreatWarningsAsErrors bool

	// CustomRules run after the built-in checks, in order.
	CustomRules []RuleFunc
}

// DefaultOptions returns the default quality check options.
func DefaultOptions() Options {
	return Options{}
}

// Checker runs the quality check.
type Checker struct {
	options Options
}

// NewChecker creates a Checker.
func NewChecker(options Options) *Checker {
	return &Checker{options: options}
}

// Check runs the default quality check over a batch.
func Check(batch *types.BatchResult) *Result {
	return NewChecker(DefaultOptions()).CheckBatch(batch)
}

// CheckBatch checks every document of the batch.
func (c *Checker) CheckBatch(batch *types.BatchResult) *Result {
	result := &Result{
		IsValid: true,
		Issues:  make([]*Issue, 0),
	}

	for _, doc := range batch.Results {
		result.DocumentsChecked++
		for i, record := range doc.Records {
			result.RecordsChecked++
			for _, issue := range c.CheckRecord(record) {
				issue.Filename = doc.Filename
				issue.Record = i + 1
				issue.ReceiptNumber = record.ReceiptNumber
				result.add(issue, c.options.TreatWarningsAsErrors)
			}
		}
	}

	return result
}

func (r *Result) add(issue *Issue, strict bool) {
	r.Issues = append(r.Issues, issue)
	if issue.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
		return
	}
	r.WarningCount++
	if strict {
		r.IsValid = false
	}
}

// CheckRecord returns the issues of a single record. Location fields of the
// returned issues are left empty.
func (c *Checker) CheckRecord(record types.Record) []*Issue {
	var issues []*Issue

	// =========================================================================
	// VEHICLE
	// =========================================================================

	if record.Plate == association.UnknownVehicle {
		issues = append(issues, warning("Plate", record.Plate, "unassigned",
			"Purchase was not followed by a vehicle plate"))
	}

	// =========================================================================
	// ODOMETER
	// =========================================================================
	// Missing, unparsable and out-of-range readings are all stored as 0.

	if record.Odometer == 0 {
		issues = append(issues, warning("Odometer", "0", "odometer",
			"Odometer reading is missing or out of range"))
	}

	// =========================================================================
	// QUANTITIES
	// =========================================================================

	issues = append(issues, checkValue("Liters", record.Liters)...)
	issues = append(issues, checkValue("TotalAmount", record.TotalAmount)...)

	// =========================================================================
	// DATE AND TIME
	// =========================================================================

	if msg := validateLayout(record.FulfillmentDate, DateLayout, "date"); msg != "" {
		issues = append(issues, warning("FulfillmentDate", record.FulfillmentDate, "date", msg))
	}
	if msg := validateLayout(record.FulfillmentTime, TimeLayout, "time"); msg != "" {
		issues = append(issues, warning("FulfillmentTime", record.FulfillmentTime, "time", msg))
	}

	for _, rule := range c.options.CustomRules {
		if issue := rule(record); issue != nil {
			if issue.Rule == "" {
				issue.Rule = "custom"
			}
			issues = append(issues, issue)
		}
	}

	return issues
}

func checkValue(field string, v normalize.Value) []*Issue {
	switch v.Kind {
	case normalize.Absent:
		return []*Issue{warning(field, "", "absent", "Value is missing")}
	case normalize.Raw:
		return []*Issue{warning(field, v.Text, "unparsed", "Value could not be read as a number")}
	default:
		return nil
	}
}

// validateLayout returns an error message when value is not a valid
// calendar value in the given layout.
func validateLayout(value, layout, what string) string {
	if _, err := time.Parse(layout, value); err != nil {
		return fmt.Sprintf("Value is not a valid %s (%s)", what, layout)
	}
	return ""
}

func warning(field, value, rule, message string) *Issue {
	return &Issue{
		Severity: SeverityWarning,
		Field:    field,
		Value:    value,
		Rule:     rule,
		Message:  message,
	}
}

// =============================================================================
// ISSUE FORMATTING
// =============================================================================

// FormatIssues formats issues for display or logging.
func FormatIssues(issues []*Issue) string {
	if len(issues) == 0 {
		return "No quality issues."
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Quality check completed with %d issue(s):\n\n", len(issues))
	for i, issue := range issues {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, issue.Error())
	}
	return builder.String()
}

// WriteIssueLog writes issues to a log file with a timestamped header.
func WriteIssueLog(issues []*Issue, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create issue log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Quality Check Log\n")
	fmt.Fprintf(writer, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(writer, "%s\n\n", strings.Repeat("=", 60))
	writer.WriteString(FormatIssues(issues))

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write issue log: %w", err)
	}
	return file.Close()
}
