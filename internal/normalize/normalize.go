// =============================================================================
// Fuel Invoice Extractor - Field Normalizer
// =============================================================================
//
// Invoice figures are printed with Italian number formatting: "." separates
// thousands and "," separates decimals ("1.234,56"). This package converts
// that text into numeric values.
//
// A normalized figure can be in one of four states:
//   - Absent  : the source text was empty
//   - Integer : the text had no decimal separator
//   - Decimal : the text had a decimal separator
//   - Raw     : the text could not be parsed; the original text is kept
//
// Absent is deliberately distinct from zero, and Raw values are retained
// rather than dropped, so downstream consumers see exactly what was printed.
//
// =============================================================================

package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
)

// MaxOdometer is the largest odometer reading accepted as genuine.
// Anything above it is treated as a scanning artifact.
const MaxOdometer = 10_000_000

// =============================================================================
// VALUE
// =============================================================================

// Kind identifies which state a Value is in.
type Kind int

const (
	Absent Kind = iota
	Integer
	Decimal
	Raw
)

// String returns the kind name, used in logs and quality reports.
func (k Kind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Integer:
		return "integer"
	case Decimal:
		return "decimal"
	case Raw:
		return "raw"
	default:
		return "unknown"
	}
}

// Value is the result of normalizing a locale-formatted figure.
type Value struct {
	Kind Kind
	Int  int64
	Dec  float64
	Text string
}

// IntValue returns an Integer value.
func IntValue(n int64) Value { return Value{Kind: Integer, Int: n} }

// DecimalValue returns a Decimal value.
func DecimalValue(f float64) Value { return Value{Kind: Decimal, Dec: f} }

// RawValue returns a Raw value holding unparsed text.
func RawValue(s string) Value { return Value{Kind: Raw, Text: s} }

// IsAbsent reports whether the source text was empty.
func (v Value) IsAbsent() bool { return v.Kind == Absent }

// Float returns the numeric value and true for Integer and Decimal values.
// Absent and Raw values return false.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case Integer:
		return float64(v.Int), true
	case Decimal:
		return v.Dec, true
	default:
		return 0, false
	}
}

// String renders the value the way it is written into text exports.
// Absent renders as the empty string.
func (v Value) String() string {
	switch v.Kind {
	case Integer:
		return strconv.FormatInt(v.Int, 10)
	case Decimal:
		return formatDecimal(v.Dec)
	case Raw:
		return v.Text
	default:
		return ""
	}
}

// MarshalJSON writes numbers as JSON numbers, raw text as a JSON string and
// absent values as "".
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case Integer, Decimal:
		return []byte(v.String()), nil
	case Raw:
		return json.Marshal(v.Text)
	default:
		return []byte(`""`), nil
	}
}

// formatDecimal keeps at least one fractional digit so 70.0 does not read
// as an integer.
func formatDecimal(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// =============================================================================
// NORMALIZATION FUNCTIONS
// =============================================================================

// Number converts locale-formatted numeric text into a Value.
//
// CONVERSION:
//   - ""          -> Absent
//   - "120"       -> Integer 120
//   - "1.234"     -> Integer 1234   ("." is a thousands separator)
//   - "45,32"     -> Decimal 45.32  ("," is the decimal separator)
//   - "1.234,56"  -> Decimal 1234.56
//   - "1,2,3"     -> Raw "1,2,3"    (unparseable text is kept as-is)
//
// Values outside the int64 or float64 range are treated like unparseable
// text and kept as Raw.
func Number(text string) Value {
	if text == "" {
		return Value{}
	}

	s := strings.ReplaceAll(text, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		// ErrRange included: an overflowing value keeps its text.
		if err != nil {
			return RawValue(text)
		}
		return DecimalValue(f)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	// ErrRange included: an overflowing value keeps its text.
	if err != nil {
		return RawValue(text)
	}
	return IntValue(n)
}

// Odometer parses an odometer reading printed with "." thousands separators.
// Unparseable readings and readings above MaxOdometer yield 0 so the record
// is still emitted.
func Odometer(raw string) int {
	km, err := strconv.Atoi(strings.ReplaceAll(raw, ".", ""))
	if err != nil {
		return 0
	}
	if km > MaxOdometer {
		return 0
	}
	return km
}
