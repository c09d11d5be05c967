// =============================================================================
// Fuel Invoice Extractor - Transaction Matcher
// =============================================================================
//
// This module classifies reconstructed invoice lines. A line is one of:
//   - a transaction line   : a fuel purchase printed by the IP fuel card
//   - a plate marker line  : "TARGA <plate>", closing the preceding purchases
//   - anything else        : headers, totals, page footers (ignored)
//
// TRANSACTION GRAMMAR (anchored at the start of the line):
//
//   01/02/23 08:15 12345678 10001 ROMA NORD, 120.000 0000 GASOLIO SELF 40,00 ... 70,50
//   |        |     |        |     |          |       |    |            |          |
//   date     time  receipt  POS   locality   km      code fuel         liters     amount
//
// The amount is not part of the grammar: it is the last decimal-comma number
// anywhere on the line, because per-liter price and discount columns sit
// between the liters and the charged total.
//
// =============================================================================

package matcher

import (
	"regexp"
	"strings"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

var (
	transactionPattern = regexp.MustCompile(
		`^(\d{2}/\d{2}/\d{2})\s+` + // date
			`(\d{2}:\d{2})\s+` + // time
			`(\d{8})\s+` + // receipt number
			`(\d{5})\s+` + // point-of-sale code
			`(.+?)\s+` + // locality
			`(\d{1,3}(?:\.\d{3})*|1)\s+` + // odometer
			`0000\s+` + // fixed code
			`GASOLIO(?:\s+SELF)?\s+` + // fuel product
			`([\d,]+)`, // liters
	)

	platePattern  = regexp.MustCompile(`TARGA\s+([A-Z]{2}[0-9]{3}[A-Z]{2})`)
	amountPattern = regexp.MustCompile(`\d+,\d+`)
)

// =============================================================================
// MATCH RESULT
// =============================================================================

// Kind is the classification of a line.
type Kind int

const (
	NoMatch Kind = iota
	Transaction
	PlateMarker
)

func (k Kind) String() string {
	switch k {
	case Transaction:
		return "transaction"
	case PlateMarker:
		return "plate"
	default:
		return "none"
	}
}

// Fields holds the raw text captured from a transaction line.
// Numeric fields are left unnormalized.
type Fields struct {
	Date          string
	Time          string
	ReceiptNumber string
	POSCode       string
	Locality      string
	OdometerRaw   string

	// LitersRaw may hold no digit at all (","); normalization keeps such
	// text as is.
	LitersRaw string

	// AmountRaw is the last decimal-comma number on the line, or "" when the
	// line has none.
	AmountRaw string

	FuelSupplyType string
}

// Result is the outcome of matching one line.
//
//   - Transaction : Fields is set
//   - PlateMarker : Plate is set
//   - NoMatch     : nothing is set
type Result struct {
	Kind   Kind
	Fields *Fields
	Plate  string
}

// =============================================================================
// MATCHING
// =============================================================================

// Match classifies a line. Plate markers take precedence: a line carrying a
// plate marker is never treated as a transaction.
func Match(line string) Result {
	if plate, ok := Plate(line); ok {
		return Result{Kind: PlateMarker, Plate: plate}
	}

	m := transactionPattern.FindStringSubmatch(line)
	if m == nil {
		return Result{Kind: NoMatch}
	}

	fields := &Fields{
		Date:           m[1],
		Time:           m[2],
		ReceiptNumber:  m[3],
		POSCode:        m[4],
		Locality:       cleanLocality(m[5]),
		OdometerRaw:    m[6],
		LitersRaw:      m[7],
		AmountRaw:      LastAmount(line),
		FuelSupplyType: ClassifyFuel(line),
	}

	return Result{Kind: Transaction, Fields: fields}
}

// Plate returns the plate carried by a plate marker line.
func Plate(line string) (string, bool) {
	m := platePattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// LastAmount returns the last "digits,digits" substring of the line.
func LastAmount(line string) string {
	amounts := amountPattern.FindAllString(line, -1)
	if len(amounts) == 0 {
		return ""
	}
	return amounts[len(amounts)-1]
}

// ClassifyFuel returns the supply type of a transaction line.
//
// Self-service and attended refuelling are kept as separate branches even
// though both currently map to the same supply type.
func ClassifyFuel(line string) string {
	switch {
	case strings.Contains(line, "GASOLIO SELF"):
		return types.FuelSupplyExternal
	case strings.Contains(line, "GASOLIO"):
		return types.FuelSupplyExternal
	default:
		return types.FuelSupplyExternal
	}
}

// cleanLocality trims whitespace and a single trailing comma.
func cleanLocality(raw string) string {
	return strings.TrimSuffix(strings.TrimSpace(raw), ",")
}
