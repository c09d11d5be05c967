// Package sample renders synthetic fuel card invoices as PDF. The output
// follows the layout of the IP fuel card invoice: purchase lines grouped by
// vehicle, each group closed by a "TARGA" line naming the plate.
package sample

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	fontSize     = 8.0
	lineHeightMM = 5.0
	topMM        = 20.0
	leftMM       = 10.0
	rowsPerPage  = 45
)

// Purchase is one purchase line of an invoice.
type Purchase struct {
	Date      string
	Time      string
	Receipt   string
	POS       string
	Locality  string
	Odometer  string
	Product   string
	Liters    string
	UnitPrice string
	Amount    string
}

// Line renders the purchase the way the invoice prints it.
func (p Purchase) Line() string {
	return strings.Join([]string{
		p.Date, p.Time, p.Receipt, p.POS, p.Locality, p.Odometer,
		"0000", p.Product, p.Liters, p.UnitPrice, p.Amount,
	}, " ")
}

// Group is a run of purchases charged to one vehicle.
type Group struct {
	Plate     string
	Purchases []Purchase
}

// Invoice is a synthetic invoice.
type Invoice struct {
	Number string
	Groups []Group

	// Trailing purchases follow the last plate line and belong to no
	// vehicle.
	Trailing []Purchase
}

// Default returns a two-vehicle invoice with one trailing purchase and one
// purchase printed twice.
func Default() Invoice {
	repeated := Purchase{"03/02/23", "17:05", "22334455", "20007", "MILANO", "54.210", "GASOLIO", "30,00", "1,8000", "54,00"}
	return Invoice{
		Number: "2023/000123",
		Groups: []Group{
			{
				Plate: "AB123CD",
				Purchases: []Purchase{
					{"01/02/23", "08:15", "12345678", "10001", "ROMA NORD,", "120.000", "GASOLIO SELF", "40,00", "1,7630", "70,50"},
					{"02/02/23", "09:40", "12345679", "10001", "ROMA NORD,", "120.450", "GASOLIO", "35,00", "1,8600", "65,10"},
				},
			},
			{
				Plate:     "EF456GH",
				Purchases: []Purchase{repeated, repeated},
			},
		},
		Trailing: []Purchase{
			{"04/02/23", "12:00", "99887766", "30003", "TORINO", "1", "GASOLIO", "20,00", "1,8100", "36,20"},
		},
	}
}

// Lines returns the text lines of the invoice in print order.
func (inv Invoice) Lines() []string {
	lines := []string{
		"FATTURA CARTA CARBURANTE IP N. " + inv.Number,
		"DATA ORA SCONTRINO PV LOCALITA KM CODICE PRODOTTO LITRI PREZZO IMPORTO",
	}
	for _, g := range inv.Groups {
		for _, p := range g.Purchases {
			lines = append(lines, p.Line())
		}
		lines = append(lines, "TOTALE TARGA "+g.Plate)
	}
	for _, p := range inv.Trailing {
		lines = append(lines, p.Line())
	}
	return lines
}

// Render writes the invoice as a PDF document, one text line per row,
// starting a new page every rowsPerPage rows.
func Render(w io.Writer, inv Invoice) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Courier", "", fontSize)
	pdf.SetAutoPageBreak(false, 0)

	for i, line := range inv.Lines() {
		row := i % rowsPerPage
		if row == 0 {
			pdf.AddPage()
			pdf.SetFont("Courier", "", fontSize)
		}
		pdf.Text(leftMM, topMM+float64(row)*lineHeightMM, line)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render invoice: %w", err)
	}
	return nil
}
