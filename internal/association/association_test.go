package association

import (
	"reflect"
	"testing"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/matcher"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/normalize"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

const (
	txnA = "01/02/23 08:15 12345678 10001 ROMA 120.000 0000 GASOLIO SELF 40,00 ... 70,50"
	txnB = "01/02/23 08:20 12345679 10001 ROMA 120.010 0000 GASOLIO 35,00 ... 65,10"
	txnC = "02/02/23 11:40 12345680 10002 TORINO 98.500 0000 GASOLIO 20,00 ... 36,20"
)

func run(lines ...string) (*State, []types.Record) {
	s := New()
	for _, l := range lines {
		s.Line(l)
	}
	return s, s.Finish()
}

func TestSingleVehicleTwoTransactionsThenPlate(t *testing.T) {
	_, records := run(txnA, txnB, "TARGA AB123CD")

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	wantAmounts := []normalize.Value{normalize.DecimalValue(70.5), normalize.DecimalValue(65.1)}
	for i, rec := range records {
		if rec.Plate != "AB123CD" {
			t.Errorf("record %d plate = %q", i, rec.Plate)
		}
		if rec.TotalAmount != wantAmounts[i] {
			t.Errorf("record %d amount = %+v, want %+v", i, rec.TotalAmount, wantAmounts[i])
		}
	}

	first := records[0]
	want := types.Record{
		Plate:           "AB123CD",
		FulfillmentDate: "01/02/23",
		FulfillmentTime: "08:15",
		Odometer:        120000,
		Liters:          normalize.DecimalValue(40),
		TotalAmount:     normalize.DecimalValue(70.5),
		Supplier:        "IP",
		FuelSupplyType:  "external",
		ReceiptNumber:   "12345678",
		Locality:        "ROMA",
	}
	if first != want {
		t.Fatalf("first record = %+v, want %+v", first, want)
	}
}

func TestTrailingTransactionGetsUnknownVehicle(t *testing.T) {
	s, records := run(txnA, "TARGA AB123CD", txnC)

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[1].Plate != UnknownVehicle || records[1].ReceiptNumber != "12345680" {
		t.Fatalf("trailing record = %+v", records[1])
	}
	if s.Stats().UnknownVehicle != 1 {
		t.Fatalf("UnknownVehicle stat = %d", s.Stats().UnknownVehicle)
	}
	if s.PendingCount() != 0 {
		t.Fatalf("pending after finish = %d", s.PendingCount())
	}
}

func TestOnlyTransactionNoPlate(t *testing.T) {
	_, records := run(txnC)

	if len(records) != 1 || records[0].Plate != UnknownVehicle {
		t.Fatalf("records = %+v", records)
	}
}

func TestDuplicateTransactionsAreDroppedAcrossMarkers(t *testing.T) {
	s, records := run(
		txnA, txnB, "TARGA AB123CD",
		txnA, txnB, "TARGA AB123CD",
		txnB,
	)

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(records), records)
	}
	seen := map[types.DedupKey]bool{}
	for _, r := range records {
		if seen[r.Key()] {
			t.Fatalf("duplicate key %+v", r.Key())
		}
		seen[r.Key()] = true
	}
	if s.Stats().Duplicates != 3 {
		t.Fatalf("Duplicates = %d, want 3", s.Stats().Duplicates)
	}
}

func TestFirstPlateWinsForDuplicates(t *testing.T) {
	_, records := run(txnA, "TARGA AB123CD", txnA, "TARGA ZZ999ZZ")

	if len(records) != 1 || records[0].Plate != "AB123CD" {
		t.Fatalf("records = %+v", records)
	}
}

func TestEmissionOrder(t *testing.T) {
	_, records := run(txnA, "TARGA AB123CD", txnC, txnB, "TARGA CD456EF", "02/02/23 12:00 12345699 10002 ASTI 5.000 0000 GASOLIO 10,00 18,00")

	var got []string
	for _, r := range records {
		got = append(got, r.ReceiptNumber+"/"+r.Plate)
	}
	want := []string{
		"12345678/AB123CD",
		"12345680/CD456EF",
		"12345679/CD456EF",
		"12345699/" + UnknownVehicle,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestEveryTransactionEmittedExactlyOnce(t *testing.T) {
	lines := []string{"HEADER", txnA, "noise", txnB, "TARGA AB123CD", txnC, "FOOTER"}
	s, records := run(lines...)

	if s.Stats().Transactions != 3 || len(records) != 3 {
		t.Fatalf("transactions=%d records=%d", s.Stats().Transactions, len(records))
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	s, first := run(txnA)
	second := s.Finish()

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second Finish = %+v, want %+v", second, first)
	}

	s.Line(txnB)
	if len(s.Finish()) != 1 {
		t.Fatalf("lines applied after Finish must be ignored")
	}
}

func TestUnparsedLitersAreKeptRaw(t *testing.T) {
	s, records := run("01/02/23 08:15 12345678 10001 ROMA 120.000 0000 GASOLIO , 1,5450 89,90", "TARGA AB123CD")

	if s.Stats().Transactions != 1 || len(records) != 1 {
		t.Fatalf("transactions=%d records=%+v", s.Stats().Transactions, records)
	}
	rec := records[0]
	if rec.Plate != "AB123CD" {
		t.Fatalf("Plate = %q", rec.Plate)
	}
	if rec.Liters.Kind != normalize.Raw || rec.Liters.Text != "," {
		t.Fatalf("Liters = %+v, want raw \",\"", rec.Liters)
	}
	if got, ok := rec.TotalAmount.Float(); !ok || got != 89.9 {
		t.Fatalf("TotalAmount = %+v", rec.TotalAmount)
	}
}

func TestApplyWithExplicitResults(t *testing.T) {
	s := New()
	s.Apply(matcher.Match(txnA))
	s.Apply(matcher.Result{Kind: matcher.NoMatch})
	s.Apply(matcher.Result{Kind: matcher.PlateMarker, Plate: "AB123CD"})

	records := s.Finish()
	if len(records) != 1 || records[0].Plate != "AB123CD" {
		t.Fatalf("records = %+v", records)
	}
}

func TestStatesAreIndependent(t *testing.T) {
	a := New()
	a.Line(txnA)
	a.Line("TARGA AB123CD")

	b := New()
	b.Line(txnA)

	if got := b.Finish(); len(got) != 1 || got[0].Plate != UnknownVehicle {
		t.Fatalf("state b leaked keys from state a: %+v", got)
	}
}
