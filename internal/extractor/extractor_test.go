package extractor

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/association"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/normalize"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

// fakeSource treats document content as text: pages are separated by form
// feeds and each line becomes a band of words.
type fakeSource struct {
	calls atomic.Int32
}

func (f *fakeSource) Pages(ctx context.Context, content []byte) ([]types.Page, error) {
	f.calls.Add(1)
	text := string(content)
	if strings.HasPrefix(text, "CORRUPT") {
		return nil, errors.New("malformed xref table")
	}

	var pages []types.Page
	for i, pageText := range strings.Split(text, "\f") {
		page := types.Page{Number: i + 1}
		for row, line := range strings.Split(pageText, "\n") {
			for _, w := range strings.Fields(line) {
				page.Words = append(page.Words, types.PositionedWord{Text: w, Top: float64(row * 12)})
			}
		}
		pages = append(pages, page)
	}
	return pages, nil
}

var fixedNow = time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestExtractor(src WordSource) *Extractor {
	return New(src, WithClock(func() time.Time { return fixedNow }), WithConcurrency(3))
}

const invoice = `FATTURA IP 2023/001
01/02/23 08:15 12345678 10001 ROMA 120.000 0000 GASOLIO SELF 40,00 1,7630 70,50
01/02/23 08:20 12345679 10001 ROMA 120.010 0000 GASOLIO 35,00 1,8600 65,10
TOTALE CARTA TARGA AB123CD
` + "\f" + `02/02/23 11:40 12345680 10002 TORINO 98.500 0000 GASOLIO 20,00 1,8100 36,20`

func TestExtractDocument(t *testing.T) {
	ex := newTestExtractor(&fakeSource{})

	res, err := ex.Extract(context.Background(), Document{Filename: "march.pdf", Content: []byte(invoice)})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if res.Filename != "march.pdf" || !res.Timestamp.Equal(fixedNow) {
		t.Fatalf("result header = %+v", res)
	}
	if res.RecordCount != 3 || len(res.Records) != 3 {
		t.Fatalf("RecordCount = %d", res.RecordCount)
	}
	if res.TotalAmount != 171.8 {
		t.Fatalf("TotalAmount = %v, want 171.8", res.TotalAmount)
	}

	plates := []string{res.Records[0].Plate, res.Records[1].Plate, res.Records[2].Plate}
	want := []string{"AB123CD", "AB123CD", association.UnknownVehicle}
	if !reflect.DeepEqual(plates, want) {
		t.Fatalf("plates = %v, want %v", plates, want)
	}
}

func TestExtractKeepsLineWithUnparsedLiters(t *testing.T) {
	ex := newTestExtractor(&fakeSource{})
	doc := "01/02/23 08:15 12345678 10001 ROMA 120.000 0000 GASOLIO , 1,5450 89,90\nTARGA AB123CD"

	res, err := ex.Extract(context.Background(), Document{Filename: "odd.pdf", Content: []byte(doc)})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.RecordCount != 1 || res.Records[0].Plate != "AB123CD" {
		t.Fatalf("records = %+v", res.Records)
	}
	if res.Records[0].Liters != normalize.RawValue(",") {
		t.Fatalf("Liters = %+v", res.Records[0].Liters)
	}
	if res.TotalAmount != 89.9 {
		t.Fatalf("TotalAmount = %v, want 89.9", res.TotalAmount)
	}
	if n := unparsedValues(res.Records); n != 1 {
		t.Fatalf("unparsedValues = %d, want 1", n)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	ex := newTestExtractor(&fakeSource{})
	doc := Document{Filename: "a.pdf", Content: []byte(invoice)}

	first, err := ex.Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := ex.Extract(context.Background(), doc)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs", i)
		}
	}
}

func TestExtractFailureIsStructured(t *testing.T) {
	ex := newTestExtractor(&fakeSource{})

	_, err := ex.Extract(context.Background(), Document{Filename: "bad.pdf", Content: []byte("CORRUPT")})

	var docErr *DocumentError
	if !errors.As(err, &docErr) {
		t.Fatalf("err = %v, want *DocumentError", err)
	}
	if docErr.Filename != "bad.pdf" || !strings.Contains(err.Error(), "malformed xref table") {
		t.Fatalf("err = %v", err)
	}
}

func TestExtractRejectsNonPDF(t *testing.T) {
	src := &fakeSource{}
	ex := newTestExtractor(src)

	_, err := ex.Extract(context.Background(), Document{Filename: "notes.txt", Content: []byte(invoice)})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
	if src.calls.Load() != 0 {
		t.Fatalf("word source must not be called for non-PDF documents")
	}
}

func TestExtractCancelledLeavesNoPartialResult(t *testing.T) {
	ex := newTestExtractor(&fakeSource{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := ex.Extract(ctx, Document{Filename: "a.pdf", Content: []byte(invoice)})
	if res != nil {
		t.Fatalf("cancelled extraction returned a result: %+v", res)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestExtractBatch(t *testing.T) {
	ex := newTestExtractor(&fakeSource{})

	docs := []Document{
		{Filename: "one.pdf", Content: []byte(invoice)},
		{Filename: "readme.txt", Content: []byte("hello")},
		{Filename: "broken.pdf", Content: []byte("CORRUPT")},
		{Filename: "TWO.PDF", Content: []byte("01/02/23 09:00 22222222 10001 ROMA 1 0000 GASOLIO 10,00 18,00\nTARGA CD456EF")},
	}

	batch := ex.ExtractBatch(context.Background(), docs)

	if batch.ProcessedFiles != 2 || len(batch.Results) != 2 {
		t.Fatalf("ProcessedFiles = %d", batch.ProcessedFiles)
	}
	if batch.Results[0].Filename != "one.pdf" || batch.Results[1].Filename != "TWO.PDF" {
		t.Fatalf("results out of order: %s, %s", batch.Results[0].Filename, batch.Results[1].Filename)
	}
	if batch.RecordCount != 4 {
		t.Fatalf("RecordCount = %d, want 4", batch.RecordCount)
	}
	if batch.TotalAmount != 189.8 {
		t.Fatalf("TotalAmount = %v, want 189.8", batch.TotalAmount)
	}
	if len(batch.Failures) != 1 || batch.Failures[0].Filename != "broken.pdf" {
		t.Fatalf("Failures = %+v", batch.Failures)
	}
	if !reflect.DeepEqual(batch.Skipped, []string{"readme.txt"}) {
		t.Fatalf("Skipped = %v", batch.Skipped)
	}
}

func TestExtractBatchDocumentsDoNotShareState(t *testing.T) {
	ex := newTestExtractor(&fakeSource{})

	// The same purchase appears in two documents; dedup is per document, so
	// both documents report it.
	docs := []Document{
		{Filename: "a.pdf", Content: []byte(invoice)},
		{Filename: "b.pdf", Content: []byte(invoice)},
	}

	batch := ex.ExtractBatch(context.Background(), docs)
	if batch.RecordCount != 6 {
		t.Fatalf("RecordCount = %d, want 6", batch.RecordCount)
	}
}

func TestIsPDF(t *testing.T) {
	cases := map[string]bool{
		"a.pdf":       true,
		"A.PDF":       true,
		"a.pdf.txt":   false,
		"pdf":         false,
		"invoice.Pdf": true,
	}
	for name, want := range cases {
		if got := IsPDF(name); got != want {
			t.Errorf("IsPDF(%q) = %v, want %v", name, got, want)
		}
	}
}
