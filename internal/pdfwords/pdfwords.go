// =============================================================================
// Fuel Invoice Extractor - PDF Word Source
// =============================================================================
//
// This module turns PDF bytes into positioned words. The PDF library reports
// individual glyphs with their baseline position; glyphs are merged into
// words here.
//
// WORD MERGING:
//   - Glyphs on the same baseline are ordered left to right
//   - A glyph joins the current word when the horizontal gap to it is at
//     most GapFactor * font size (3pt when the font size is unknown)
//   - Whitespace glyphs always end the current word
//
// COORDINATES:
//   PDF coordinates grow upwards from the bottom of the page. Word tops are
//   converted to distances from the top edge of the page's MediaBox.
//
// =============================================================================

package pdfwords

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

const (
	// GapFactor is the maximum glyph gap within a word, in font-size units.
	GapFactor = 0.3

	fallbackGap        = 3.0
	defaultPageHeight  = 842.0 // A4
	maxParentTraversal = 32
)

// Source reads words from PDF documents.
type Source struct{}

// New returns a PDF word source.
func New() *Source {
	return &Source{}
}

// Pages returns the positioned words of every page, in page order.
//
// Documents that cannot be opened or whose content streams cannot be decoded
// return an error. The PDF library panics on some malformed inputs; those
// panics are returned as errors.
func (s *Source) Pages(ctx context.Context, content []byte) (pages []types.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	n := reader.NumPage()
	pages = make([]types.Page, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, types.Page{Number: i})
			continue
		}

		glyphs := p.Content().Text
		pages = append(pages, types.Page{
			Number: i,
			Words:  Words(glyphs, pageHeight(p.V)),
		})
	}
	return pages, nil
}

// =============================================================================
// GLYPH MERGING
// =============================================================================

// Words merges glyphs into positioned words. Rows are emitted top to bottom
// and words left to right within a row.
func Words(glyphs []pdf.Text, height float64) []types.PositionedWord {
	rows := make(map[float64][]pdf.Text)
	for _, g := range glyphs {
		rows[g.Y] = append(rows[g.Y], g)
	}

	ys := make([]float64, 0, len(rows))
	for y := range rows {
		ys = append(ys, y)
	}
	// Highest baseline is the top of the page.
	slices.SortFunc(ys, func(a, b float64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		default:
			return 0
		}
	})

	var words []types.PositionedWord
	for _, y := range ys {
		row := rows[y]
		slices.SortStableFunc(row, func(a, b pdf.Text) int {
			switch {
			case a.X < b.X:
				return -1
			case a.X > b.X:
				return 1
			default:
				return 0
			}
		})
		words = append(words, mergeRow(row, height)...)
	}
	return words
}

func mergeRow(row []pdf.Text, height float64) []types.PositionedWord {
	var (
		words []types.PositionedWord
		text  strings.Builder
		start pdf.Text
		end   float64
		open  bool
	)

	flush := func() {
		if open && text.Len() > 0 {
			words = append(words, types.PositionedWord{
				Text: text.String(),
				Top:  height - (start.Y + start.FontSize),
				X:    start.X,
			})
		}
		text.Reset()
		open = false
	}

	for _, g := range row {
		if strings.TrimFunc(g.S, unicode.IsSpace) == "" {
			flush()
			continue
		}

		if open {
			threshold := GapFactor * start.FontSize
			if start.FontSize == 0 {
				threshold = fallbackGap
			}
			if g.X-end > threshold {
				flush()
			}
		}

		if !open {
			start = g
			open = true
		}
		text.WriteString(g.S)
		end = g.X + g.W
	}
	flush()

	return words
}

// pageHeight returns the height of the page's MediaBox, which may be
// inherited from an ancestor page tree node.
func pageHeight(v pdf.Value) float64 {
	for i := 0; i < maxParentTraversal && !v.IsNull(); i++ {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
		v = v.Key("Parent")
	}
	return defaultPageHeight
}
