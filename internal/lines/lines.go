// Package lines rebuilds text lines from positioned words.
//
// Words are grouped into vertical bands by rounding their Top coordinate.
// Each band becomes one line: its words joined by single spaces in the order
// the word extractor produced them. Bands are emitted top to bottom.
package lines

import (
	"iter"
	"math"
	"slices"
	"strings"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

// Band returns the vertical band of a Top coordinate. Halves round to even.
func Band(top float64) int {
	return int(math.RoundToEven(top))
}

// Lines returns the reconstructed lines of one page. The sequence is lazy
// and restartable: grouping happens each time it is ranged over, and no
// state is kept between iterations.
func Lines(words []types.PositionedWord) iter.Seq[string] {
	return func(yield func(string) bool) {
		bands := make(map[int][]string)
		for _, w := range words {
			b := Band(w.Top)
			bands[b] = append(bands[b], w.Text)
		}

		keys := make([]int, 0, len(bands))
		for b := range bands {
			keys = append(keys, b)
		}
		slices.Sort(keys)

		for _, b := range keys {
			line := strings.TrimSpace(strings.Join(bands[b], " "))
			if line == "" {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

// Reconstruct returns all lines of a page.
func Reconstruct(words []types.PositionedWord) []string {
	return slices.Collect(Lines(words))
}
