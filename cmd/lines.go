// =============================================================================
// Fuel Invoice Extractor - Lines Command
// =============================================================================
//
// This file defines the 'lines' command, a diagnostic view of an invoice.
// It prints every reconstructed text line together with how the grammar
// classified it, which is the quickest way to see why a purchase was not
// picked up.
//
// COMMAND USAGE:
//   extractor lines invoice.pdf [--all]
//
// OUTPUT:
//   p1  transaction  01/02/23 08:15 12345678 10001 ROMA ...
//   p1  plate        TOTALE TARGA AB123CD
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/lines"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/matcher"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/pdfwords"
)

var showAllLines bool

var linesCmd = &cobra.Command{
	Use:   "lines <invoice.pdf>",
	Short: "Print the text lines of an invoice and how each was classified",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read invoice: %w", err)
		}

		pages, err := pdfwords.New().Pages(cmd.Context(), content)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, page := range pages {
			for line := range lines.Lines(page.Words) {
				res := matcher.Match(line)
				if res.Kind == matcher.NoMatch && !showAllLines {
					continue
				}
				fmt.Fprintf(w, "p%d\t%s\t%s\n", page.Number, res.Kind, line)
			}
		}
		return w.Flush()
	},
}

func init() {
	linesCmd.Flags().BoolVar(&showAllLines, "all", false, "Also print lines that match nothing")
	rootCmd.AddCommand(linesCmd)
}
