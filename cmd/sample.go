// =============================================================================
// Fuel Invoice Extractor - Sample Command
// =============================================================================
//
// This file defines the 'sample' command, which writes a synthetic invoice
// PDF. The invoice has two vehicles, a repeated purchase and one purchase
// after the last plate line, so it exercises every association rule.
//
// COMMAND USAGE:
//   extractor sample [out.pdf]
//
// Without an argument the invoice is written to the input directory.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/sample"
)

var sampleCmd = &cobra.Command{
	Use:   "sample [out.pdf]",
	Short: "Write a synthetic invoice PDF for trying out the extractor",
	Args:  cobra.MaximumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		out := filepath.Join(appConfig.InputDir, "sample_invoice.pdf")
		if len(args) == 1 {
			out = args[0]
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		if err := sample.Render(f, sample.Default()); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", out, err)
		}

		logger.Info("wrote sample invoice", "path", out)
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
}
