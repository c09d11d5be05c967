// =============================================================================
// Fuel Invoice Extractor - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which runs the HTTP service.
//
// COMMAND USAGE:
//   extractor serve [--addr :8000]
//
// The listen address, upload limits and CORS origins come from the "server"
// section of the configuration. The service stops gracefully on interrupt.
//
// =============================================================================

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/extractor"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/observability/metrics"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/pdfwords"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the extraction HTTP service",
	Long: `Run the HTTP service exposing /extract, /extract-batch and /extract-csv.

Prometheus metrics are served on /metrics.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig.Server
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		metrics.Init()

		ex := extractor.New(
			pdfwords.New(),
			extractor.WithLogger(logger),
			extractor.WithConcurrency(appConfig.MaxConcurrency),
		)
		srv := server.New(cfg, ex,
			server.WithLogger(logger),
			server.WithVersion(Version),
			server.WithCSVDelimiter(appConfig.Delimiter()),
		)
		return srv.Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address, overriding server.addr")
	rootCmd.AddCommand(serveCmd)
}
