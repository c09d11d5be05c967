// =============================================================================
// Fuel Invoice Extractor - Main Entry Point
// =============================================================================
//
// This is the main entry point for the fuel invoice extractor. It delegates
// command execution to the cmd package.
//
// USAGE:
//   extractor process       - Extract records from every invoice PDF in the input directory
//   extractor serve         - Run the HTTP extraction service
//   extractor lines         - Print the reconstructed lines of one PDF
//   extractor sample        - Render a sample invoice PDF
//   extractor version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Extraction pipeline, exporters, HTTP service
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/fuel-invoice-extractor/cmd"
)

func main() {
	cmd.Execute()
}
