// =============================================================================
// Fuel Invoice Extractor - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI.
//
// COBRA CLI STRUCTURE:
//   rootCmd (extractor)
//   ├── processCmd (extractor process)
//   ├── serveCmd   (extractor serve)
//   ├── linesCmd   (extractor lines)
//   ├── sampleCmd  (extractor sample)
//   └── versionCmd (extractor version)
//
// Before any subcommand runs, the root command loads the configuration and
// builds the logger shared by all commands.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

var (
	// cfgFile holds the path to the main configuration file.
	cfgFile string

	// envFile holds the path to an optional .env file.
	envFile string

	// verbose forces debug logging.
	verbose bool

	// appConfig and logger are set before any subcommand runs.
	appConfig *config.MainConfig
	logger    *slog.Logger

	// logFile is the open log file, if one is configured.
	logFile *os.File
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "extractor",
	Short: "Fuel Invoice Extractor - Turn fuel card invoice PDFs into vehicle refuelling records",
	Long: `Fuel Invoice Extractor reads IP fuel card invoices in PDF form and extracts
one record per refuelling: date, time, receipt, locality, odometer, liters,
amount and the vehicle plate the purchase was charged to.

Key Features:
  - Plate association for purchases grouped under a "TARGA" line
  - Per-invoice deduplication of repeated transactions
  - CSV, XLSX, JSON and XML exports
  - Concurrent batch processing with archival of processed invoices
  - HTTP service for on-demand extraction

Example Usage:
  extractor process                    # Process all invoices in the input directory
  extractor process --file inv.pdf     # Process a single invoice
  extractor serve                      # Run the HTTP service`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadMainConfig(cfgFile, envFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		appConfig = cfg

		l, err := newLogger(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		logger = l
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. An interrupt or SIGTERM cancels the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// LOGGING
// =============================================================================

// newLogger builds the structured logger from the configuration.
func newLogger(cfg *config.MainConfig, stderr io.Writer) (*slog.Logger, error) {
	level := parseLevel(cfg.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}

	out := stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		out = io.MultiWriter(stderr, f)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler), nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Path to an optional .env file with EXTRACTOR_* overrides",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
