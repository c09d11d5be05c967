// =============================================================================
// Fuel Invoice Extractor - Process Command
// =============================================================================
//
// This file defines the 'process' command, the batch entry point. It
// orchestrates the whole extraction run over the input directory.
//
// COMMAND USAGE:
//   extractor process [flags]
//
// FLAGS:
//   --dry-run : Extract and report without writing or archiving anything
//   --file    : Process a single invoice instead of the input directory
//   --format  : Export formats, overriding output_formats (csv,xlsx,json,xml)
//
// PROCESSING PIPELINE:
//   1. Discover invoice PDFs in the input directory
//   2. Extract all invoices concurrently
//   3. Run the record quality check
//   4. Write one export file per configured format
//   5. Archive processed invoices and the exports
//   6. Write the failure log and the processing summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/export"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/extractor"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/pdfwords"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/validation"
	"github.com/ginjaninja78/fuel-invoice-extractor/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun   bool
	filePath string
	formats  []string
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Extract fuel records from the invoices in the input directory",
	Long: `The process command scans the input directory for invoice PDFs, extracts
their fuel records concurrently, and writes the records in every configured
export format.

Each invoice is processed independently; an invoice that cannot be read does
not affect the others.

After a run:
  - The exports are placed in the output directory (and copied to the
    output archive)
  - Processed invoices are moved to the input archive
  - A quality log lists records with missing or unparsed values
  - A failure log lists invoices that could not be processed
  - A processing summary is written to the output directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Extract and report without writing or archiving files",
	)

	processCmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Path to a single invoice to process",
	)

	processCmd.Flags().StringSliceVar(
		&formats,
		"format",
		nil,
		"Export formats (csv, xlsx, json, xml); overrides output_formats",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(ctx context.Context) error {
	startTime := time.Now()
	cfg := appConfig

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)
	fm.ArchiveOnSuccess = cfg.ArchivesOnSuccess() && !dryRun

	formatNames := cfg.OutputFormats
	if len(formats) > 0 {
		formatNames = formats
	}
	exportFormats, err := export.ParseFormats(formatNames)
	if err != nil {
		return err
	}

	if !dryRun {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 1: DISCOVER INPUT FILES
	// =========================================================================

	var inputFiles []string
	if filePath != "" {
		inputFiles = []string{filePath}
	} else {
		inputFiles, err = fm.DiscoverInputFiles(".pdf")
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputFiles) == 0 {
		fmt.Println("No invoice PDFs found in the input directory.")
		return nil
	}
	logger.Info("discovered invoices", "count", len(inputFiles), "dir", cfg.InputDir)

	docs, paths, readFailures := readDocuments(inputFiles)

	// =========================================================================
	// STEP 2: EXTRACT
	// =========================================================================

	ex := extractor.New(pdfwords.New(),
		extractor.WithLogger(logger),
		extractor.WithConcurrency(cfg.MaxConcurrency),
	)
	batch := ex.ExtractBatch(ctx, docs)
	batch.Failures = append(readFailures, batch.Failures...)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("processing interrupted: %w", err)
	}
	if len(batch.Failures) > 0 && !cfg.ContinuesOnError() {
		for _, f := range batch.Failures {
			logger.Error("invoice failed", "file", f.Filename, "error", f.Error)
		}
		return fmt.Errorf("%d invoice(s) failed and continue_on_error is disabled", len(batch.Failures))
	}

	// =========================================================================
	// STEP 3: QUALITY CHECK
	// =========================================================================

	quality := validation.Check(batch)
	if quality.WarningCount > 0 {
		logger.Warn("records with quality issues", "issues", len(quality.Issues))
	}

	summary := utils.ProcessingSummary{
		StartTime:     startTime,
		TotalFiles:    len(inputFiles),
		Successful:    batch.ProcessedFiles,
		Failed:        len(batch.Failures),
		TotalRecords:  batch.RecordCount,
		TotalAmount:   batch.TotalAmount,
		QualityIssues: len(quality.Issues),
	}
	for _, f := range batch.Failures {
		summary.FailedFiles = append(summary.FailedFiles, utils.FailureLogEntry{FileName: f.Filename, ErrorMessage: f.Error})
	}

	if dryRun {
		summary.EndTime = time.Now()
		printSummary(summary, batch)
		fmt.Println("\nDry run: no files were written or archived.")
		return nil
	}

	// =========================================================================
	// STEP 4: WRITE EXPORTS
	// =========================================================================

	now := time.Now()
	opts := export.Options{CSVDelimiter: cfg.Delimiter()}
	for _, format := range exportFormats {
		name := utils.GenerateOutputFileName(cfg.OutputNameFormat, format.Extension(), now)
		outPath := filepath.Join(cfg.OutputDir, name)
		if err := writeExport(outPath, format, batch, opts); err != nil {
			return err
		}
		summary.OutputFiles = append(summary.OutputFiles, outPath)
		logger.Info("wrote export", "format", string(format), "path", outPath, "records", batch.RecordCount)

		if _, err := fm.ArchiveOutputFile(outPath); err != nil {
			logger.Warn("failed to archive export", "path", outPath, "error", err)
		}
	}

	if len(quality.Issues) > 0 {
		issuePath := filepath.Join(cfg.OutputDir, fmt.Sprintf("quality_log_%s.txt", now.Format("20060102_150405")))
		if err := validation.WriteIssueLog(quality.Issues, issuePath); err != nil {
			logger.Warn("failed to write quality log", "error", err)
		}
	}

	// =========================================================================
	// STEP 5: ARCHIVE PROCESSED INVOICES
	// =========================================================================

	for _, res := range batch.Results {
		info := utils.ProcessedFileInfo{
			InputFile:   paths[res.Filename],
			Records:     res.RecordCount,
			TotalAmount: res.TotalAmount,
		}
		if fm.ArchiveOnSuccess {
			archived, err := fm.ArchiveInputFile(paths[res.Filename])
			if err != nil {
				logger.Warn("failed to archive invoice", "file", res.Filename, "error", err)
			} else {
				info.ArchivePath = archived
			}
		}
		summary.ProcessedFiles = append(summary.ProcessedFiles, info)
	}

	// =========================================================================
	// STEP 6: LOGS AND SUMMARY
	// =========================================================================

	if _, err := fm.WriteFailureLog(summary.FailedFiles); err != nil {
		logger.Warn("failed to write failure log", "error", err)
	}

	summary.EndTime = time.Now()
	if _, err := fm.WriteSummaryLog(summary); err != nil {
		logger.Warn("failed to write processing summary", "error", err)
	}

	printSummary(summary, batch)
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// readDocuments loads the invoices into memory. Unreadable files are
// reported as failures. The returned map resolves document names to paths.
func readDocuments(files []string) ([]extractor.Document, map[string]string, []types.DocumentFailure) {
	docs := make([]extractor.Document, 0, len(files))
	paths := make(map[string]string, len(files))
	var failures []types.DocumentFailure

	for _, path := range files {
		name := filepath.Base(path)
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Error("failed to read invoice", "file", path, "error", err)
			failures = append(failures, types.DocumentFailure{Filename: name, Error: err.Error()})
			continue
		}
		docs = append(docs, extractor.Document{Filename: name, Content: content})
		paths[name] = path
	}
	return docs, paths, failures
}

func writeExport(path string, format export.Format, batch *types.BatchResult, opts export.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.Write(format, f, batch, opts); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func printSummary(summary utils.ProcessingSummary, batch *types.BatchResult) {
	for _, res := range batch.Results {
		fmt.Printf("  ✓ %s: %d record(s), %.2f\n", res.Filename, res.RecordCount, res.TotalAmount)
	}
	for _, f := range batch.Failures {
		fmt.Printf("  ✗ %s: %s\n", f.Filename, f.Error)
	}
	for _, name := range batch.Skipped {
		fmt.Printf("  - %s: skipped\n", name)
	}

	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:     %d\n", summary.TotalFiles)
	fmt.Printf("Successful:      %d\n", summary.Successful)
	fmt.Printf("Failed:          %d\n", summary.Failed)
	fmt.Printf("Records:         %d\n", summary.TotalRecords)
	fmt.Printf("Total amount:    %.2f\n", summary.TotalAmount)
	fmt.Printf("Quality issues:  %d\n", summary.QualityIssues)
	fmt.Printf("Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))
	for _, out := range summary.OutputFiles {
		fmt.Printf("Output:          %s\n", out)
	}
}
