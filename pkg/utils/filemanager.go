// =============================================================================
// Fuel Invoice Extractor - File Manager Utility
// =============================================================================
//
// This module provides file management for the batch command:
//   - Invoice discovery in the input directory
//   - File archival (moving processed invoices, copying exports)
//   - Export file naming
//   - Failure log and processing summary generation
//
// ARCHIVAL STRATEGY:
//   - Invoices are moved to input_archive after they were processed
//   - Export files are copied to output_archive for long-term storage
//   - Invoices that failed remain in the input directory
//   - Logs are created in the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const separator = "================================================================================\n"

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the batch command.
type FileManager struct {
	// InputDir is the directory where invoices are placed.
	InputDir string

	// OutputDir is the directory where exports and logs are written.
	OutputDir string

	// InputArchiveDir is the directory for archived invoices.
	InputArchiveDir string

	// OutputArchiveDir is the directory for archived exports.
	OutputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in archives.
	// Example: input_archive/2024/01/15/invoice.pdf
	UseTimestampSubdirs bool

	// ArchiveOnSuccess determines whether files are archived at all.
	ArchiveOnSuccess bool

	// Now is the clock used for archive subdirectories and log names.
	Now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		OutputArchiveDir: outputArchiveDir,
		ArchiveOnSuccess: true,
		Now:              time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{
		fm.InputDir,
		fm.OutputDir,
		fm.InputArchiveDir,
		fm.OutputArchiveDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the files of the input directory whose extension
// matches ext, ignoring case. Subdirectories are not scanned.
//
// RETURNS:
//   - The matching paths, sorted by name.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInputFiles(ext string) ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			files = append(files, filepath.Join(fm.InputDir, entry.Name()))
		}
	}
	slices.Sort(files)

	return files, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an invoice to the input archive directory.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath, err := fm.prepareArchivePath(fm.InputArchiveDir, filePath)
	if err != nil {
		return "", err
	}

	// Move the file. Rename fails across devices; fall back to copy and delete.
	if err := os.Rename(filePath, archivePath); err != nil {
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// ArchiveOutputFile copies an export to the output archive directory.
// Export files remain in the output directory.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath, err := fm.prepareArchivePath(fm.OutputArchiveDir, filePath)
	if err != nil {
		return "", err
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

// prepareArchivePath returns the archive path for a file and creates its
// directory. An existing archived file of the same name is never
// overwritten; the new file gets a timestamp suffix instead.
func (fm *FileManager) prepareArchivePath(archiveDir, filePath string) (string, error) {
	now := fm.now()
	fileName := filepath.Base(filePath)

	dir := archiveDir
	if fm.UseTimestampSubdirs {
		dir = filepath.Join(
			archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(dir, fileName)
	if _, err := os.Stat(archivePath); err == nil {
		ext := filepath.Ext(fileName)
		base := strings.TrimSuffix(fileName, ext)
		archivePath = filepath.Join(dir, fmt.Sprintf("%s_%s%s", base, now.Format("20060102_150405"), ext))
	}

	return archivePath, nil
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an export file name.
//
// PARAMETERS:
//   - format: The base name format.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Date (YYYYMMDD)
//               {time}      - Time (HHMMSS)
//   - ext: The extension to ensure, including the dot (".csv").
//   - now: The time used for the time placeholders.
//
// EXAMPLE:
//   format: "fuel_records_{timestamp}"
//   ext:    ".xlsx"
//   output: "fuel_records_20240115_143022.xlsx"
func GenerateOutputFileName(format, ext string, now time.Time) string {
	replacer := strings.NewReplacer(
		"{uuid}", uuid.New().String(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	)
	result := replacer.Replace(format)

	if !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}

	return result
}

// =============================================================================
// FAILURE LOG GENERATION
// =============================================================================

// FailureLogEntry represents an invoice that could not be processed.
type FailureLogEntry struct {
	FileName     string
	ErrorMessage string
}

// WriteFailureLog writes failure entries to a log file in the output
// directory. Nothing is written when there are no entries.
//
// RETURNS:
//   - The path to the failure log file, or "" when nothing was written.
//   - An error if writing fails.
func (fm *FileManager) WriteFailureLog(entries []FailureLogEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	now := fm.now()
	logPath := filepath.Join(fm.OutputDir, fmt.Sprintf("failure_log_%s.txt", now.Format("20060102_150405")))

	err := writeTextFile(logPath, func(w *bufio.Writer) {
		fmt.Fprintf(w, "Fuel Invoice Extractor - Failure Log\n"+
			"Generated: %s\n"+
			"Total Failures: %d\n"+
			separator+"\n",
			now.Format("2006-01-02 15:04:05"),
			len(entries))

		for i, entry := range entries {
			fmt.Fprintf(w, "Failure #%d\n"+
				"  File:    %s\n"+
				"  Message: %s\n\n",
				i+1, entry.FileName, entry.ErrorMessage)
		}

		w.WriteString(separator + "End of Failure Log\n")
	})
	if err != nil {
		return "", fmt.Errorf("failed to write failure log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	StartTime      time.Time
	EndTime        time.Time
	TotalFiles     int
	Successful     int
	Failed         int
	TotalRecords   int
	TotalAmount    float64
	QualityIssues  int
	OutputFiles    []string
	ProcessedFiles []ProcessedFileInfo
	FailedFiles    []FailureLogEntry
}

// ProcessedFileInfo contains information about a processed invoice.
type ProcessedFileInfo struct {
	InputFile   string
	ArchivePath string
	Records     int
	TotalAmount float64
}

// WriteSummaryLog writes a processing summary to the output directory.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func (fm *FileManager) WriteSummaryLog(summary ProcessingSummary) (string, error) {
	summaryPath := filepath.Join(fm.OutputDir,
		fmt.Sprintf("processing_summary_%s.txt", summary.EndTime.Format("20060102_150405")))

	err := writeTextFile(summaryPath, func(w *bufio.Writer) {
		fmt.Fprintf(w, "Fuel Invoice Extractor - Processing Summary\n"+
			separator+"\n"+
			"Run Information:\n"+
			"  Start Time:     %s\n"+
			"  End Time:       %s\n"+
			"  Duration:       %s\n\n"+
			"Statistics:\n"+
			"  Total Files:    %d\n"+
			"  Successful:     %d\n"+
			"  Failed:         %d\n"+
			"  Total Records:  %d\n"+
			"  Total Amount:   %.2f\n"+
			"  Quality Issues: %d\n\n",
			summary.StartTime.Format("2006-01-02 15:04:05"),
			summary.EndTime.Format("2006-01-02 15:04:05"),
			summary.EndTime.Sub(summary.StartTime).String(),
			summary.TotalFiles,
			summary.Successful,
			summary.Failed,
			summary.TotalRecords,
			summary.TotalAmount,
			summary.QualityIssues)

		if len(summary.OutputFiles) > 0 {
			w.WriteString("Output Files:\n")
			for _, f := range summary.OutputFiles {
				fmt.Fprintf(w, "  %s\n", f)
			}
			w.WriteString("\n")
		}

		if len(summary.ProcessedFiles) > 0 {
			w.WriteString("Processed Files:\n")
			w.WriteString(strings.Repeat("-", 80) + "\n")
			for _, pf := range summary.ProcessedFiles {
				fmt.Fprintf(w, "  Input:        %s\n", pf.InputFile)
				if pf.ArchivePath != "" {
					fmt.Fprintf(w, "  Archived:     %s\n", pf.ArchivePath)
				}
				fmt.Fprintf(w, "  Records:      %d\n", pf.Records)
				fmt.Fprintf(w, "  Total Amount: %.2f\n\n", pf.TotalAmount)
			}
		}

		if len(summary.FailedFiles) > 0 {
			w.WriteString("Failed Files:\n")
			w.WriteString(strings.Repeat("-", 80) + "\n")
			for _, ff := range summary.FailedFiles {
				fmt.Fprintf(w, "  File:  %s\n", ff.FileName)
				fmt.Fprintf(w, "  Error: %s\n\n", ff.ErrorMessage)
			}
		}

		w.WriteString(separator + "End of Summary\n")
	})
	if err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// writeTextFile creates path and fills it through a buffered writer.
func writeTextFile(path string, fill func(w *bufio.Writer)) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(file)
	fill(writer)

	if err := writer.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}
