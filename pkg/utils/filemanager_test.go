package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

var fixedTime = time.Date(2024, 1, 15, 14, 30, 22, 0, time.UTC)

func newTestManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(
		filepath.Join(root, "input"),
		filepath.Join(root, "output"),
		filepath.Join(root, "input_archive"),
		filepath.Join(root, "output_archive"),
	)
	fm.Now = func() time.Time { return fixedTime }
	if err := fm.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return fm
}

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestDiscoverInputFiles(t *testing.T) {
	fm := newTestManager(t)
	for _, name := range []string{"b.pdf", "A.PDF", "notes.txt", "c.pdf.bak"} {
		touch(t, filepath.Join(fm.InputDir, name), "x")
	}
	if err := os.Mkdir(filepath.Join(fm.InputDir, "sub.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := fm.DiscoverInputFiles(".pdf")
	if err != nil {
		t.Fatalf("DiscoverInputFiles: %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	if got := strings.Join(names, ","); got != "A.PDF,b.pdf" {
		t.Fatalf("files = %s", got)
	}
}

func TestArchiveInputFileMovesAndAvoidsOverwrite(t *testing.T) {
	fm := newTestManager(t)

	first := filepath.Join(fm.InputDir, "inv.pdf")
	touch(t, first, "one")
	archived, err := fm.ArchiveInputFile(first)
	if err != nil {
		t.Fatalf("ArchiveInputFile: %v", err)
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Fatalf("original still present")
	}
	if archived != filepath.Join(fm.InputArchiveDir, "inv.pdf") {
		t.Fatalf("archived = %s", archived)
	}

	touch(t, first, "two")
	second, err := fm.ArchiveInputFile(first)
	if err != nil {
		t.Fatalf("ArchiveInputFile: %v", err)
	}
	if filepath.Base(second) != "inv_20240115_143022.pdf" {
		t.Fatalf("second archive = %s", second)
	}
	data, _ := os.ReadFile(archived)
	if string(data) != "one" {
		t.Fatalf("first archive overwritten: %q", data)
	}
}

func TestArchiveOutputFileCopies(t *testing.T) {
	fm := newTestManager(t)
	fm.UseTimestampSubdirs = true

	out := filepath.Join(fm.OutputDir, "records.csv")
	touch(t, out, "data")

	archived, err := fm.ArchiveOutputFile(out)
	if err != nil {
		t.Fatalf("ArchiveOutputFile: %v", err)
	}
	if archived != filepath.Join(fm.OutputArchiveDir, "2024", "01", "15", "records.csv") {
		t.Fatalf("archived = %s", archived)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("output must remain: %v", err)
	}
}

func TestArchiveDisabled(t *testing.T) {
	fm := newTestManager(t)
	fm.ArchiveOnSuccess = false

	in := filepath.Join(fm.InputDir, "inv.pdf")
	touch(t, in, "x")
	got, err := fm.ArchiveInputFile(in)
	if err != nil || got != in {
		t.Fatalf("ArchiveInputFile = %s, %v", got, err)
	}
}

func TestGenerateOutputFileName(t *testing.T) {
	if got := GenerateOutputFileName("fuel_records_{timestamp}", ".csv", fixedTime); got != "fuel_records_20240115_143022.csv" {
		t.Fatalf("name = %s", got)
	}
	if got := GenerateOutputFileName("report_{date}.XLSX", ".xlsx", fixedTime); got != "report_20240115.XLSX" {
		t.Fatalf("name = %s", got)
	}

	got := GenerateOutputFileName("{uuid}", ".json", fixedTime)
	if !regexp.MustCompile(`^[0-9a-f-]{36}\.json$`).MatchString(got) {
		t.Fatalf("uuid name = %s", got)
	}
}

func TestWriteLogs(t *testing.T) {
	fm := newTestManager(t)

	path, err := fm.WriteFailureLog(nil)
	if err != nil || path != "" {
		t.Fatalf("empty failure log = %q, %v", path, err)
	}

	path, err = fm.WriteFailureLog([]FailureLogEntry{{FileName: "bad.pdf", ErrorMessage: "malformed PDF"}})
	if err != nil {
		t.Fatalf("WriteFailureLog: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "bad.pdf") || !strings.Contains(string(data), "Total Failures: 1") {
		t.Fatalf("failure log:\n%s", data)
	}

	summaryPath, err := fm.WriteSummaryLog(ProcessingSummary{
		StartTime:      fixedTime,
		EndTime:        fixedTime.Add(2 * time.Second),
		TotalFiles:     2,
		Successful:     1,
		Failed:         1,
		TotalRecords:   3,
		TotalAmount:    171.8,
		OutputFiles:    []string{"fuel_records.csv"},
		ProcessedFiles: []ProcessedFileInfo{{InputFile: "a.pdf", Records: 3, TotalAmount: 171.8}},
		FailedFiles:    []FailureLogEntry{{FileName: "bad.pdf", ErrorMessage: "malformed PDF"}},
	})
	if err != nil {
		t.Fatalf("WriteSummaryLog: %v", err)
	}
	if filepath.Base(summaryPath) != "processing_summary_20240115_143024.txt" {
		t.Fatalf("summary path = %s", summaryPath)
	}
	data, _ = os.ReadFile(summaryPath)
	for _, want := range []string{"Duration:       2s", "Total Amount:   171.80", "fuel_records.csv", "bad.pdf"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("summary missing %q", want)
		}
	}
}
