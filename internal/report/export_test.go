package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/linkcheck-scanner/linkcheck/internal/storage"
)

func seededGenerator(t *testing.T) (*Generator, int64) {
	t.Helper()

	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "report.db"))
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	runID, err := db.InsertRun(&storage.Run{Mode: "namespace", RootDir: "/srv/site", StartedAt: time.Now()})
	if err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	now := time.Now()
	if err := db.InsertFindings([]*storage.Finding{
		{RunID: runID, Address: "/htm/L1/XF9.htm", SourceFile: "/htm/L1/index.htm",
			RawText: "XF9.htm", Kind: "hyperlink", Status: "not_found",
			Reason: "truly_missing", Occurrences: 12, CheckedAt: now},
		{RunID: runID, Address: "/htm/L4/index.htm", SourceFile: "/htm/L1/index.htm",
			RawText: "/htm/L4/INDEX.htm", Kind: "hyperlink", Status: "not_found",
			Reason: "case_mismatch", Suggestion: "/htm/L4/index.htm", Occurrences: 3, CheckedAt: now},
	}); err != nil {
		t.Fatalf("InsertFindings: %v", err)
	}
	if err := db.FinishRun(runID, storage.RunStatusCompleted, 100, 5000, 2, 0); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	return NewGenerator(db), runID
}

func TestGenerateBrokenLinks(t *testing.T) {
	gen, runID := seededGenerator(t)

	report, err := gen.Generate(runID, ReportBrokenLinks)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.TotalCount != 2 {
		t.Fatalf("TotalCount = %d, want 2", report.TotalCount)
	}

	first := report.Rows[0].Values
	if first["Broken URL"] != "/htm/L1/XF9.htm" {
		t.Errorf("first row not highest-occurrence finding: %v", first)
	}
	if report.Rows[1].Values["Suggestion"] != "/htm/L4/index.htm" {
		t.Errorf("suggestion missing: %v", report.Rows[1].Values)
	}
}

func TestGenerateScanSummary(t *testing.T) {
	gen, runID := seededGenerator(t)

	report, err := gen.Generate(runID, ReportScanSummary)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	metrics := make(map[string]interface{})
	for _, row := range report.Rows {
		metrics[row.Values["Metric"].(string)] = row.Values["Value"]
	}
	if metrics["Status"] != storage.RunStatusCompleted {
		t.Errorf("Status = %v", metrics["Status"])
	}
	if metrics["Files Scanned"] != 100 {
		t.Errorf("Files Scanned = %v", metrics["Files Scanned"])
	}
}

func TestGenerateUnknownType(t *testing.T) {
	gen, runID := seededGenerator(t)
	if _, err := gen.Generate(runID, "pie_chart"); err == nil {
		t.Error("expected error for unknown report type")
	}
}

func TestExportCSV(t *testing.T) {
	gen, runID := seededGenerator(t)
	report, err := gen.Generate(runID, ReportBrokenLinks)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "broken.csv")
	exporter := NewExporter(&ExportOptions{Format: FormatCSV, FilePath: path})
	if err := exporter.Export(report); err != nil {
		t.Fatalf("Export: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("CSV missing UTF-8 BOM")
	}

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}))).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header plus 2 rows", len(records))
	}
	if records[0][0] != "Broken URL" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][0] != "/htm/L1/XF9.htm" || records[1][7] != "12" {
		t.Errorf("first data row = %v", records[1])
	}
}

func TestExportJSON(t *testing.T) {
	gen, runID := seededGenerator(t)
	report, err := gen.Generate(runID, ReportReasonSummary)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "reasons.json")
	exporter := NewExporter(&ExportOptions{Format: FormatJSON, FilePath: path})
	if err := exporter.Export(report); err != nil {
		t.Fatalf("Export: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var decoded JSONReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Metadata.RunID != runID {
		t.Errorf("RunID = %d, want %d", decoded.Metadata.RunID, runID)
	}
	if len(decoded.Rows) != 2 {
		t.Errorf("got %d rows, want 2", len(decoded.Rows))
	}
}

func TestBulkExportAll(t *testing.T) {
	gen, runID := seededGenerator(t)
	outDir := t.TempDir()

	bulk := NewBulkExporter(gen, outDir)
	if err := bulk.ExportAll(runID, FormatCSV); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}

	// Findings exist, so broken links, reason summary and scan summary are
	// all written; there were no file errors, so that report is skipped.
	if len(names) != 3 {
		t.Fatalf("got files %v, want 3", names)
	}
	for _, name := range names {
		if !strings.HasSuffix(name, ".csv") {
			t.Errorf("unexpected extension: %s", name)
		}
		if !strings.Contains(name, "_run1_") {
			t.Errorf("filename missing run tag: %s", name)
		}
	}
}

func TestSortRowsAndFilter(t *testing.T) {
	report := &Report{
		Definition: &ReportDefinition{Columns: []string{"Reason", "Occurrences"}},
		Rows: []*Row{
			{Values: map[string]interface{}{"Reason": "truly_missing", "Occurrences": 2}},
			{Values: map[string]interface{}{"Reason": "case_mismatch", "Occurrences": 9}},
			{Values: map[string]interface{}{"Reason": "truly_missing", "Occurrences": 5}},
		},
	}

	report.SortRows("Occurrences", false)
	if report.Rows[0].Values["Occurrences"] != 9 {
		t.Errorf("descending sort failed: %v", report.Rows[0].Values)
	}

	filtered := report.Filter("Reason", "truly_missing")
	if filtered.TotalCount != 2 {
		t.Errorf("filtered count = %d, want 2", filtered.TotalCount)
	}
}
