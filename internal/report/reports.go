// Package report builds and exports the tabular reports a scan produces.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/linkcheck-scanner/linkcheck/internal/storage"
)

// ReportType defines the type of report.
type ReportType string

const (
	ReportBrokenLinks   ReportType = "broken_links"
	ReportReasonSummary ReportType = "reason_summary"
	ReportFileErrors    ReportType = "file_errors"
	ReportScanSummary   ReportType = "scan_summary"
)

// ReportDefinition defines a report type.
type ReportDefinition struct {
	Type        ReportType
	Name        string
	Description string
	Category    string
	Columns     []string
}

// AllReports returns all available report definitions.
func AllReports() []*ReportDefinition {
	return []*ReportDefinition{
		{ReportBrokenLinks, "Broken Links", "Every broken reference, deduplicated per source file, highest-impact first", "Findings",
			[]string{"Broken URL", "Source File", "Raw Reference", "Kind", "Reason", "Suggestion", "HTTP Status", "Occurrences"}},
		{ReportReasonSummary, "Reason Summary", "Findings rolled up by root-cause reason", "Summary",
			[]string{"Reason", "Findings", "Total Occurrences"}},
		{ReportFileErrors, "File Errors", "Documents the scan could not read", "Findings",
			[]string{"File", "Error"}},
		{ReportScanSummary, "Scan Summary", "Run counters and timing", "Summary",
			[]string{"Metric", "Value"}},
	}
}

// Row represents a single row in a report.
type Row struct {
	Values map[string]interface{}
}

// Report represents a generated report.
type Report struct {
	Definition *ReportDefinition
	RunID      int64
	Rows       []*Row
	TotalCount int
	Generated  string // Timestamp
}

// Generator generates reports from stored scan results.
type Generator struct {
	db *storage.Database
}

// NewGenerator creates a new report generator.
func NewGenerator(db *storage.Database) *Generator {
	return &Generator{db: db}
}

// Generate generates a report of the specified type for one run.
func (g *Generator) Generate(runID int64, reportType ReportType) (*Report, error) {
	def := g.getDefinition(reportType)
	if def == nil {
		return nil, fmt.Errorf("unknown report type: %s", reportType)
	}

	report := &Report{
		Definition: def,
		RunID:      runID,
		Rows:       make([]*Row, 0),
		Generated:  time.Now().Format(time.RFC3339),
	}

	var err error
	switch reportType {
	case ReportBrokenLinks:
		err = g.generateBrokenLinks(runID, report)
	case ReportReasonSummary:
		err = g.generateReasonSummary(runID, report)
	case ReportFileErrors:
		err = g.generateFileErrors(runID, report)
	case ReportScanSummary:
		err = g.generateScanSummary(runID, report)
	default:
		err = fmt.Errorf("report generator not implemented: %s", reportType)
	}

	if err != nil {
		return nil, err
	}

	report.TotalCount = len(report.Rows)
	return report, nil
}

func (g *Generator) getDefinition(reportType ReportType) *ReportDefinition {
	for _, def := range AllReports() {
		if def.Type == reportType {
			return def
		}
	}
	return nil
}

func (g *Generator) generateBrokenLinks(runID int64, report *Report) error {
	findings, err := g.db.GetFindings(runID)
	if err != nil {
		return err
	}

	for _, f := range findings {
		report.Rows = append(report.Rows, &Row{
			Values: map[string]interface{}{
				"Broken URL":    f.Address,
				"Source File":   f.SourceFile,
				"Raw Reference": f.RawText,
				"Kind":          f.Kind,
				"Reason":        f.Reason,
				"Suggestion":    f.Suggestion,
				"HTTP Status":   f.HTTPStatus,
				"Occurrences":   f.Occurrences,
			},
		})
	}
	return nil
}

func (g *Generator) generateReasonSummary(runID int64, report *Report) error {
	counts, err := g.db.GetReasonSummary(runID)
	if err != nil {
		return err
	}

	for _, rc := range counts {
		report.Rows = append(report.Rows, &Row{
			Values: map[string]interface{}{
				"Reason":            rc.Reason,
				"Findings":          rc.Findings,
				"Total Occurrences": rc.Occurrences,
			},
		})
	}
	return nil
}

func (g *Generator) generateFileErrors(runID int64, report *Report) error {
	fileErrors, err := g.db.GetFileErrors(runID)
	if err != nil {
		return err
	}

	for _, fe := range fileErrors {
		report.Rows = append(report.Rows, &Row{
			Values: map[string]interface{}{
				"File":  fe.Path,
				"Error": fe.Message,
			},
		})
	}
	return nil
}

func (g *Generator) generateScanSummary(runID int64, report *Report) error {
	run, err := g.db.GetRun(runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("unknown run: %d", runID)
	}

	elapsed := ""
	if run.FinishedAt != nil {
		elapsed = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
	}

	metrics := []struct {
		name  string
		value interface{}
	}{
		{"Run ID", run.ID},
		{"Status", run.Status},
		{"Mode", run.Mode},
		{"Root Directory", run.RootDir},
		{"Site Selector", run.SiteSelector},
		{"Files Scanned", run.FilesScanned},
		{"References Checked", run.ReferencesChecked},
		{"Broken Found", run.BrokenFound},
		{"File Errors", run.FileErrors},
		{"Started", run.StartedAt.Format(time.RFC3339)},
		{"Elapsed", elapsed},
	}

	for _, m := range metrics {
		report.Rows = append(report.Rows, &Row{
			Values: map[string]interface{}{
				"Metric": m.name,
				"Value":  m.value,
			},
		})
	}
	return nil
}

// SortRows sorts report rows by a column.
func (r *Report) SortRows(column string, ascending bool) {
	sort.SliceStable(r.Rows, func(i, j int) bool {
		vi := r.Rows[i].Values[column]
		vj := r.Rows[j].Values[column]

		switch v := vi.(type) {
		case int:
			vji, _ := vj.(int)
			if ascending {
				return v < vji
			}
			return v > vji
		case string:
			vjs, _ := vj.(string)
			if ascending {
				return v < vjs
			}
			return v > vjs
		}

		return false
	})
}

// Filter returns a copy holding only rows whose column equals value.
func (r *Report) Filter(column string, value interface{}) *Report {
	filtered := &Report{
		Definition: r.Definition,
		RunID:      r.RunID,
		Rows:       make([]*Row, 0),
		Generated:  r.Generated,
	}

	for _, row := range r.Rows {
		if row.Values[column] == value {
			filtered.Rows = append(filtered.Rows, row)
		}
	}

	filtered.TotalCount = len(filtered.Rows)
	return filtered
}
