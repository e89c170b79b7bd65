package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportFormat defines the export file format.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
	FormatJSON ExportFormat = "json"
)

// ExportOptions defines export configuration.
type ExportOptions struct {
	Format    ExportFormat
	FilePath  string
	MaxRows   int  // 0 = unlimited
	Delimiter rune // For CSV, default is comma
}

// DefaultExportOptions returns default export options.
func DefaultExportOptions() *ExportOptions {
	return &ExportOptions{
		Format:    FormatCSV,
		MaxRows:   0,
		Delimiter: ',',
	}
}

// Exporter handles exporting reports to various formats.
type Exporter struct {
	options *ExportOptions
}

// NewExporter creates a new exporter.
func NewExporter(options *ExportOptions) *Exporter {
	if options == nil {
		options = DefaultExportOptions()
	}
	return &Exporter{options: options}
}

// Export exports a report to the specified format.
func (e *Exporter) Export(report *Report) error {
	switch e.options.Format {
	case FormatCSV:
		return e.exportCSV(report)
	case FormatXLSX:
		return e.exportXLSX(report)
	case FormatJSON:
		return e.exportJSON(report)
	default:
		return fmt.Errorf("unsupported export format: %s", e.options.Format)
	}
}

// exportCSV exports report to CSV format.
func (e *Exporter) exportCSV(report *Report) error {
	file, err := os.Create(e.options.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	// Write UTF-8 BOM for Excel compatibility
	file.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(file)
	if e.options.Delimiter != 0 {
		writer.Comma = e.options.Delimiter
	}
	defer writer.Flush()

	// Write header
	if err := writer.Write(report.Definition.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// Write rows
	for rowCount, row := range report.Rows {
		if e.options.MaxRows > 0 && rowCount >= e.options.MaxRows {
			break
		}

		values := make([]string, len(report.Definition.Columns))
		for i, col := range report.Definition.Columns {
			if val, ok := row.Values[col]; ok {
				values[i] = formatValue(val)
			}
		}

		if err := writer.Write(values); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return nil
}

// exportXLSX exports report to Excel format.
func (e *Exporter) exportXLSX(report *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := sanitizeSheetName(report.Definition.Name)
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	// Style for header
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"B71C1C"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// Write header
	for i, col := range report.Definition.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	// Set column widths
	for i, col := range report.Definition.Columns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(len(col) + 5)
		if width < 15 {
			width = 15
		}
		if width > 50 {
			width = 50
		}
		f.SetColWidth(sheetName, colName, colName, width)
	}

	// Write rows
	for rowIdx, row := range report.Rows {
		if e.options.MaxRows > 0 && rowIdx >= e.options.MaxRows {
			break
		}
		for i, col := range report.Definition.Columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx+2)
			if val, ok := row.Values[col]; ok {
				f.SetCellValue(sheetName, cell, val)
			}
		}
	}

	// Add filters
	lastCol, _ := excelize.ColumnNumberToName(len(report.Definition.Columns))
	lastRow := len(report.Rows) + 1
	filterRange := fmt.Sprintf("%s!A1:%s%d", sheetName, lastCol, lastRow)
	f.AutoFilter(sheetName, filterRange, nil)

	// Freeze header row
	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	e.addMetadataSheet(f, report)

	return f.SaveAs(e.options.FilePath)
}

// addMetadataSheet adds a metadata sheet to the Excel file.
func (e *Exporter) addMetadataSheet(f *excelize.File, report *Report) {
	sheetName := "Metadata"
	f.NewSheet(sheetName)

	metadata := [][]string{
		{"Report Name", report.Definition.Name},
		{"Description", report.Definition.Description},
		{"Category", report.Definition.Category},
		{"Run ID", fmt.Sprintf("%d", report.RunID)},
		{"Total Rows", fmt.Sprintf("%d", report.TotalCount)},
		{"Generated", report.Generated},
		{"Tool", "Linkcheck Scanner"},
	}

	for i, row := range metadata {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", i+1), row[0])
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", i+1), row[1])
	}

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "B", 50)
}

// exportJSON exports report to JSON format.
func (e *Exporter) exportJSON(report *Report) error {
	data := &JSONReport{
		Metadata: JSONMetadata{
			ReportType:  string(report.Definition.Type),
			Name:        report.Definition.Name,
			Description: report.Definition.Description,
			Category:    report.Definition.Category,
			RunID:       report.RunID,
			TotalCount:  report.TotalCount,
			Generated:   report.Generated,
			Columns:     report.Definition.Columns,
		},
		Rows: make([]map[string]interface{}, 0, len(report.Rows)),
	}

	for rowCount, row := range report.Rows {
		if e.options.MaxRows > 0 && rowCount >= e.options.MaxRows {
			break
		}
		data.Rows = append(data.Rows, row.Values)
	}

	file, err := os.Create(e.options.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	return encoder.Encode(data)
}

// JSONReport represents the JSON export structure.
type JSONReport struct {
	Metadata JSONMetadata             `json:"metadata"`
	Rows     []map[string]interface{} `json:"rows"`
}

// JSONMetadata represents report metadata.
type JSONMetadata struct {
	ReportType  string   `json:"report_type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	RunID       int64    `json:"run_id"`
	TotalCount  int      `json:"total_count"`
	Generated   string   `json:"generated"`
	Columns     []string `json:"columns"`
}

// formatValue converts a value to string for export.
func formatValue(v interface{}) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%.2f", val)
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// sanitizeSheetName ensures sheet name is valid for Excel.
func sanitizeSheetName(name string) string {
	invalid := []string{"\\", "/", "?", "*", "[", "]", ":"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}

	// Max 31 characters
	if len(result) > 31 {
		result = result[:31]
	}

	return result
}

// BulkExporter writes every report for one run. Filenames embed the run's
// timestamp, so a new run never overwrites a prior run's reports.
type BulkExporter struct {
	generator *Generator
	outputDir string
}

// NewBulkExporter creates a new bulk exporter.
func NewBulkExporter(generator *Generator, outputDir string) *BulkExporter {
	return &BulkExporter{
		generator: generator,
		outputDir: outputDir,
	}
}

// ExportAll exports all reports for a run in the specified format. The scan
// summary is written even when empty so "nothing broken" is distinguishable
// from "scanner never ran".
func (b *BulkExporter) ExportAll(runID int64, format ExportFormat) error {
	if err := os.MkdirAll(b.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")

	for _, def := range AllReports() {
		report, err := b.generator.Generate(runID, def.Type)
		if err != nil {
			return fmt.Errorf("failed to generate %s: %w", def.Type, err)
		}

		if report.TotalCount == 0 && def.Type != ReportBrokenLinks && def.Type != ReportScanSummary {
			continue
		}

		ext := string(format)
		filename := fmt.Sprintf("%s_run%d_%s.%s", sanitizeFilename(def.Name), runID, timestamp, ext)
		filePath := filepath.Join(b.outputDir, filename)

		options := &ExportOptions{
			Format:   format,
			FilePath: filePath,
		}

		if err := NewExporter(options).Export(report); err != nil {
			return fmt.Errorf("failed to export %s: %w", def.Type, err)
		}
	}

	return nil
}

// ExportWorkbook exports all reports for a run into a single Excel file with
// one sheet per report.
func (b *BulkExporter) ExportWorkbook(runID int64) (string, error) {
	if err := os.MkdirAll(b.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	f.DeleteSheet("Sheet1")

	for _, def := range AllReports() {
		report, err := b.generator.Generate(runID, def.Type)
		if err != nil {
			return "", err
		}

		sheetName := sanitizeSheetName(def.Name)
		f.NewSheet(sheetName)

		for i, col := range report.Definition.Columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheetName, cell, col)
		}

		for rowIdx, row := range report.Rows {
			for i, col := range report.Definition.Columns {
				cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx+2)
				if val, ok := row.Values[col]; ok {
					f.SetCellValue(sheetName, cell, val)
				}
			}
		}
	}

	timestamp := time.Now().Format("20060102_150405")
	filePath := filepath.Join(b.outputDir, fmt.Sprintf("linkcheck_run%d_%s.xlsx", runID, timestamp))
	if err := f.SaveAs(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}

// sanitizeFilename ensures filename is valid.
func sanitizeFilename(name string) string {
	invalid := []string{"\\", "/", ":", "*", "?", "\"", "<", ">", "|", " "}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	return strings.ToLower(result)
}
