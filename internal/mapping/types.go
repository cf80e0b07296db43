package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sheetMerge/internal/excel"
	"strings"
	"time"
)

// SheetMapping records which data sheet became which merged sheet
type SheetMapping struct {
	SourceSheet string `json:"source_sheet"`
	TargetSheet string `json:"target_sheet"`
}

// Report is the JSON record written next to a merged workbook
type Report struct {
	TemplateFile    string         `json:"template_file"`
	DataFile        string         `json:"data_file"`
	OutputFile      string         `json:"output_file"`
	CreatedAt       time.Time      `json:"created_at"`
	TemplateSheets  []string       `json:"template_sheets"`
	Mappings        []SheetMapping `json:"mappings"`
	FinalSheetCount int            `json:"final_sheet_count"`
	HasMacros       bool           `json:"has_macros"`
}

// NewReport builds a report from a merge result
func NewReport(templateFile, dataFile, outputFile string, result *excel.Result) *Report {
	report := &Report{
		TemplateFile:    templateFile,
		DataFile:        dataFile,
		OutputFile:      outputFile,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
		TemplateSheets:  result.TemplateSheets,
		FinalSheetCount: result.FinalSheetCount,
		HasMacros:       result.HasMacros,
	}
	for _, a := range result.Assignments {
		report.Mappings = append(report.Mappings, SheetMapping{
			SourceSheet: a.Source,
			TargetSheet: a.Target,
		})
	}
	return report
}

// ReportPath returns the report location for a merged workbook path.
func ReportPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + "_mapping.json"
}

// SaveToFile saves the report to a JSON file
func (r *Report) SaveToFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// LoadFromFile loads a report from a JSON file
func LoadFromFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", path, err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return &report, nil
}

// TargetFor returns the merged sheet name a data sheet was given.
func (r *Report) TargetFor(source string) (string, bool) {
	for _, m := range r.Mappings {
		if m.SourceSheet == source {
			return m.TargetSheet, true
		}
	}
	return "", false
}
