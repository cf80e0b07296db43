package main

import (
	"os"
	"path/filepath"
	"reflect"
	"sheetMerge/internal/config"
	"sheetMerge/internal/mapping"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path string, sheets ...string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheets[0] != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheets[0]); err != nil {
			t.Fatalf("Failed to rename sheet: %v", err)
		}
	}
	for _, name := range sheets[1:] {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("Failed to add sheet: %v", err)
		}
	}
	for _, name := range sheets {
		f.SetCellValue(name, "A1", name)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save %s: %v", path, err)
	}
}

func TestRunMerge(t *testing.T) {
	dir := t.TempDir()
	cfg = config.Default()

	templatePath := filepath.Join(dir, "template.xlsm")
	dataPath := filepath.Join(dir, "statement.xlsx")
	outputPath := filepath.Join(dir, "out", "merged_excel.xlsm")
	writeWorkbook(t, templatePath, "Cover", "Totals")
	writeWorkbook(t, dataPath, "April", "May", "June")

	if err := runMerge(templatePath, dataPath, outputPath, false); err != nil {
		t.Fatalf("runMerge failed: %v", err)
	}

	out, err := excelize.OpenFile(outputPath)
	if err != nil {
		t.Fatalf("Failed to open output: %v", err)
	}
	defer out.Close()

	expected := []string{"Cover", "Totals", "Sheet1", "Sheet2", "Sheet3"}
	if got := out.GetSheetList(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Sheets = %v, expected %v", got, expected)
	}
	if v, _ := out.GetCellValue("Sheet3", "A1"); v != "June" {
		t.Errorf("Expected Sheet3!A1 = June, got %q", v)
	}

	report, err := mapping.LoadFromFile(mapping.ReportPath(outputPath))
	if err != nil {
		t.Fatalf("Expected mapping report: %v", err)
	}
	if target, ok := report.TargetFor("May"); !ok || target != "Sheet2" {
		t.Errorf("Expected May -> Sheet2, got %q", target)
	}
}

func TestRunMergeAllSkipsTemplateAndCountsFailures(t *testing.T) {
	dir := t.TempDir()
	cfg = config.Default()
	cfg.Output.WriteReport = false

	inputDir := filepath.Join(dir, "input")
	outputDir := filepath.Join(dir, "output")
	if err := os.MkdirAll(inputDir, 0755); err != nil {
		t.Fatalf("Failed to create input dir: %v", err)
	}

	templatePath := filepath.Join(inputDir, "template.xlsm")
	writeWorkbook(t, templatePath, "Cover", "Totals")
	writeWorkbook(t, filepath.Join(inputDir, "a.xlsx"), "One")
	writeWorkbook(t, filepath.Join(inputDir, "b.xlsx"), "Two", "Three")
	if err := os.WriteFile(filepath.Join(inputDir, "broken.xlsx"), []byte("garbage"), 0644); err != nil {
		t.Fatalf("Failed to write broken file: %v", err)
	}

	err := runMergeAll(templatePath, inputDir, outputDir)
	if err == nil {
		t.Fatal("Expected an error reporting the broken workbook")
	}

	for _, name := range []string{"a_merged.xlsm", "b_merged.xlsm"} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Errorf("Expected %s to be written: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outputDir, "template_merged.xlsm")); err == nil {
		t.Error("Template must not be merged into itself")
	}
	if _, err := os.Stat(filepath.Join(outputDir, "a_merged_mapping.json")); err == nil {
		t.Error("Report written although write_report is false")
	}
}

func TestRunMergeAllKeepsSameNamedWorkbooksApart(t *testing.T) {
	dir := t.TempDir()
	cfg = config.Default()
	cfg.Output.WriteReport = false

	inputDir := filepath.Join(dir, "input")
	outputDir := filepath.Join(dir, "output")
	if err := os.MkdirAll(filepath.Join(inputDir, "sub"), 0755); err != nil {
		t.Fatalf("Failed to create input dirs: %v", err)
	}

	templatePath := filepath.Join(dir, "template.xlsm")
	writeWorkbook(t, templatePath, "Cover", "Totals")
	// Sorted order: march.xlsm, march.xlsx, sub/march.xlsx.
	writeWorkbook(t, filepath.Join(inputDir, "march.xlsx"), "One")
	writeWorkbook(t, filepath.Join(inputDir, "march.xlsm"), "One", "Two")
	writeWorkbook(t, filepath.Join(inputDir, "sub", "march.xlsx"), "One", "Two", "Three")

	if err := runMergeAll(templatePath, inputDir, outputDir); err != nil {
		t.Fatalf("runMergeAll failed: %v", err)
	}

	expected := map[string]int{
		filepath.Join(outputDir, "march_merged.xlsm"):        2,
		filepath.Join(outputDir, "march_xlsx_merged.xlsm"):   1,
		filepath.Join(outputDir, "sub", "march_merged.xlsm"): 3,
	}
	for path, added := range expected {
		out, err := excelize.OpenFile(path)
		if err != nil {
			t.Errorf("Expected %s to be written: %v", path, err)
			continue
		}
		if got := len(out.GetSheetList()); got != 2+added {
			t.Errorf("%s: %d sheets, expected %d", path, got, 2+added)
		}
		out.Close()
	}
}

func TestBatchOutputPath(t *testing.T) {
	produced := make(map[string]bool)
	in := filepath.Join("in")
	out := filepath.Join("out")

	tests := []struct {
		data     string
		expected string
	}{
		{filepath.Join(in, "a.xlsx"), filepath.Join(out, "a_merged.xlsm")},
		{filepath.Join(in, "A.xlsm"), filepath.Join(out, "A_xlsm_merged.xlsm")},
		{filepath.Join(in, "a.XLSM"), filepath.Join(out, "a_merged_2.xlsm")},
		{filepath.Join(in, "sub", "a.xlsx"), filepath.Join(out, "sub", "a_merged.xlsm")},
		{filepath.Join("elsewhere", "b.xlsx"), filepath.Join(out, "b_merged.xlsm")},
	}
	for _, tt := range tests {
		if got := batchOutputPath(in, out, tt.data, produced); got != tt.expected {
			t.Errorf("batchOutputPath(%s) = %s, expected %s", tt.data, got, tt.expected)
		}
	}
}

func TestWithoutPath(t *testing.T) {
	files := []string{"in/a.xlsx", "in/template.xlsm", "in/b.xlsx"}
	got := withoutPath(files, "in/template.xlsm")
	expected := []string{"in/a.xlsx", "in/b.xlsx"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("withoutPath = %v, expected %v", got, expected)
	}
}

func TestMergeOptions(t *testing.T) {
	c := config.Default()
	c.Merge.SheetPrefix = "Data"
	c.TemplatePassword = "pw"

	opts := mergeOptions(c)
	if opts.SheetPrefix != "Data" || opts.MinTemplateSheets != 2 || opts.StartIndex != 1 || opts.TemplatePassword != "pw" {
		t.Errorf("Unexpected options: %+v", opts)
	}
}
