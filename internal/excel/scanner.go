package excel

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SheetInfo summarizes one sheet of an inspected workbook.
type SheetInfo struct {
	Name         string
	Columns      int
	Rows         int
	MergedRanges int
}

// WorkbookInfo summarizes an inspected workbook.
type WorkbookInfo struct {
	Name      string
	HasMacros bool
	Sheets    []SheetInfo
}

// FindWorkbooks returns all .xlsx and .xlsm files under dir, sorted by path.
// Office lock files (~$name.xlsx) are skipped.
func FindWorkbooks(dir string) ([]string, error) {
	var workbooks []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), "~$") {
			return nil
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".xlsx", ".xlsm":
			workbooks = append(workbooks, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.Strings(workbooks)
	return workbooks, nil
}

// Inspect opens the workbook at path and reports its sheets.
func Inspect(path, password string) (*WorkbookInfo, error) {
	wb, err := OpenWorkbook(path, password)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	return wb.Inspect()
}

// Inspect reports the used range and merged ranges of every sheet.
func (w *Workbook) Inspect() (*WorkbookInfo, error) {
	info := &WorkbookInfo{
		Name:      w.name,
		HasMacros: w.HasMacros(),
	}

	for _, sheet := range w.GetSheetNames() {
		merges, err := w.file.GetMergeCells(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read merged cells of %s: %w", sheet, err)
		}

		cols, rows, err := sheetBounds(w.file, sheet, merges)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}

		info.Sheets = append(info.Sheets, SheetInfo{
			Name:         sheet,
			Columns:      cols,
			Rows:         rows,
			MergedRanges: len(merges),
		})
	}

	return info, nil
}
