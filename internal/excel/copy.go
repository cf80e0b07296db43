package excel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// CopyStats counts what a sheet copy transferred.
type CopyStats struct {
	Cells        int
	StyledCells  int
	Columns      int
	Rows         int
	MergedRanges int
}

// sheetCopier copies sheets from one workbook into another. Style ids are
// per workbook, so every source style is registered once in the target and
// the translation is cached for the lifetime of the copier.
type sheetCopier struct {
	src    *excelize.File
	dst    *excelize.File
	styles map[int]int
}

func newSheetCopier(src, dst *excelize.File) *sheetCopier {
	return &sheetCopier{
		src:    src,
		dst:    dst,
		styles: make(map[int]int),
	}
}

// copySheet copies dimensions, cells and merged ranges of srcSheet into the
// already existing dstSheet.
func (c *sheetCopier) copySheet(srcSheet, dstSheet string) (CopyStats, error) {
	var stats CopyStats

	merges, err := c.src.GetMergeCells(srcSheet)
	if err != nil {
		return stats, fmt.Errorf("failed to read merged cells: %w", err)
	}
	ranges, err := parseMergeRanges(merges)
	if err != nil {
		return stats, err
	}

	// Merged ranges do not widen the scan.
	maxCol, maxRow, err := dataBounds(c.src, srcSheet)
	if err != nil {
		return stats, err
	}

	if stats.Columns, err = c.copyColumns(srcSheet, dstSheet, maxCol); err != nil {
		return stats, err
	}
	if stats.Rows, err = c.copyRows(srcSheet, dstSheet, maxRow); err != nil {
		return stats, err
	}

	copyAt := func(col, row int) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		copied, styled, err := c.copyCell(srcSheet, dstSheet, cell)
		if err != nil {
			return fmt.Errorf("failed to copy cell %s: %w", cell, err)
		}
		if copied {
			stats.Cells++
		}
		if styled {
			stats.StyledCells++
		}
		return nil
	}

	for row := 1; row <= maxRow; row++ {
		for col := 1; col <= maxCol; col++ {
			if isCovered(ranges, col, row) {
				continue
			}
			if err := copyAt(col, row); err != nil {
				return stats, err
			}
		}
	}

	for _, r := range ranges {
		if r.startCol > maxCol || r.startRow > maxRow {
			if err := copyAt(r.startCol, r.startRow); err != nil {
				return stats, err
			}
		}
	}

	for _, mc := range merges {
		if err := c.dst.MergeCell(dstSheet, mc.GetStartAxis(), mc.GetEndAxis()); err != nil {
			return stats, fmt.Errorf("failed to merge %s:%s: %w", mc.GetStartAxis(), mc.GetEndAxis(), err)
		}
		stats.MergedRanges++
	}

	return stats, nil
}

// copyColumns copies widths that differ from the default and hidden flags.
func (c *sheetCopier) copyColumns(srcSheet, dstSheet string, maxCol int) (int, error) {
	defaultWidth, err := c.dst.GetColWidth(dstSheet, "A")
	if err != nil {
		return 0, fmt.Errorf("failed to read default column width: %w", err)
	}

	copied := 0
	for col := 1; col <= maxCol; col++ {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return copied, err
		}

		width, err := c.src.GetColWidth(srcSheet, name)
		if err != nil {
			return copied, fmt.Errorf("failed to read width of column %s: %w", name, err)
		}
		changed := false
		if width != defaultWidth {
			if err := c.dst.SetColWidth(dstSheet, name, name, width); err != nil {
				return copied, fmt.Errorf("failed to set width of column %s: %w", name, err)
			}
			changed = true
		}

		visible, err := c.src.GetColVisible(srcSheet, name)
		if err != nil {
			return copied, fmt.Errorf("failed to read visibility of column %s: %w", name, err)
		}
		if !visible {
			if err := c.dst.SetColVisible(dstSheet, name, false); err != nil {
				return copied, fmt.Errorf("failed to hide column %s: %w", name, err)
			}
			changed = true
		}

		if changed {
			copied++
		}
	}
	return copied, nil
}

// copyRows copies heights that differ from the default and hidden flags.
func (c *sheetCopier) copyRows(srcSheet, dstSheet string, maxRow int) (int, error) {
	defaultHeight, err := c.dst.GetRowHeight(dstSheet, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to read default row height: %w", err)
	}

	copied := 0
	for row := 1; row <= maxRow; row++ {
		height, err := c.src.GetRowHeight(srcSheet, row)
		if err != nil {
			return copied, fmt.Errorf("failed to read height of row %d: %w", row, err)
		}
		changed := false
		if height != defaultHeight {
			if err := c.dst.SetRowHeight(dstSheet, row, height); err != nil {
				return copied, fmt.Errorf("failed to set height of row %d: %w", row, err)
			}
			changed = true
		}

		visible, err := c.src.GetRowVisible(srcSheet, row)
		if err != nil {
			return copied, fmt.Errorf("failed to read visibility of row %d: %w", row, err)
		}
		if !visible {
			if err := c.dst.SetRowVisible(dstSheet, row, false); err != nil {
				return copied, fmt.Errorf("failed to hide row %d: %w", row, err)
			}
			changed = true
		}

		if changed {
			copied++
		}
	}
	return copied, nil
}

// copyCell copies the value and style of one cell. Empty cells without a
// style are left alone.
func (c *sheetCopier) copyCell(srcSheet, dstSheet, cell string) (copied, styled bool, err error) {
	styleID, err := c.src.GetCellStyle(srcSheet, cell)
	if err != nil {
		return false, false, err
	}

	formula, err := c.src.GetCellFormula(srcSheet, cell)
	if err != nil {
		return false, false, err
	}

	raw, err := c.src.GetCellValue(srcSheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return false, false, err
	}

	if formula == "" && raw == "" && styleID == 0 {
		return false, false, nil
	}

	if formula != "" {
		if err := c.dst.SetCellFormula(dstSheet, cell, formula); err != nil {
			return false, false, err
		}
	} else if raw != "" {
		cellType, err := c.src.GetCellType(srcSheet, cell)
		if err != nil {
			return false, false, err
		}
		if err := setTypedValue(c.dst, dstSheet, cell, cellType, raw); err != nil {
			return false, false, err
		}
	}

	if styleID != 0 {
		dstStyle, err := c.translateStyle(styleID)
		if err != nil {
			return false, false, err
		}
		if err := c.dst.SetCellStyle(dstSheet, cell, cell, dstStyle); err != nil {
			return false, false, err
		}
		styled = true
	}

	return true, styled, nil
}

// translateStyle registers the source style (font, border, fill, number
// format, protection, alignment) in the target workbook.
func (c *sheetCopier) translateStyle(styleID int) (int, error) {
	if id, ok := c.styles[styleID]; ok {
		return id, nil
	}

	style, err := c.src.GetStyle(styleID)
	if err != nil {
		return 0, fmt.Errorf("failed to read style %d: %w", styleID, err)
	}

	id, err := c.dst.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("failed to create style from %d: %w", styleID, err)
	}

	c.styles[styleID] = id
	return id, nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// setTypedValue writes a raw cell value keeping its source cell type.
func setTypedValue(f *excelize.File, sheet, cell string, cellType excelize.CellType, raw string) error {
	switch cellType {
	case excelize.CellTypeBool:
		return f.SetCellBool(sheet, cell, raw == "1" || strings.EqualFold(raw, "TRUE"))
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return f.SetCellFloat(sheet, cell, v, -1, 64)
		}
		return f.SetCellStr(sheet, cell, raw)
	case excelize.CellTypeDate:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return f.SetCellValue(sheet, cell, t)
			}
		}
		return f.SetCellStr(sheet, cell, raw)
	default:
		return f.SetCellStr(sheet, cell, raw)
	}
}

// dataBounds returns the last used column and row from the cell data and
// the stored dimension.
func dataBounds(f *excelize.File, sheet string) (int, int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read rows: %w", err)
	}

	maxRow := len(rows)
	maxCol := 0
	for _, row := range rows {
		if len(row) > maxCol {
			maxCol = len(row)
		}
	}

	if dimension, err := f.GetSheetDimension(sheet); err == nil && dimension != "" {
		parts := strings.Split(dimension, ":")
		if col, row, err := excelize.CellNameToCoordinates(parts[len(parts)-1]); err == nil {
			maxCol = max(maxCol, col)
			maxRow = max(maxRow, row)
		}
	}

	return maxCol, maxRow, nil
}

// sheetBounds is dataBounds widened to the end of every merged range.
func sheetBounds(f *excelize.File, sheet string, merges []excelize.MergeCell) (int, int, error) {
	maxCol, maxRow, err := dataBounds(f, sheet)
	if err != nil {
		return 0, 0, err
	}

	ranges, err := parseMergeRanges(merges)
	if err != nil {
		return 0, 0, err
	}
	for _, r := range ranges {
		maxCol = max(maxCol, r.endCol)
		maxRow = max(maxRow, r.endRow)
	}

	return maxCol, maxRow, nil
}

type cellRange struct {
	startCol, startRow int
	endCol, endRow     int
}

// covers reports whether the cell lies under the range. The top-left cell
// keeps its content and is not covered.
func (r cellRange) covers(col, row int) bool {
	if col == r.startCol && row == r.startRow {
		return false
	}
	return col >= r.startCol && col <= r.endCol && row >= r.startRow && row <= r.endRow
}

func parseMergeRanges(merges []excelize.MergeCell) ([]cellRange, error) {
	ranges := make([]cellRange, 0, len(merges))
	for _, mc := range merges {
		startCol, startRow, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			return nil, fmt.Errorf("invalid merged range start %s: %w", mc.GetStartAxis(), err)
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			return nil, fmt.Errorf("invalid merged range end %s: %w", mc.GetEndAxis(), err)
		}
		ranges = append(ranges, cellRange{
			startCol: startCol,
			startRow: startRow,
			endCol:   endCol,
			endRow:   endRow,
		})
	}
	return ranges, nil
}

func isCovered(ranges []cellRange, col, row int) bool {
	for _, r := range ranges {
		if r.covers(col, row) {
			return true
		}
	}
	return false
}
