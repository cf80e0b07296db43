package excel

import (
	"errors"
	"fmt"
)

// ErrTooFewSheets indicates the template does not carry the required sheets.
var ErrTooFewSheets = errors.New("template has too few sheets")

// ErrOutputFormat indicates the output name is not a macro-enabled workbook.
var ErrOutputFormat = errors.New("output must be a .xlsm workbook")

// ErrUnsupportedFormat indicates an input format excelize cannot read.
var ErrUnsupportedFormat = errors.New("unsupported workbook format")

// ErrSheetExists indicates a planned target sheet is already in the template.
var ErrSheetExists = errors.New("sheet already exists")

// Merge stages reported by MergeError.
const (
	StageLoadTemplate = "load template"
	StageLoadData     = "load data"
	StageMerge        = "merge"
	StageSave         = "save"
)

// MergeError records which step of a merge failed and for which file.
type MergeError struct {
	Stage string
	File  string
	Err   error
}

func (e *MergeError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s failed for %q: %v", e.Stage, e.File, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

func newMergeError(stage, file string, err error) *MergeError {
	return &MergeError{
		Stage: stage,
		File:  file,
		Err:   err,
	}
}
