package excel

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const vbaProjectPart = "xl/vbaProject.bin"

// MacroExtension is the extension every merged workbook is written with.
const MacroExtension = ".xlsm"

var readableExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// Workbook wraps an excelize file together with the name it was read from.
type Workbook struct {
	file *excelize.File
	name string
}

// OpenWorkbook opens an existing workbook from disk
func OpenWorkbook(path, password string) (*Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ReadWorkbook(f, filepath.Base(path), password)
}

// ReadWorkbook reads a workbook from r. The name is used for format checks
// and messages only; an empty name skips the extension check.
func ReadWorkbook(r io.Reader, name, password string) (*Workbook, error) {
	if name != "" {
		ext := strings.ToLower(filepath.Ext(name))
		if ext != "" && !readableExtensions[ext] {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
		}
	}

	file, err := excelize.OpenReader(r, excelize.Options{Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	return &Workbook{
		file: file,
		name: name,
	}, nil
}

// Name returns the name the workbook was read from
func (w *Workbook) Name() string {
	return w.name
}

// GetSheetNames returns all sheet names in workbook order
func (w *Workbook) GetSheetNames() []string {
	return w.file.GetSheetList()
}

// HasMacros reports whether the workbook carries a VBA project part.
func (w *Workbook) HasMacros() bool {
	_, ok := w.file.Pkg.Load(vbaProjectPart)
	return ok
}

// AddSheet appends a new empty sheet
func (w *Workbook) AddSheet(sheetName string) error {
	_, err := w.file.NewSheet(sheetName)
	return err
}

// WriteMacroWorkbook writes the workbook to out as a macro-enabled workbook
// named name.
func (w *Workbook) WriteMacroWorkbook(out io.Writer, name string) error {
	outputName, err := MacroOutputName(name)
	if err != nil {
		return err
	}

	// excelize picks the workbook content type from the path extension.
	w.file.Path = outputName
	if err := w.file.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Bytes renders the workbook into memory.
func (w *Workbook) Bytes(name string) ([]byte, error) {
	var buf bytes.Buffer
	if err := w.WriteMacroWorkbook(&buf, name); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveAs saves the workbook to path, creating parent directories.
func (w *Workbook) SaveAs(path string) (string, error) {
	outputPath, err := MacroOutputName(path)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := w.file.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return outputPath, nil
}

// Close closes the workbook
func (w *Workbook) Close() error {
	return w.file.Close()
}

// MacroOutputName validates an output name. Names without an extension get
// .xlsm appended; anything other than .xlsm is rejected.
func MacroOutputName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: empty output name", ErrOutputFormat)
	}

	ext := filepath.Ext(name)
	switch {
	case ext == "":
		return name + MacroExtension, nil
	case strings.EqualFold(ext, MacroExtension):
		return strings.TrimSuffix(name, ext) + MacroExtension, nil
	default:
		return "", fmt.Errorf("%w: got %s", ErrOutputFormat, ext)
	}
}
