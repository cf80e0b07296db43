package excel

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sheetMerge/internal/logger"
)

// Options controls template validation and generated sheet names.
type Options struct {
	MinTemplateSheets int
	SheetPrefix       string
	StartIndex        int
	TemplatePassword  string
	DataPassword      string
}

// DefaultOptions keeps at least two template sheets and names appended
// sheets Sheet1, Sheet2, ...
func DefaultOptions() Options {
	return Options{
		MinTemplateSheets: 2,
		SheetPrefix:       "Sheet",
		StartIndex:        1,
	}
}

// Result describes a finished merge.
type Result struct {
	TemplateSheets  []string
	Assignments     []SheetAssignment
	FinalSheetCount int
	HasMacros       bool
	Stats           CopyStats
}

// AddedSheets returns the number of sheets appended from the data workbook.
func (r *Result) AddedSheets() int {
	return len(r.Assignments)
}

// LoadTemplate reads the template workbook and checks it has at least
// minSheets sheets.
func LoadTemplate(r io.Reader, name string, minSheets int, password string) (*Workbook, error) {
	wb, err := ReadWorkbook(r, name, password)
	if err != nil {
		return nil, newMergeError(StageLoadTemplate, name, err)
	}

	sheets := wb.GetSheetNames()
	if len(sheets) < minSheets {
		wb.Close()
		return nil, newMergeError(StageLoadTemplate, name,
			fmt.Errorf("%w: need at least %d, found %d", ErrTooFewSheets, minSheets, len(sheets)))
	}

	logger.Info("Loaded template workbook", "file", name, "sheets", len(sheets), "macros", wb.HasMacros())
	return wb, nil
}

// LoadData reads the workbook whose sheets get appended to the template.
func LoadData(r io.Reader, name, password string) (*Workbook, error) {
	wb, err := ReadWorkbook(r, name, password)
	if err != nil {
		return nil, newMergeError(StageLoadData, name, err)
	}

	logger.Info("Loaded data workbook", "file", name, "sheets", len(wb.GetSheetNames()))
	return wb, nil
}

// Plan computes the names the data sheets receive in the template.
func Plan(template, data *Workbook, opts Options) []SheetAssignment {
	return PlanSheetNames(template.GetSheetNames(), data.GetSheetNames(), opts.SheetPrefix, opts.StartIndex)
}

// Merge appends the data sheets to the template following plan. The
// template workbook is modified in place. A target that names an existing
// sheet fails with ErrSheetExists.
func Merge(template, data *Workbook, plan []SheetAssignment) (*Result, error) {
	result := &Result{
		TemplateSheets: template.GetSheetNames(),
		Assignments:    plan,
	}

	logger.Info("Merging workbooks",
		"template", template.Name(),
		"data", data.Name(),
		"template_sheets", len(result.TemplateSheets),
		"data_sheets", len(plan))

	copier := newSheetCopier(data.file, template.file)
	for i, a := range plan {
		logger.Debug("Copying sheet", "progress", fmt.Sprintf("%d/%d", i+1, len(plan)), "source", a.Source, "target", a.Target)

		// NewSheet hands back an existing sheet instead of failing.
		if idx, err := template.file.GetSheetIndex(a.Target); err != nil || idx != -1 {
			if err == nil {
				err = fmt.Errorf("%w: %s", ErrSheetExists, a.Target)
			}
			return nil, newMergeError(StageMerge, data.Name(), err)
		}
		if err := template.AddSheet(a.Target); err != nil {
			return nil, newMergeError(StageMerge, data.Name(), fmt.Errorf("failed to create sheet %s: %w", a.Target, err))
		}

		stats, err := copier.copySheet(a.Source, a.Target)
		if err != nil {
			return nil, newMergeError(StageMerge, data.Name(), fmt.Errorf("sheet %s: %w", a.Source, err))
		}

		result.Stats.Cells += stats.Cells
		result.Stats.StyledCells += stats.StyledCells
		result.Stats.Columns += stats.Columns
		result.Stats.Rows += stats.Rows
		result.Stats.MergedRanges += stats.MergedRanges

		logger.Info("Copied sheet",
			"source", a.Source,
			"target", a.Target,
			"cells", stats.Cells,
			"merged_ranges", stats.MergedRanges)
	}

	result.FinalSheetCount = len(template.GetSheetNames())
	result.HasMacros = template.HasMacros()

	logger.Info("Merge completed",
		"added_sheets", result.AddedSheets(),
		"final_sheets", result.FinalSheetCount)
	return result, nil
}

// Job is a loaded template/data pair with its sheet plan, ready to run.
type Job struct {
	Template *Workbook
	Data     *Workbook
	Plan     []SheetAssignment
}

// Run merges the job's data workbook into its template.
func (j *Job) Run() (*Result, error) {
	return Merge(j.Template, j.Data, j.Plan)
}

// Save writes the merged template to path and returns the final path.
func (j *Job) Save(path string) (string, error) {
	outputPath, err := j.Template.SaveAs(path)
	if err != nil {
		return "", newMergeError(StageSave, path, err)
	}
	logger.Info("Saved merged workbook", "path", outputPath)
	return outputPath, nil
}

// Close releases both workbooks.
func (j *Job) Close() error {
	dataErr := j.Data.Close()
	if err := j.Template.Close(); err != nil {
		return err
	}
	return dataErr
}

// Merger merges one template against any number of data workbooks. The
// template is kept as raw bytes because every merge modifies it.
type Merger struct {
	template     []byte
	templateName string
	opts         Options
}

// NewMerger reads and validates the template at templatePath.
func NewMerger(templatePath string, opts Options) (*Merger, error) {
	if err := validateInputFiles(templatePath); err != nil {
		return nil, newMergeError(StageLoadTemplate, templatePath, err)
	}

	data, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, newMergeError(StageLoadTemplate, templatePath, err)
	}

	return NewMergerFromBytes(data, filepath.Base(templatePath), opts)
}

// NewMergerFromBytes validates template content that is already in memory.
func NewMergerFromBytes(template []byte, name string, opts Options) (*Merger, error) {
	m := &Merger{
		template:     template,
		templateName: name,
		opts:         opts,
	}

	wb, err := m.loadTemplate()
	if err != nil {
		return nil, err
	}
	if !wb.HasMacros() {
		logger.Warn("Template has no VBA project, merged workbook will carry no macros", "file", name)
	}
	wb.Close()

	return m, nil
}

func (m *Merger) loadTemplate() (*Workbook, error) {
	return LoadTemplate(bytes.NewReader(m.template), m.templateName, m.opts.MinTemplateSheets, m.opts.TemplatePassword)
}

// Prepare loads a fresh template copy and the data workbook at dataPath and
// plans the sheet names. The caller must Close the returned job.
func (m *Merger) Prepare(dataPath string) (*Job, error) {
	if err := validateInputFiles(dataPath); err != nil {
		return nil, newMergeError(StageLoadData, dataPath, err)
	}

	f, err := os.Open(dataPath)
	if err != nil {
		return nil, newMergeError(StageLoadData, dataPath, err)
	}
	defer f.Close()

	return m.PrepareReader(f, filepath.Base(dataPath))
}

// PrepareReader is Prepare for a data workbook read from r.
func (m *Merger) PrepareReader(r io.Reader, name string) (*Job, error) {
	template, err := m.loadTemplate()
	if err != nil {
		return nil, err
	}

	data, err := LoadData(r, name, m.opts.DataPassword)
	if err != nil {
		template.Close()
		return nil, err
	}

	return &Job{
		Template: template,
		Data:     data,
		Plan:     Plan(template, data, m.opts),
	}, nil
}

// MergeFile merges the data workbook at dataPath and saves the result to
// outputPath.
func (m *Merger) MergeFile(dataPath, outputPath string) (*Result, string, error) {
	job, err := m.Prepare(dataPath)
	if err != nil {
		return nil, "", err
	}
	defer job.Close()

	result, err := job.Run()
	if err != nil {
		return nil, "", err
	}

	savedPath, err := job.Save(outputPath)
	if err != nil {
		return nil, "", err
	}
	return result, savedPath, nil
}

// MergeFiles merges dataPath into templatePath and writes outputPath.
func MergeFiles(templatePath, dataPath, outputPath string, opts Options) (*Result, string, error) {
	m, err := NewMerger(templatePath, opts)
	if err != nil {
		return nil, "", err
	}
	return m.MergeFile(dataPath, outputPath)
}

// validateInputFiles validates that all required input files exist
func validateInputFiles(paths ...string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			return fmt.Errorf("input file not found: %s", path)
		}
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("input path is a directory: %s", path)
		}
	}
	return nil
}
