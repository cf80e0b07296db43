package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sheetMerge/internal/config"
	"sheetMerge/internal/excel"
	"sheetMerge/internal/logger"
	"sheetMerge/internal/mapping"
	"strings"

	"github.com/spf13/cobra"
)

var (
	configPath string
	envPath    string

	cfg       *config.Config
	logCloser io.Closer
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		logger.Error("Command failed", "error", err)
		fmt.Printf("❌ %v\n", err)
	}
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetmerge",
		Short: "Append the sheets of a data workbook to a macro-enabled template",
		Long: `sheetmerge keeps every sheet of a template workbook (.xlsm) and appends
each sheet of a data workbook as Sheet1, Sheet2, ... with values, styles,
dimensions and merged cells copied. Macros in the template are preserved.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $SHEETMERGE_CONFIG or configs/config.toml)")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", ".env", "Env file with workbook passwords")

	rootCmd.AddCommand(newMergeCmd(), newMergeAllCmd(), newInspectCmd())
	return rootCmd
}

func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnv(envPath); err != nil {
		return err
	}

	loaded, err := config.LoadConfig(config.ResolvePath(configPath))
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	cfg = loaded

	closer, err := logger.Init(cfg.Log.Directory, cfg.Log.Level)
	if err != nil {
		return err
	}
	logCloser = closer
	return nil
}

func mergeOptions(cfg *config.Config) excel.Options {
	return excel.Options{
		MinTemplateSheets: cfg.Merge.MinTemplateSheets,
		SheetPrefix:       cfg.Merge.SheetPrefix,
		StartIndex:        cfg.Merge.StartIndex,
		TemplatePassword:  cfg.TemplatePassword,
		DataPassword:      cfg.DataPassword,
	}
}

func newMergeCmd() *cobra.Command {
	var (
		templatePath string
		dataPath     string
		outputPath   string
		confirm      bool
	)

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge one data workbook into the template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				outputPath = filepath.Join(cfg.Output.Directory, cfg.Output.FileName)
			}
			if !cmd.Flags().Changed("confirm") {
				confirm = cfg.UI.Confirm
			}
			return runMerge(templatePath, dataPath, outputPath, confirm)
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "Template workbook (.xlsm)")
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "Data workbook whose sheets are appended")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output workbook (default: output directory + file name from config)")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Review the sheet names before merging")
	cmd.MarkFlagRequired("template")
	cmd.MarkFlagRequired("data")
	return cmd
}

func runMerge(templatePath, dataPath, outputPath string, confirm bool) error {
	logger.Info("Starting merge operation", "template", templatePath, "data", dataPath, "output", outputPath)

	merger, err := excel.NewMerger(templatePath, mergeOptions(cfg))
	if err != nil {
		return err
	}

	job, err := merger.Prepare(dataPath)
	if err != nil {
		return err
	}
	defer job.Close()

	if confirm {
		ok, err := mapping.RunReview(filepath.Base(dataPath), job.Template.GetSheetNames(), job.Plan)
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("Merge cancelled by user")
			fmt.Println("Merge cancelled, nothing written.")
			return nil
		}
	}

	fmt.Printf("Template sheets (kept): %s\n", strings.Join(job.Template.GetSheetNames(), ", "))

	result, err := job.Run()
	if err != nil {
		return err
	}

	savedPath, err := job.Save(outputPath)
	if err != nil {
		return err
	}

	if err := writeReport(templatePath, dataPath, savedPath, result); err != nil {
		return err
	}

	fmt.Println("✓ Merge completed")
	fmt.Println(mapping.RenderSummary(result, savedPath))
	return nil
}

func writeReport(templatePath, dataPath, savedPath string, result *excel.Result) error {
	if !cfg.Output.WriteReport {
		return nil
	}

	report := mapping.NewReport(templatePath, dataPath, savedPath, result)
	reportPath := mapping.ReportPath(savedPath)
	if err := report.SaveToFile(reportPath); err != nil {
		return err
	}
	logger.Info("Saved mapping report", "path", reportPath)
	return nil
}

func newMergeAllCmd() *cobra.Command {
	var (
		templatePath string
		inputDir     string
		outputDir    string
	)

	cmd := &cobra.Command{
		Use:   "merge-all",
		Short: "Merge every workbook in a directory into the template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputDir == "" {
				inputDir = cfg.Batch.InputDirectory
			}
			if outputDir == "" {
				outputDir = cfg.Output.Directory
			}
			return runMergeAll(templatePath, inputDir, outputDir)
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "Template workbook (.xlsm)")
	cmd.Flags().StringVar(&inputDir, "input-dir", "", "Directory with data workbooks (default from config)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for merged workbooks (default from config)")
	cmd.MarkFlagRequired("template")
	return cmd
}

func runMergeAll(templatePath, inputDir, outputDir string) error {
	logger.Info("Starting merge-all operation", "template", templatePath, "input_directory", inputDir)

	merger, err := excel.NewMerger(templatePath, mergeOptions(cfg))
	if err != nil {
		return err
	}

	files, err := excel.FindWorkbooks(inputDir)
	if err != nil {
		return err
	}
	files = withoutPath(files, templatePath)

	if len(files) == 0 {
		fmt.Printf("No .xlsx or .xlsm files found in directory: %s\n", inputDir)
		return nil
	}

	logger.Info("Found files to merge", "file_count", len(files))

	successCount := 0
	errorCount := 0
	produced := make(map[string]bool)

	for i, dataPath := range files {
		fileName := filepath.Base(dataPath)
		fmt.Printf("\n[%d/%d] Processing: %s\n", i+1, len(files), fileName)
		logger.Info("Processing file", "file", fileName, "progress", fmt.Sprintf("%d/%d", i+1, len(files)))

		outputPath := batchOutputPath(inputDir, outputDir, dataPath, produced)
		result, savedPath, err := merger.MergeFile(dataPath, outputPath)
		if err == nil {
			err = writeReport(templatePath, dataPath, savedPath, result)
		}

		if err != nil {
			logger.Error("Failed to merge file", "file", fileName, "error", err)
			fmt.Printf("❌ Error merging file: %v\n", err)
			errorCount++
			continue
		}

		logger.Info("Successfully merged file", "file", fileName, "output", savedPath)
		fmt.Printf("✓ %d sheets added -> %s\n", result.AddedSheets(), savedPath)
		successCount++
	}

	logger.Info("Merge-all operation completed",
		"success_count", successCount,
		"error_count", errorCount)

	fmt.Printf("\n========================================\n")
	fmt.Printf("Merging complete!\n")
	fmt.Printf("✓ Success: %d files\n", successCount)
	if errorCount > 0 {
		fmt.Printf("❌ Errors: %d files\n", errorCount)
	}
	fmt.Printf("Results saved to: %s\n", outputDir)

	if errorCount > 0 {
		return fmt.Errorf("%d of %d files failed", errorCount, len(files))
	}
	return nil
}

// batchOutputPath names the merged workbook for dataPath, mirroring its
// subdirectory under inputDir. Names already produced in this run get the
// source extension and then a counter appended, so no output is overwritten.
func batchOutputPath(inputDir, outputDir, dataPath string, produced map[string]bool) string {
	rel, err := filepath.Rel(inputDir, dataPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(dataPath)
	}
	ext := filepath.Ext(rel)
	base := filepath.Join(outputDir, strings.TrimSuffix(rel, ext))

	claim := func(name string) (string, bool) {
		path := name + excel.MacroExtension
		key := strings.ToLower(path)
		if produced[key] {
			return "", false
		}
		produced[key] = true
		return path, true
	}

	if path, ok := claim(base + "_merged"); ok {
		return path
	}
	if path, ok := claim(base + "_" + strings.ToLower(strings.TrimPrefix(ext, ".")) + "_merged"); ok {
		return path
	}
	for i := 2; ; i++ {
		if path, ok := claim(fmt.Sprintf("%s_merged_%d", base, i)); ok {
			return path
		}
	}
}

// withoutPath drops the template from the batch when it lives in the input
// directory.
func withoutPath(files []string, path string) []string {
	target, err := filepath.Abs(path)
	if err != nil {
		return files
	}

	kept := files[:0]
	for _, f := range files {
		if abs, err := filepath.Abs(f); err == nil && abs == target {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <workbook>",
		Short: "List the sheets, used ranges and merged cells of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0])
		},
	}
}

func runInspect(path string) error {
	logger.Info("Starting inspect operation", "file", path)

	info, err := excel.Inspect(path, cfg.DataPassword)
	if errors.Is(err, excel.ErrUnsupportedFormat) {
		return fmt.Errorf("%w (save the workbook as .xlsx or .xlsm first)", err)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s (macros: %t)\n", info.Name, info.HasMacros)
	for _, sheet := range info.Sheets {
		fmt.Printf("  - %s: %d columns x %d rows, %d merged ranges\n",
			sheet.Name, sheet.Columns, sheet.Rows, sheet.MergedRanges)
	}
	return nil
}
