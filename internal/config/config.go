package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sheetMerge/internal/logger"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	EnvConfigPath       = "SHEETMERGE_CONFIG"
	EnvTemplatePassword = "SHEETMERGE_TEMPLATE_PASSWORD"
	EnvDataPassword     = "SHEETMERGE_DATA_PASSWORD"
	EnvLogLevel         = "SHEETMERGE_LOG_LEVEL"

	DefaultConfigPath = "configs/config.toml"
)

type Config struct {
	Merge  MergeConfig  `toml:"merge"`
	Output OutputConfig `toml:"output"`
	Batch  BatchConfig  `toml:"batch"`
	UI     UIConfig     `toml:"ui"`
	Log    LogConfig    `toml:"log"`

	// Secrets come from the environment only and are never written back.
	TemplatePassword string `toml:"-"`
	DataPassword     string `toml:"-"`
}

type MergeConfig struct {
	MinTemplateSheets int    `toml:"min_template_sheets"`
	SheetPrefix       string `toml:"sheet_prefix"`
	StartIndex        int    `toml:"start_index"`
}

type OutputConfig struct {
	Directory   string `toml:"directory"`
	FileName    string `toml:"file_name"`
	WriteReport bool   `toml:"write_report"`
}

type BatchConfig struct {
	InputDirectory string `toml:"input_directory"`
}

type UIConfig struct {
	Confirm bool `toml:"confirm"`
}

type LogConfig struct {
	Directory string `toml:"directory"`
	Level     string `toml:"level"`
}

// Default returns the configuration written when no config file exists.
func Default() *Config {
	return &Config{
		Merge: MergeConfig{
			MinTemplateSheets: 2,
			SheetPrefix:       "Sheet",
			StartIndex:        1,
		},
		Output: OutputConfig{
			Directory:   "data/output",
			FileName:    "merged_excel.xlsm",
			WriteReport: true,
		},
		Batch: BatchConfig{
			InputDirectory: "data/input",
		},
		UI: UIConfig{
			Confirm: false,
		},
		Log: LogConfig{
			Directory: "logs",
			Level:     "info",
		},
	}
}

// LoadConfig loads configuration from the specified config file path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configDir := filepath.Dir(configPath)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		defaultConfig := Default()
		if err := SaveConfig(configPath, defaultConfig); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		logger.Info("Created default config file", "path", configPath)
		applyEnv(defaultConfig)
		return defaultConfig, nil
	}

	var config Config
	meta, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	fillDefaults(&config)
	if !meta.IsDefined("output", "write_report") {
		config.Output.WriteReport = true
	}
	applyEnv(&config)

	logger.Info("Loaded configuration", "path", configPath)
	return &config, nil
}

func fillDefaults(config *Config) {
	defaults := Default()

	if config.Merge.MinTemplateSheets == 0 {
		config.Merge.MinTemplateSheets = defaults.Merge.MinTemplateSheets
	}
	if config.Merge.SheetPrefix == "" {
		config.Merge.SheetPrefix = defaults.Merge.SheetPrefix
	}
	if config.Merge.StartIndex == 0 {
		config.Merge.StartIndex = defaults.Merge.StartIndex
	}
	if config.Output.Directory == "" {
		config.Output.Directory = defaults.Output.Directory
	}
	if config.Output.FileName == "" {
		config.Output.FileName = defaults.Output.FileName
	}
	if config.Batch.InputDirectory == "" {
		config.Batch.InputDirectory = defaults.Batch.InputDirectory
	}
	if config.Log.Directory == "" {
		config.Log.Directory = defaults.Log.Directory
	}
	if config.Log.Level == "" {
		config.Log.Level = defaults.Log.Level
	}
}

func applyEnv(config *Config) {
	if v := os.Getenv(EnvTemplatePassword); v != "" {
		config.TemplatePassword = v
	}
	if v := os.Getenv(EnvDataPassword); v != "" {
		config.DataPassword = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.Log.Level = v
	}
}

// SaveConfig saves configuration to the specified config file path
func SaveConfig(configPath string, config *Config) error {
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	logger.Info("Saved configuration", "path", configPath)
	return nil
}

// LoadEnv reads KEY=VALUE pairs from a dotenv file into the process
// environment. A missing file is not an error; variables already set win.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	logger.Debug("Loaded env file", "path", path)
	return nil
}

// ResolvePath picks the config path: an explicit flag value first, then
// SHEETMERGE_CONFIG, then the default location.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(EnvConfigPath); v != "" {
		return v
	}
	return DefaultConfigPath
}
