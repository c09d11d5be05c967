// =============================================================================
// Fuel Invoice Extractor - Configuration Module
// =============================================================================
//
// This module loads the application configuration.
//
// SOURCES (later sources override earlier ones):
//   1. Built-in defaults
//   2. Main config file (config.yaml); a missing file is not an error
//   3. A .env file next to the working directory, if present
//   4. EXTRACTOR_* environment variables
//
// ENVIRONMENT VARIABLES:
//   EXTRACTOR_INPUT_DIR, EXTRACTOR_OUTPUT_DIR, EXTRACTOR_LOG_LEVEL,
//   EXTRACTOR_LOG_FORMAT, EXTRACTOR_OUTPUT_FORMATS (comma separated),
//   EXTRACTOR_CSV_DELIMITER, EXTRACTOR_MAX_CONCURRENCY,
//   EXTRACTOR_SERVER_ADDR, EXTRACTOR_MAX_UPLOAD_MB,
//   EXTRACTOR_MAX_BATCH_FILES, EXTRACTOR_CORS_ORIGINS (comma separated)
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "EXTRACTOR_"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for invoice PDFs by the process command.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the exported records and the run logs.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives processed invoices.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir receives copies of the exports.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel: "debug", "info", "warn" or "error". Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat: "text" or "json". Default: "text"
	LogFormat string `yaml:"log_format"`

	// LogFile, when set, receives a copy of the log output.
	LogFile string `yaml:"log_file"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat is the base name of export files, without extension.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	// Default: "fuel_records_{timestamp}"
	OutputNameFormat string `yaml:"output_name_format"`

	// OutputFormats lists the export formats: csv, xlsx, json, xml.
	// Default: [csv]
	OutputFormats []string `yaml:"output_formats"`

	// CSVDelimiter is the single-character CSV field separator. Default: ";"
	CSVDelimiter string `yaml:"csv_delimiter"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of invoices processed at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps exporting the records of successful invoices
	// when some invoices fail. Default: true
	ContinueOnError *bool `yaml:"continue_on_error"`

	// ArchiveOnSuccess moves processed invoices to InputArchiveDir.
	// Default: true
	ArchiveOnSuccess *bool `yaml:"archive_on_success"`

	// =========================================================================
	// HTTP SERVICE SETTINGS
	// =========================================================================

	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds the HTTP service settings.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8000"
	Addr string `yaml:"addr"`

	// MaxUploadMB is the per-file upload limit in megabytes. Default: 50
	MaxUploadMB int64 `yaml:"max_upload_mb"`

	// MaxBatchFiles is the maximum number of files per batch request.
	// Default: 10
	MaxBatchFiles int `yaml:"max_batch_files"`

	// CORSOrigins lists allowed origins. Default: ["*"]
	CORSOrigins []string `yaml:"cors_origins"`
}

// ContinuesOnError reports the effective ContinueOnError setting.
func (c *MainConfig) ContinuesOnError() bool {
	return c.ContinueOnError == nil || *c.ContinueOnError
}

// ArchivesOnSuccess reports the effective ArchiveOnSuccess setting.
func (c *MainConfig) ArchivesOnSuccess() bool {
	return c.ArchiveOnSuccess == nil || *c.ArchiveOnSuccess
}

// Delimiter returns the CSV delimiter as a rune.
func (c *MainConfig) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.CSVDelimiter)
	return r
}

// MaxUploadBytes returns the upload limit in bytes.
func (s ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the configuration with every default applied.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// LoadMainConfig loads the main configuration.
//
// PARAMETERS:
//   - configPath: The path to the YAML configuration file. It may not exist.
//   - envFile: The path to an optional .env file. Empty skips it.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be parsed or the result is invalid.
func LoadMainConfig(configPath, envFile string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}
	if err := applyEnvOverrides(&config); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyEnvOverrides copies EXTRACTOR_* environment variables into config.
func applyEnvOverrides(config *MainConfig) error {
	strs := map[string]*string{
		"INPUT_DIR":          &config.InputDir,
		"OUTPUT_DIR":         &config.OutputDir,
		"INPUT_ARCHIVE_DIR":  &config.InputArchiveDir,
		"OUTPUT_ARCHIVE_DIR": &config.OutputArchiveDir,
		"LOG_LEVEL":          &config.LogLevel,
		"LOG_FORMAT":         &config.LogFormat,
		"LOG_FILE":           &config.LogFile,
		"OUTPUT_NAME_FORMAT": &config.OutputNameFormat,
		"CSV_DELIMITER":      &config.CSVDelimiter,
		"SERVER_ADDR":        &config.Server.Addr,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	lists := map[string]*[]string{
		"OUTPUT_FORMATS": &config.OutputFormats,
		"CORS_ORIGINS":   &config.Server.CORSOrigins,
	}
	for key, dst := range lists {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = splitList(v)
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "MAX_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_CONCURRENCY: %w", EnvPrefix, err)
		}
		config.MaxConcurrency = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "MAX_UPLOAD_MB"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_UPLOAD_MB: %w", EnvPrefix, err)
		}
		config.Server.MaxUploadMB = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "MAX_BATCH_FILES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_BATCH_FILES: %w", EnvPrefix, err)
		}
		config.Server.MaxBatchFiles = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "fuel_records_{timestamp}"
	}
	if len(config.OutputFormats) == 0 {
		config.OutputFormats = []string{"csv"}
	}
	if config.CSVDelimiter == "" {
		config.CSVDelimiter = ";"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":8000"
	}
	if config.Server.MaxUploadMB == 0 {
		config.Server.MaxUploadMB = 50
	}
	if config.Server.MaxBatchFiles == 0 {
		config.Server.MaxBatchFiles = 10
	}
	if len(config.Server.CORSOrigins) == 0 {
		config.Server.CORSOrigins = []string{"*"}
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}

	switch strings.ToLower(config.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q", config.LogFormat)
	}

	if utf8.RuneCountInString(config.CSVDelimiter) != 1 {
		return fmt.Errorf("csv_delimiter must be a single character, got %q", config.CSVDelimiter)
	}
	switch config.Delimiter() {
	case '"', '\r', '\n', utf8.RuneError:
		return fmt.Errorf("csv_delimiter %q is not usable", config.CSVDelimiter)
	}

	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}
	if config.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be at least 1, got %d", config.Server.MaxUploadMB)
	}
	if config.Server.MaxBatchFiles < 1 {
		return fmt.Errorf("server.max_batch_files must be at least 1, got %d", config.Server.MaxBatchFiles)
	}

	return nil
}
