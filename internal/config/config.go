// =============================================================================
// Tax Hall Analytics - Configuration Module
// =============================================================================
//
// This module loads the application configuration. The ingestion core has no
// configuration of its own; these settings drive the CLI: where exports go,
// how they are named, logging, report generation and the watch directory.
//
// LOAD ORDER:
//   1. Built-in defaults
//   2. YAML file (config.yaml, --config, or HALLSTAT_CONFIG); a missing file
//      is not an error
//   3. Environment variable overrides
//   4. Validation
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

	"github.com/ginjaninja78/tax-hall-analytics/internal/converter"
	"github.com/ginjaninja78/tax-hall-analytics/internal/csvparser"
	"github.com/ginjaninja78/tax-hall-analytics/internal/xlsxparser"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the application configuration.
type MainConfig struct {
	// OutputDir is where exports and text summaries are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// OutputNameFormat names export files. Placeholders:
	//   {uuid}      - The analysis ID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	//   {original}  - Input file name without extension
	// Default: "{original}_{timestamp}_{uuid}"
	OutputNameFormat string `yaml:"output_name_format"`

	// OutputFormat is json, yaml, xml or xlsx.
	// Default: "json"
	OutputFormat string `yaml:"output_format"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`

	// HeaderAliases adds header tokens per field, e.g.
	//   header_aliases:
	//     operator: ["经办人"]
	HeaderAliases map[string][]string `yaml:"header_aliases"`

	// LabelRules rewrite category labels before aggregation, e.g.
	//   label_rules:
	//     - field: businessType
	//       actions:
	//         - type: lookup
	//           lookup_table: {"社保缴费": "社保费缴纳"}
	LabelRules []converter.LabelRule `yaml:"label_rules"`

	// ArchiveDir receives ledgers after a successful batch run. Empty
	// leaves them in place.
	ArchiveDir string `yaml:"archive_dir"`

	// ArchiveDated files archived ledgers under YYYY/MM/DD subdirectories.
	ArchiveDated bool `yaml:"archive_dated"`

	// CSVDelimiter is the delimiter for CSV ledgers: one character or
	// "tab", "pipe", "semicolon".
	// Default: ","
	CSVDelimiter string `yaml:"csv_delimiter"`

	// LLM configures report generation.
	LLM LLMConfig `yaml:"llm"`

	// Watch configures the drop-directory watcher.
	Watch WatchConfig `yaml:"watch"`
}

// LLMConfig configures the report generator.
type LLMConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"max_tokens"`
	BaseURL   string `yaml:"base_url"`
}

// WatchConfig configures the watcher.
type WatchConfig struct {
	// Dir is the directory new ledgers are dropped into. The process
	// command reads the same directory.
	// Default: "./input"
	Dir string `yaml:"dir"`

	// Extensions are the file extensions picked up.
	// Default: [".xlsx", ".csv"]
	Extensions []string `yaml:"extensions"`

	// Report generates a report for every processed file.
	Report bool `yaml:"report"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads the configuration file, applies defaults and env overrides.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. HALLSTAT_CONFIG
//     replaces it when set.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file exists but cannot be parsed, or validation fails.
func Load(configPath string) (*MainConfig, error) {
	if envPath := os.Getenv("HALLSTAT_CONFIG"); envPath != "" {
		configPath = envPath
	}

	var cfg MainConfig
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// Running without a config file is normal.
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *MainConfig) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.OutputNameFormat == "" {
		cfg.OutputNameFormat = "{original}_{timestamp}_{uuid}"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "json"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.CSVDelimiter == "" {
		cfg.CSVDelimiter = ","
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "claude-sonnet-4-5-20250929"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 4096
	}
	if cfg.Watch.Dir == "" {
		cfg.Watch.Dir = "./input"
	}
	if len(cfg.Watch.Extensions) == 0 {
		cfg.Watch.Extensions = []string{".xlsx", ".csv"}
	}
}

// applyEnvOverrides lets environment variables replace file values.
func applyEnvOverrides(cfg *MainConfig) {
	envOverride(&cfg.OutputDir, "HALLSTAT_OUTPUT_DIR")
	envOverride(&cfg.OutputFormat, "HALLSTAT_OUTPUT_FORMAT")
	envOverride(&cfg.LogLevel, "HALLSTAT_LOG_LEVEL")
	envOverride(&cfg.LogFormat, "HALLSTAT_LOG_FORMAT")
	envOverride(&cfg.LLM.APIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.LLM.Model, "HALLSTAT_LLM_MODEL")
	envOverrideInt64(&cfg.LLM.MaxTokens, "HALLSTAT_LLM_MAX_TOKENS")
	envOverride(&cfg.LLM.BaseURL, "HALLSTAT_LLM_BASE_URL")
	envOverride(&cfg.Watch.Dir, "HALLSTAT_WATCH_DIR")
	envOverride(&cfg.ArchiveDir, "HALLSTAT_ARCHIVE_DIR")
}

func envOverride(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func envOverrideInt64(target *int64, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		*target = n
	}
}

// validate checks enumerated values and header aliases.
func validate(cfg *MainConfig) error {
	switch strings.ToLower(cfg.OutputFormat) {
	case "json", "yaml", "yml", "xml", "xlsx":
	default:
		return fmt.Errorf("output_format must be json, yaml, xml or xlsx, got %q", cfg.OutputFormat)
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", cfg.LogLevel)
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm.max_tokens must not be negative")
	}
	if _, err := csvparser.Delimiter(cfg.CSVDelimiter); err != nil {
		return fmt.Errorf("invalid csv_delimiter: %w", err)
	}
	if _, err := cfg.HeaderTable(); err != nil {
		return err
	}
	if _, err := cfg.Labels(); err != nil {
		return err
	}
	return nil
}

// HeaderTable returns the built-in header token table extended with the
// configured aliases.
func (c *MainConfig) HeaderTable() (xlsxparser.HeaderTable, error) {
	return xlsxparser.DefaultHeaderTable().WithAliases(c.HeaderAliases)
}

// Labels compiles the configured label rules.
func (c *MainConfig) Labels() (*converter.Transformer, error) {
	return converter.NewTransformer(c.LabelRules)
}
