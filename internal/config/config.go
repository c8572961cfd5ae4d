// Package config loads service configuration from a YAML file, applies
// defaults first and environment overrides second.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all orderline configuration.
type Config struct {
	// LLM configures the optional language-model parser.
	LLM LLMConfig `yaml:"llm"`

	// Sheets configures the shared ledger backend.
	Sheets SheetsConfig `yaml:"sheets"`

	// Journal configures the local order journal.
	Journal JournalConfig `yaml:"journal"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the optional text-understanding service.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, openai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// SheetsConfig configures the Google Sheets ledger.
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name"`
	CredentialsJSON string `yaml:"credentials_json"` // inline JSON, rarely set in the file
	ScanRows        int    `yaml:"scan_rows"`
}

// JournalConfig configures the local SQLite journal.
type JournalConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// MetricsConfig configures the metrics listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			Timeout:  "30s",
		},
		Sheets: SheetsConfig{
			SheetName: "ORDER",
			ScanRows:  2000,
		},
		Journal: JournalConfig{
			DatabasePath: "data/orderline.db",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9190",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides. API keys are
// checked in priority order; the last one set wins the provider slot.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}

	if id := os.Getenv("ORDERLINE_SPREADSHEET_ID"); id != "" {
		c.Sheets.SpreadsheetID = id
	}
	if name := os.Getenv("ORDERLINE_SHEET_NAME"); name != "" {
		c.Sheets.SheetName = name
	}
	if path := os.Getenv("ORDERLINE_DB"); path != "" {
		c.Journal.DatabasePath = path
	}
	if addr := os.Getenv("ORDERLINE_METRICS_ADDR"); addr != "" {
		c.Metrics.Enabled = true
		c.Metrics.Addr = addr
	}
	if level := os.Getenv("ORDERLINE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	// Credentials arrive either as raw JSON or base64 for environments
	// that mangle multi-line values.
	if creds := os.Getenv("GOOGLE_CREDENTIALS_JSON"); creds != "" {
		c.Sheets.CredentialsJSON = creds
	}
	if b64 := os.Getenv("GOOGLE_CREDENTIALS_B64"); b64 != "" {
		if decoded, err := base64.StdEncoding.DecodeString(b64); err == nil {
			c.Sheets.CredentialsJSON = string(decoded)
		}
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Validate checks for configurations that cannot possibly work.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "", "gemini", "openai":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.Sheets.ScanRows < 2 {
		return fmt.Errorf("sheets scan_rows must be at least 2, got %d", c.Sheets.ScanRows)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}
