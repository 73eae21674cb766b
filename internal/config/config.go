// Package config loads pipeline configuration from defaults, the
// environment, and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds everything the pipeline needs: the Tally endpoint and
// ledger naming, transport behavior, and structuring-service credentials.
type Config struct {
	TallyURL       string        `yaml:"tally_url" envconfig:"TALLY_URL" default:"http://localhost:9000"`
	Company        string        `yaml:"company" envconfig:"TALLY_COMPANY" default:"A"`
	LedgerName     string        `yaml:"ledger_name" envconfig:"TALLY_LEDGER" default:"New Fresh Ledger"`
	ContraLedger   string        `yaml:"contra_ledger" envconfig:"TALLY_CONTRA_LEDGER" default:"Cash"`
	FiscalYear     int           `yaml:"fiscal_year" envconfig:"TALLY_FISCAL_YEAR" default:"2024"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"TALLY_REQUEST_TIMEOUT" default:"20s"`
	RetryCount     int           `yaml:"retry_count" envconfig:"TALLY_RETRY_COUNT" default:"2"`
	RetryBackoff   time.Duration `yaml:"retry_backoff" envconfig:"TALLY_RETRY_BACKOFF" default:"500ms"`

	GeminiAPIKey string   `yaml:"gemini_api_key" envconfig:"GOOGLE_API_KEY"`
	GeminiModel  string   `yaml:"gemini_model" envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash-lite"`
	OCRLanguages []string `yaml:"ocr_languages" envconfig:"OCR_LANGUAGES"`

	ListenAddr string `yaml:"listen_addr" envconfig:"LISTEN_ADDR" default:":8080"`
	LogFormat  string `yaml:"log_format" envconfig:"LOG_FORMAT" default:"text"`
	RunLogPath string `yaml:"run_log" envconfig:"RUN_LOG_PATH"`
}

// Load builds a Config from envconfig defaults, environment variables,
// and finally the YAML file at path (highest precedence). An empty path
// skips the file; a named file must exist.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config carrying the documented defaults, for writing
// a starter config file.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		return &Config{}
	}
	return cfg
}

// Validate checks the fields every pipeline run needs. This runs at
// startup so a missing API key fails fast instead of mid-batch.
func (c *Config) Validate() error {
	if c.TallyURL == "" {
		return errors.New("tally_url is required")
	}
	if c.Company == "" {
		return errors.New("company is required")
	}
	if c.LedgerName == "" {
		return errors.New("ledger_name is required")
	}
	if c.GeminiAPIKey == "" {
		return errors.New("gemini API key is required (set GOOGLE_API_KEY or gemini_api_key)")
	}
	return nil
}
