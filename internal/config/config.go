// Package config provides configuration loading for calendar-extractor.
// Values come from defaults, an optional YAML file, a .env file, environment
// variables and finally command-line overrides applied by the caller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spherical/calendar-extractor/internal/domain"
)

// Provider names accepted by llm.provider.
const (
	ProviderOllama     = "ollama"
	ProviderOpenRouter = "openrouter"
)

// Output formats accepted by output.format.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config holds all configuration for calendar-extractor.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	OCR       OCRConfig       `yaml:"ocr"`
	Interpret InterpretConfig `yaml:"interpret"`
	Output    OutputConfig    `yaml:"output"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// LLMConfig holds language model settings.
type LLMConfig struct {
	Provider       string        `yaml:"provider"` // ollama or openrouter
	Model          string        `yaml:"model"`
	OllamaHost     string        `yaml:"ollama_host"`
	OpenRouterURL  string        `yaml:"openrouter_url"`
	APIKey         string        `yaml:"api_key"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// OCRConfig holds tesseract settings.
type OCRConfig struct {
	Command  string        `yaml:"command"`
	Language string        `yaml:"language"`
	PSM      int           `yaml:"psm"` // 0 leaves tesseract's default
	Timeout  time.Duration `yaml:"timeout"`
	PDFDPI   float64       `yaml:"pdf_dpi"`
}

// InterpretConfig holds response interpreter settings.
type InterpretConfig struct {
	RepairJSON bool `yaml:"repair_json"`
}

// OutputConfig holds result writer settings.
type OutputConfig struct {
	Format string `yaml:"format"` // json or yaml; empty infers from the file extension
	Indent int    `yaml:"indent"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	File string `yaml:"file"` // Prometheus textfile written after a run
}

// DefaultConfig returns a configuration that talks to a local Ollama.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       ProviderOllama,
			Model:          "llama3",
			OllamaHost:     "http://localhost:11434",
			OpenRouterURL:  "https://openrouter.ai/api/v1/chat/completions",
			Timeout:        2 * time.Minute,
			MaxRetries:     3,
			InitialBackoff: 1 * time.Second,
			MaxBackoff:     30 * time.Second,
		},
		OCR: OCRConfig{
			Command:  "tesseract",
			Language: "eng",
			Timeout:  60 * time.Second,
			PDFDPI:   200,
		},
		Output: OutputConfig{
			Indent: 2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file (optional), loads .env and
// applies environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError("read config file", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError("parse config file", err)
		}
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOllama:
		if c.LLM.OllamaHost == "" {
			return domain.ConfigError("llm.ollama_host is required for the ollama provider", nil)
		}
	case ProviderOpenRouter:
		if c.LLM.APIKey == "" {
			return domain.ConfigError("OPENROUTER_API_KEY is required for the openrouter provider", nil)
		}
	default:
		return domain.ConfigError(fmt.Sprintf("invalid llm provider: %q", c.LLM.Provider), nil)
	}

	if strings.TrimSpace(c.LLM.Model) == "" {
		return domain.ConfigError("llm.model must not be empty", nil)
	}

	if c.LLM.Timeout <= 0 {
		return domain.ConfigError("llm.timeout must be positive", nil)
	}

	if c.LLM.MaxRetries < 0 || c.LLM.MaxRetries > 10 {
		return domain.ConfigError("llm.max_retries must be between 0 and 10", nil)
	}

	if c.OCR.Command == "" {
		return domain.ConfigError("ocr.command must not be empty", nil)
	}

	if c.OCR.Timeout <= 0 {
		return domain.ConfigError("ocr.timeout must be positive", nil)
	}

	if c.OCR.PSM < 0 || c.OCR.PSM > 13 {
		return domain.ConfigError(fmt.Sprintf("invalid ocr.psm: %d", c.OCR.PSM), nil)
	}

	if c.OCR.PDFDPI <= 0 {
		return domain.ConfigError("ocr.pdf_dpi must be positive", nil)
	}

	switch c.Output.Format {
	case "", FormatJSON, FormatYAML:
	default:
		return domain.ConfigError(fmt.Sprintf("invalid output format: %q", c.Output.Format), nil)
	}

	if c.Output.Indent < 0 || c.Output.Indent > 8 {
		return domain.ConfigError("output.indent must be between 0 and 8", nil)
	}

	if c.Log.Format != "console" && c.Log.Format != "json" {
		return domain.ConfigError(fmt.Sprintf("invalid log format: %q", c.Log.Format), nil)
	}

	return nil
}

// LoggerConfig converts the log section into a domain.LogConfig.
func (c *Config) LoggerConfig() domain.LogConfig {
	return domain.LogConfig{
		Level:  domain.ParseLogLevel(c.Log.Level),
		Format: c.Log.Format,
	}
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.LLM.OllamaHost = normalizeHost(v)
	}

	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return domain.ConfigError("invalid LLM_TIMEOUT", err)
		}
		cfg.LLM.Timeout = d
	}

	if v := os.Getenv("LLM_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.ConfigError("invalid LLM_MAX_RETRIES", err)
		}
		cfg.LLM.MaxRetries = n
	}

	if v := os.Getenv("TESSERACT_CMD"); v != "" {
		cfg.OCR.Command = v
	}

	if v := os.Getenv("OCR_LANG"); v != "" {
		cfg.OCR.Language = v
	}

	if v := os.Getenv("OCR_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return domain.ConfigError("invalid OCR_TIMEOUT", err)
		}
		cfg.OCR.Timeout = d
	}

	if v := os.Getenv("OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = strings.ToLower(v)
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	if v := os.Getenv("METRICS_FILE"); v != "" {
		cfg.Metrics.File = v
	}

	return nil
}

// normalizeHost accepts OLLAMA_HOST in the forms the ollama CLI does
// ("0.0.0.0:11434", "localhost", "http://host:port").
func normalizeHost(v string) string {
	v = strings.TrimRight(strings.TrimSpace(v), "/")
	if !strings.Contains(v, "://") {
		v = "http://" + v
	}
	rest := v[strings.Index(v, "://")+3:]
	if !strings.Contains(rest, ":") {
		v += ":11434"
	}
	return v
}
