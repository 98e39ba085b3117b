// Package config loads service settings from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

var defaultModels = map[string][2]string{
	ProviderGemini:    {"gemini-2.5-flash", "gemini-2.5-pro"},
	ProviderAnthropic: {"claude-sonnet-4-5-20250929", "claude-sonnet-4-5-20250929"},
}

// Config holds all service configuration.
type Config struct {
	Port     string `yaml:"port"`
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`

	Provider        string `yaml:"llm_provider"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AdviceModel     string `yaml:"advice_model"`
	FinalModel      string `yaml:"final_model"`

	RateLimit         int           `yaml:"rate_limit"`
	RateWindow        time.Duration `yaml:"rate_limit_window"`
	RateSweepInterval time.Duration `yaml:"rate_limit_sweep_interval"` // 0 disables sweeping

	GenerationTimeout time.Duration `yaml:"generation_timeout"`
	MaxRetries        int           `yaml:"generation_max_retries"`
	BackoffBase       time.Duration `yaml:"backoff_base"`
	BackoffJitter     time.Duration `yaml:"backoff_jitter"`
	BackoffMax        time.Duration `yaml:"backoff_max"`
	RequestBudget     time.Duration `yaml:"request_budget"`

	MaxDilemmaChars int      `yaml:"max_dilemma_chars"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	DiagnosticsDB   string   `yaml:"diagnostics_db"` // empty disables the failure log
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Port:              "8080",
		AppEnv:            "development",
		LogLevel:          "info",
		Provider:          ProviderGemini,
		RateLimit:         20,
		RateWindow:        time.Minute,
		GenerationTimeout: 20 * time.Second,
		MaxRetries:        2,
		BackoffBase:       500 * time.Millisecond,
		BackoffJitter:     250 * time.Millisecond,
		BackoffMax:        8 * time.Second,
		RequestBudget:     55 * time.Second,
		MaxDilemmaChars:   1000,
		AllowedOrigins:    []string{"*"},
	}
}

// Load reads CONFIG_PATH (default config.yaml) if present, then applies
// environment variables on top.
func Load() (*Config, error) {
	cfg := Default()

	path := getEnv("CONFIG_PATH", "config.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyModelDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Provider = strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", c.Provider)))
	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.AdviceModel = getEnv("ADVICE_MODEL", c.AdviceModel)
	c.FinalModel = getEnv("FINAL_MODEL", c.FinalModel)

	c.RateLimit = getEnvInt("RATE_LIMIT", c.RateLimit)
	c.RateWindow = getEnvDuration("RATE_LIMIT_WINDOW", c.RateWindow)
	c.RateSweepInterval = getEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", c.RateSweepInterval)

	c.GenerationTimeout = getEnvDuration("GENERATION_TIMEOUT", c.GenerationTimeout)
	c.MaxRetries = getEnvInt("GENERATION_MAX_RETRIES", c.MaxRetries)
	c.BackoffBase = getEnvDuration("BACKOFF_BASE", c.BackoffBase)
	c.BackoffJitter = getEnvDuration("BACKOFF_JITTER", c.BackoffJitter)
	c.BackoffMax = getEnvDuration("BACKOFF_MAX", c.BackoffMax)
	c.RequestBudget = getEnvDuration("REQUEST_BUDGET", c.RequestBudget)

	c.MaxDilemmaChars = getEnvInt("MAX_DILEMMA_CHARS", c.MaxDilemmaChars)
	c.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", c.AllowedOrigins)
	c.DiagnosticsDB = getEnv("DIAGNOSTICS_DB", c.DiagnosticsDB)
}

func (c *Config) applyModelDefaults() {
	models, ok := defaultModels[c.Provider]
	if !ok {
		return
	}
	if c.AdviceModel == "" {
		c.AdviceModel = models[0]
	}
	if c.FinalModel == "" {
		c.FinalModel = models[1]
	}
}

// Validate checks that all required configuration fields are set.
// A missing API key is not an error here; requests report it instead.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if _, ok := defaultModels[c.Provider]; !ok {
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderAnthropic, c.Provider)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be > 0")
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0")
	}
	if c.RateSweepInterval < 0 {
		return fmt.Errorf("RATE_LIMIT_SWEEP_INTERVAL cannot be negative")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be > 0")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("GENERATION_MAX_RETRIES cannot be negative")
	}
	if c.RequestBudget < c.GenerationTimeout {
		return fmt.Errorf("REQUEST_BUDGET (%s) must be at least GENERATION_TIMEOUT (%s)", c.RequestBudget, c.GenerationTimeout)
	}
	if c.MaxDilemmaChars <= 0 {
		return fmt.Errorf("MAX_DILEMMA_CHARS must be > 0")
	}
	return nil
}

// APIKey returns the credential for the selected provider.
func (c *Config) APIKey() string {
	if c.Provider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.GeminiAPIKey
}

// IsProduction reports whether debug output must be suppressed.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
