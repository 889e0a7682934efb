// Package common provides shared utilities for DeepTicker
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for DeepTicker
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Quotes      QuotesConfig    `toml:"quotes"`
	Insights    InsightsConfig  `toml:"insights"`
	Providers   ProvidersConfig `toml:"providers"`
	Health      HealthPolicy    `toml:"health"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the data directory for the BadgerHold store.
type StorageConfig struct {
	Path string `toml:"path"`
}

// QuotesConfig holds quote source configuration and cache policy.
// TTLs and the rate ceiling are policy values, not hardcoded behavior.
type QuotesConfig struct {
	PrimaryTTL    string      `toml:"primary_ttl"`   // cache TTL for primary-source quotes
	SecondaryTTL  string      `toml:"secondary_ttl"` // cache TTL for secondary-source quotes
	MaxConcurrent int         `toml:"max_concurrent"`
	EODHD         EODHDConfig `toml:"eodhd"`
	Yahoo         YahooConfig `toml:"yahoo"`
}

// GetPrimaryTTL parses the primary cache TTL, defaulting to 5 minutes.
func (c *QuotesConfig) GetPrimaryTTL() time.Duration {
	return parseDuration(c.PrimaryTTL, 5*time.Minute)
}

// GetSecondaryTTL parses the secondary cache TTL, defaulting to 10 minutes.
func (c *QuotesConfig) GetSecondaryTTL() time.Duration {
	return parseDuration(c.SecondaryTTL, 10*time.Minute)
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	RequestsPerMin int    `toml:"requests_per_min"`
	Timeout        string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// YahooConfig holds the secondary quote source configuration
type YahooConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 15*time.Second)
}

// InsightsConfig holds insight cache policy.
type InsightsConfig struct {
	TTL string `toml:"ttl"` // freshness window per (provider, fingerprint) pair
}

// GetTTL parses the insight cache TTL, defaulting to 5 minutes.
func (c *InsightsConfig) GetTTL() time.Duration {
	return parseDuration(c.TTL, 5*time.Minute)
}

// ProvidersConfig holds per-provider model and endpoint settings.
// Credentials do not live here. The credential store is the single
// source of truth for which providers are configured.
type ProvidersConfig struct {
	Gemini    ProviderConfig `toml:"gemini"`
	OpenAI    ProviderConfig `toml:"openai"`
	Anthropic ProviderConfig `toml:"anthropic"`
	DeepSeek  ProviderConfig `toml:"deepseek"`
}

// ProviderConfig holds model and endpoint settings for one AI provider.
type ProviderConfig struct {
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// HealthPolicy holds the health-bucket classification thresholds.
type HealthPolicy struct {
	WarnAbsPct       float64 `toml:"warn_abs_pct"`       // |change%| at or above this is at least warning
	DangerDeclinePct float64 `toml:"danger_decline_pct"` // decline beyond this is danger
	DangerRatio      float64 `toml:"danger_ratio"`       // danger holdings ratio above this makes the portfolio danger
	WarnRatio        float64 `toml:"warn_ratio"`         // warning holdings ratio above this makes the portfolio warning
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data",
		},
		Quotes: QuotesConfig{
			PrimaryTTL:    "5m",
			SecondaryTTL:  "10m",
			MaxConcurrent: 4,
			EODHD: EODHDConfig{
				BaseURL:        "https://eodhd.com/api",
				RequestsPerMin: 30,
				Timeout:        "30s",
			},
			Yahoo: YahooConfig{
				BaseURL: "https://query1.finance.yahoo.com",
				Timeout: "15s",
			},
		},
		Insights: InsightsConfig{
			TTL: "5m",
		},
		Providers: ProvidersConfig{
			Gemini:    ProviderConfig{Model: "gemini-2.0-flash"},
			OpenAI:    ProviderConfig{Model: "gpt-4o-mini"},
			Anthropic: ProviderConfig{Model: "claude-sonnet-4-20250514"},
			DeepSeek:  ProviderConfig{Model: "deepseek-chat", BaseURL: "https://api.deepseek.com/v1"},
		},
		Health: HealthPolicy{
			WarnAbsPct:       2.0,
			DangerDeclinePct: 10.0,
			DangerRatio:      0.3,
			WarnRatio:        0.5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("DEEPTICKER_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("DEEPTICKER_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("DEEPTICKER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("DEEPTICKER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("DEEPTICKER_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if key := os.Getenv("EODHD_API_KEY"); key != "" {
		config.Quotes.EODHD.APIKey = key
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
