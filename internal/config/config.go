// Package config handles application configuration: defaults, an optional
// YAML file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"kordash/internal/engine"
	"kordash/internal/models"
)

// S3Config holds static credentials for an s3:// data source.
type S3Config struct {
	KeyID    string `yaml:"key_id"`
	Secret   string `yaml:"secret"`
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
}

// Config holds the settings for the dashboard server and CLI.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DataSource string `yaml:"data_source"` // local path or s3://bucket/key

	CountryCode    string            `yaml:"country_code"`
	Keywords       []string          `yaml:"keywords"`
	Bounds         models.YearRange  `yaml:"bounds"`
	DefaultRange   models.YearRange  `yaml:"default_range"`
	CardIndicators []string          `yaml:"card_indicators"`
	ShortTitles    map[string]string `yaml:"short_titles"`

	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text or json

	RateLimitRPS       float64       `yaml:"rate_limit_rps"`
	RateLimitBurst     int           `yaml:"rate_limit_burst"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`

	S3 S3Config `yaml:"s3"`

	// Warnings collects non-fatal warnings generated during loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string `yaml:"-"`
}

// Default returns the South Korea dashboard configuration.
func Default() *Config {
	opts := engine.DefaultOptions()
	return &Config{
		ListenAddr:         ":8080",
		DataSource:         "data.csv",
		CountryCode:        opts.CountryCode,
		Keywords:           slices.Clone(opts.Keywords),
		Bounds:             opts.Bounds,
		DefaultRange:       opts.DefaultRange,
		CardIndicators:     slices.Clone(opts.CardIndicators),
		ShortTitles:        maps.Clone(opts.ShortTitles),
		LogLevel:           "info",
		LogFormat:          "text",
		RateLimitRPS:       20,
		RateLimitBurst:     40,
		CORSAllowedOrigins: []string{"*"},
		ShutdownTimeout:    10 * time.Second,
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// non-empty) and then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
		cfg.Warnings = append(cfg.Warnings, "CORS allows every origin; set CORS_ALLOWED_ORIGINS to restrict it")
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setString("LISTEN_ADDR", &c.ListenAddr)
	setString("DATA_SOURCE", &c.DataSource)
	setString("COUNTRY_CODE", &c.CountryCode)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_FORMAT", &c.LogFormat)
	setString("KEY_ID", &c.S3.KeyID)
	setString("SECRET", &c.S3.Secret)
	setString("ENDPOINT", &c.S3.Endpoint)
	setString("REGION", &c.S3.Region)

	if v := os.Getenv("KEYWORDS"); v != "" {
		c.Keywords = splitList(v)
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORSAllowedOrigins = splitList(v)
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		c.RateLimitRPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
		c.RateLimitBurst = n
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	var errs []error
	if c.DataSource == "" {
		errs = append(errs, errors.New("data source must be set"))
	}
	if c.CountryCode == "" {
		errs = append(errs, errors.New("country code must be set"))
	}
	if len(c.Keywords) == 0 {
		errs = append(errs, errors.New("at least one indicator keyword is required"))
	}
	if c.Bounds.From > c.Bounds.To {
		errs = append(errs, fmt.Errorf("bounds %s: start year is after end year", c.Bounds))
	}
	if c.DefaultRange.From > c.DefaultRange.To ||
		c.DefaultRange.From < c.Bounds.From || c.DefaultRange.To > c.Bounds.To {
		errs = append(errs, fmt.Errorf("default range %s must lie within bounds %s", c.DefaultRange, c.Bounds))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q: must be text or json", c.LogFormat))
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		errs = append(errs, errors.New("rate limits must not be negative"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout %s must be positive", c.ShutdownTimeout))
	}
	if strings.HasPrefix(c.DataSource, "s3://") && (c.S3.KeyID == "" || c.S3.Secret == "") {
		errs = append(errs, errors.New("KEY_ID and SECRET are required for an s3:// data source"))
	}
	return errors.Join(errs...)
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) S3Options() engine.S3Options {
	return engine.S3Options{
		Endpoint: c.S3.Endpoint,
		Region:   c.S3.Region,
		KeyID:    c.S3.KeyID,
		Secret:   c.S3.Secret,
	}
}

// EngineOptions returns the dashboard options described by the config.
func (c *Config) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.CountryCode = c.CountryCode
	opts.Keywords = c.Keywords
	opts.Bounds = c.Bounds
	opts.DefaultRange = c.DefaultRange
	if len(c.CardIndicators) > 0 {
		opts.CardIndicators = c.CardIndicators
	}
	if len(c.ShortTitles) > 0 {
		opts.ShortTitles = c.ShortTitles
	}
	return opts
}

// NewLogger builds the process logger on stderr.
func (c *Config) NewLogger() *slog.Logger {
	hopts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, hopts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, hopts))
}
