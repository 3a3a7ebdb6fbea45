package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"earnings-dedup-go/internal/dedup"
)

// Config holds settings shared by the CLI and the HTTP service.
type Config struct {
	// Input is a local path or http(s) URL of the component dataset.
	Input string `yaml:"input"`
	// Output is the canonical artifact path. Its extension picks the format.
	Output string `yaml:"output"`

	// CompanyCleanup enables the lossy company-level stage. Default: true
	CompanyCleanup bool `yaml:"company_cleanup"`
	// Workers bounds parallelism inside each stage. Default: GOMAXPROCS
	Workers int `yaml:"workers"`

	Text dedup.MatchOptions `yaml:"text"`
	Key  dedup.MatchOptions `yaml:"key"`

	// CompanyLimit keeps only the first N companies by id. 0 = all
	CompanyLimit int `yaml:"company_limit"`

	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	Port string `yaml:"port"`
}

func Default() Config {
	return Config{
		CompanyCleanup: true,
		Workers:        runtime.GOMAXPROCS(0),
		FetchTimeout:   30 * time.Second,
		Port:           "8080",
	}
}

func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive (got %d)", c.Workers)
	}
	if c.Workers > 1024 {
		return fmt.Errorf("workers too large (got %d, max 1024)", c.Workers)
	}
	if c.CompanyLimit < 0 {
		return fmt.Errorf("company_limit cannot be negative (got %d)", c.CompanyLimit)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive (got %v)", c.FetchTimeout)
	}
	if c.FetchTimeout > 30*time.Minute {
		return fmt.Errorf("fetch_timeout too large (got %v, max 30 minutes)", c.FetchTimeout)
	}
	return nil
}

// DedupOptions projects the config onto pipeline options.
func (c Config) DedupOptions() dedup.Options {
	return dedup.Options{
		Text:           c.Text,
		Key:            c.Key,
		CompanyCleanup: c.CompanyCleanup,
		Workers:        c.Workers,
	}
}

// Load builds a Config from defaults, then the YAML file at path (or
// DEDUP_CONFIG when path is empty), then the environment. A .env file in the
// working directory is read first and never overrides variables already set.
//
// Environment variables:
//   - DEDUP_INPUT, DEDUP_OUTPUT: input and output locations
//   - DEDUP_COMPANY_CLEANUP: enable company-level cleanup (default: true)
//   - DEDUP_WORKERS: per-stage parallelism (default: GOMAXPROCS)
//   - DEDUP_TEXT_TRIM, DEDUP_TEXT_COLLAPSE_SPACE, DEDUP_TEXT_FOLD_CASE: text matching
//   - DEDUP_KEY_TRIM, DEDUP_KEY_COLLAPSE_SPACE, DEDUP_KEY_FOLD_CASE: natural-key matching
//   - DEDUP_COMPANY_LIMIT: keep only the first N companies (default: 0, all)
//   - DEDUP_FETCH_TIMEOUT_SECS: remote input timeout in seconds (default: 30)
//   - PORT: HTTP listen port (default: 8080)
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("DEDUP_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	parseEnvString("DEDUP_INPUT", &cfg.Input)
	parseEnvString("DEDUP_OUTPUT", &cfg.Output)
	parseEnvString("PORT", &cfg.Port)

	bools := []struct {
		key  string
		dest *bool
	}{
		{"DEDUP_COMPANY_CLEANUP", &cfg.CompanyCleanup},
		{"DEDUP_TEXT_TRIM", &cfg.Text.TrimSpace},
		{"DEDUP_TEXT_COLLAPSE_SPACE", &cfg.Text.CollapseSpace},
		{"DEDUP_TEXT_FOLD_CASE", &cfg.Text.FoldCase},
		{"DEDUP_KEY_TRIM", &cfg.Key.TrimSpace},
		{"DEDUP_KEY_COLLAPSE_SPACE", &cfg.Key.CollapseSpace},
		{"DEDUP_KEY_FOLD_CASE", &cfg.Key.FoldCase},
	}
	for _, b := range bools {
		if err := parseEnvBool(b.key, b.dest); err != nil {
			return err
		}
	}
	if err := parseEnvInt("DEDUP_WORKERS", &cfg.Workers); err != nil {
		return err
	}
	if err := parseEnvInt("DEDUP_COMPANY_LIMIT", &cfg.CompanyLimit); err != nil {
		return err
	}
	return parseEnvDuration("DEDUP_FETCH_TIMEOUT_SECS", &cfg.FetchTimeout, time.Second)
}

func parseEnvString(key string, dest *string) {
	if value := os.Getenv(key); value != "" {
		*dest = value
	}
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvDuration parses a whole number of multiplier units
func parseEnvDuration(key string, dest *time.Duration, multiplier time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = time.Duration(parsed) * multiplier
	return nil
}
