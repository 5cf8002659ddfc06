package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/darkcaves/dragonites/pkg/logging"
)

// Config holds all dragonites configuration.
type Config struct {
	DBPath   string         `yaml:"db_path" env:"DRAGONITES_DB_PATH"`
	Listen   string         `yaml:"listen" env:"DRAGONITES_LISTEN"`
	Provider ProviderConfig `yaml:"provider" envPrefix:"DRAGONITES_PROVIDER_"`
	Cache    CacheConfig    `yaml:"cache" envPrefix:"DRAGONITES_CACHE_"`
	Bulk     BulkConfig     `yaml:"bulk" envPrefix:"DRAGONITES_BULK_"`
	Search   SearchConfig   `yaml:"search" envPrefix:"DRAGONITES_SEARCH_"`
	Log      LogConfig      `yaml:"log" envPrefix:"DRAGONITES_LOG_"`
}

// ProviderConfig defines how the upstream creature API is reached.
type ProviderConfig struct {
	BaseURL       string        `yaml:"base_url" env:"BASE_URL"`
	Timeout       time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RetryAttempts int           `yaml:"retry_attempts" env:"RETRY_ATTEMPTS"`
	RetryBackoff  time.Duration `yaml:"retry_backoff" env:"RETRY_BACKOFF"`
}

// CacheConfig controls freshness and background expiry.
type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl" env:"TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`
}

// BulkConfig paces bulk loads.
type BulkConfig struct {
	Delay time.Duration `yaml:"delay" env:"DELAY"`
}

// SearchConfig bounds name searches.
type SearchConfig struct {
	SpeciesLimit int `yaml:"species_limit" env:"SPECIES_LIMIT"`
	MaxResults   int `yaml:"max_results" env:"MAX_RESULTS"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Logging converts to the logging package's config.
func (c LogConfig) Logging() logging.Config {
	return logging.Config{Level: c.Level, Format: c.Format}
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		DBPath: "dragonites.db",
		Listen: ":8080",
		Provider: ProviderConfig{
			BaseURL:       "https://pokeapi.co/api/v2",
			Timeout:       10 * time.Second,
			RetryAttempts: 3,
			RetryBackoff:  200 * time.Millisecond,
		},
		Cache: CacheConfig{
			TTL:           24 * time.Hour,
			SweepInterval: time.Hour,
		},
		Bulk: BulkConfig{
			Delay: 100 * time.Millisecond,
		},
		Search: SearchConfig{
			SpeciesLimit: 1000,
			MaxResults:   20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file, expands environment variables, and applies
// DRAGONITES_* overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOptional is Load, except a missing file means defaults.
func LoadOptional(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Load("")
	}
	return Load(path)
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if u, err := url.Parse(c.Provider.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("provider.base_url %q is not an absolute URL", c.Provider.BaseURL))
	}
	if c.Provider.Timeout <= 0 {
		errs = append(errs, errors.New("provider.timeout must be positive"))
	}
	if c.Provider.RetryAttempts < 1 {
		errs = append(errs, errors.New("provider.retry_attempts must be at least 1"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}
	if c.Cache.SweepInterval < 0 {
		errs = append(errs, errors.New("cache.sweep_interval must not be negative"))
	}
	if c.Bulk.Delay < 0 {
		errs = append(errs, errors.New("bulk.delay must not be negative"))
	}
	if c.Search.SpeciesLimit <= 0 || c.Search.MaxResults <= 0 {
		errs = append(errs, errors.New("search limits must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
