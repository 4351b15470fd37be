// internal/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string `json:"log_level"` // debug, info, warn, error

	Journal struct {
		Enabled bool   `json:"enabled"`
		Path    string `json:"path"` // empty keeps the journal in memory
	} `json:"journal"`

	Workers   int  `json:"workers"`    // modules generated in parallel by "all"
	CacheSize int  `json:"cache_size"` // target directory lookups kept in memory
	StripRoot bool `json:"strip_root"` // emit "app/..." instead of "/app/..."
}

func Default() *Config {
	return &Config{
		LogLevel:  "warn",
		Workers:   4,
		CacheSize: 4096,
	}
}

// Load reads the JSON config at path over the defaults, then applies .env and
// MODMAN_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			defer file.Close()
			if err := json.NewDecoder(file).Decode(cfg); err != nil {
				return nil, fmt.Errorf("decoding config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("MODMAN_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv("MODMAN_JOURNAL_PATH"); ok {
		c.Journal.Enabled = true
		c.Journal.Path = strings.TrimSpace(v)
	}
	if v := strings.TrimSpace(os.Getenv("MODMAN_WORKERS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing MODMAN_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := strings.TrimSpace(os.Getenv("MODMAN_CACHE_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing MODMAN_CACHE_SIZE: %w", err)
		}
		c.CacheSize = n
	}
	if v := strings.TrimSpace(os.Getenv("MODMAN_STRIP_ROOT")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing MODMAN_STRIP_ROOT: %w", err)
		}
		c.StripRoot = b
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size cannot be negative, got %d", c.CacheSize)
	}
	return nil
}
