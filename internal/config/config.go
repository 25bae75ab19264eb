// Package config loads feedline's TOML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

// ErrNotFound is returned when an explicitly requested config file does not exist.
var ErrNotFound = errors.New("config file not found")

// Config is the persistent application configuration
type Config struct {
	// Feed URLs, fetched every UpdateInterval seconds.
	Sources []string `toml:"sources"`

	UpdateInterval       int    `toml:"update_interval"` // seconds
	CachePath            string `toml:"cache_path"`
	FetchTimeout         int    `toml:"fetch_timeout"`          // seconds
	MaxConcurrentFetches int    `toml:"max_concurrent_fetches"` // 0 = unlimited

	// Keep a failing source's articles instead of pruning them.
	KeepFailedSources bool `toml:"keep_failed_sources"`

	LogLevel string `toml:"log_level"` // debug, info, warn, error
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		UpdateInterval:       300,
		CachePath:            DefaultCachePath(),
		FetchTimeout:         30,
		MaxConcurrentFetches: 8,
		LogLevel:             "info",
	}
}

// DefaultPath returns the path to the config file
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "feedline", "feedline.toml")
}

// DefaultCachePath returns the default cache database location.
func DefaultCachePath() string {
	return filepath.Join(xdg.CacheHome, "feedline", "cache.db")
}

// LogDir returns the directory log files are written to.
func LogDir() string {
	return filepath.Join(xdg.StateHome, "feedline", "logs")
}

// Interval returns UpdateInterval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.UpdateInterval) * time.Second
}

// Timeout returns FetchTimeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

// Load reads the config file at path. An empty path means DefaultPath,
// which is created empty when missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if explicit {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		if err := create(path); err != nil {
			return nil, err
		}
		data = nil
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data over DefaultConfig and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown config keys:\n%s", strict.String())
		}
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize trims sources, drops empty ones and checks value ranges.
func (c *Config) normalize() error {
	sources := make([]string, 0, len(c.Sources))
	for _, s := range c.Sources {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		u, err := url.Parse(s)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid source %q: must be an absolute http(s) URL", s)
		}
		sources = append(sources, s)
	}
	c.Sources = sources

	if c.UpdateInterval <= 0 {
		return fmt.Errorf("update_interval must be positive, got %d", c.UpdateInterval)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive, got %d", c.FetchTimeout)
	}
	if c.MaxConcurrentFetches < 0 {
		return fmt.Errorf("max_concurrent_fetches must not be negative, got %d", c.MaxConcurrentFetches)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.CachePath == "" {
		c.CachePath = DefaultCachePath()
	}
	return nil
}

// create writes an empty config file, creating parent directories.
func create(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("create config: %w", err)
	}
	return f.Close()
}
