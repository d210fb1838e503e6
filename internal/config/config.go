// Package config loads tarindex configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding a config file path.
const EnvConfigPath = "TARINDEX_CONFIG"

// EnvLogLevel overrides log.level.
const EnvLogLevel = "TARINDEX_LOG_LEVEL"

// Config holds the application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Index    IndexConfig    `yaml:"index"`
	Retrieve RetrieveConfig `yaml:"retrieve"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// StoreConfig holds index store tuning.
type StoreConfig struct {
	BusyTimeout time.Duration `yaml:"busy_timeout"`
	Synchronous string        `yaml:"synchronous"` // off, normal, full, extra
}

// IndexConfig holds indexing settings.
type IndexConfig struct {
	ProgressInterval int `yaml:"progress_interval"`
}

// RetrieveConfig holds retrieval settings.
type RetrieveConfig struct {
	// MaxMemberSize caps the bytes read for one member; 0 disables the cap.
	MaxMemberSize int64 `yaml:"max_member_size"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Store: StoreConfig{
			BusyTimeout: 5 * time.Second,
			Synchronous: "normal",
		},
		Index: IndexConfig{
			ProgressInterval: 100,
		},
	}
}

// Load builds the configuration.
// Order: defaults -> YAML file -> environment overrides -> Validate.
//
// path names the YAML file; when empty, $TARINDEX_CONFIG is used, and when
// that is unset too no file is read. A named file that does not exist is an
// error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Store.BusyTimeout < 0 {
		errs = append(errs, errors.New("store.busy_timeout must not be negative"))
	}
	switch strings.ToLower(c.Store.Synchronous) {
	case "off", "normal", "full", "extra":
	default:
		errs = append(errs, fmt.Errorf("store.synchronous: unknown mode %q", c.Store.Synchronous))
	}
	if c.Index.ProgressInterval <= 0 {
		errs = append(errs, errors.New("index.progress_interval must be positive"))
	}
	if c.Retrieve.MaxMemberSize < 0 {
		errs = append(errs, errors.New("retrieve.max_member_size must not be negative"))
	}
	return errors.Join(errs...)
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
