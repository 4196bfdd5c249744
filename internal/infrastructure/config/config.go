// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for kin configuration.
	DefaultConfigDir = ".kin"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the default SQLite database file name.
	DefaultDatabaseFile = "kin.db"

	// DefaultHTTPAddr is the default listen address of the HTTP API.
	DefaultHTTPAddr = "127.0.0.1:8080"
	// DefaultBusyTimeout is how long SQLite waits on a locked database.
	DefaultBusyTimeout = 5 * time.Second
	// DefaultContentionRetries is how many times a write is retried after contention.
	DefaultContentionRetries = 1
)

// Environment variables that override the config file.
const (
	EnvDatabasePath      = "KIN_DB_PATH"
	EnvLogLevel          = "KIN_LOG_LEVEL"
	EnvLogFormat         = "KIN_LOG_FORMAT"
	EnvHTTPAddr          = "KIN_HTTP_ADDR"
	EnvContentionRetries = "KIN_CONTENTION_RETRIES"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	SQLite        SQLiteConfig        `yaml:"sqlite,omitempty"`
	Server        ServerConfig        `yaml:"server,omitempty"`
	Log           LogConfig           `yaml:"log,omitempty"`
	Metrics       MetricsConfig       `yaml:"metrics,omitempty"`
	Relationships RelationshipsConfig `yaml:"relationships,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database. Relative paths are resolved
	// against the project directory; empty means .kin/kin.db.
	Path        string        `yaml:"path,omitempty"`
	BusyTimeout time.Duration `yaml:"busy_timeout,omitempty"`
}

// ServerConfig holds configuration for the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr,omitempty"`
	ReadTimeout     time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout    time.Duration `yaml:"write_timeout,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text or json
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// RelationshipsConfig tunes the relationship engine.
type RelationshipsConfig struct {
	ContentionRetries int `yaml:"contention_retries"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		SQLite: SQLiteConfig{
			BusyTimeout: DefaultBusyTimeout,
		},
		Server: ServerConfig{
			Addr:            DefaultHTTPAddr,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Relationships: RelationshipsConfig{
			ContentionRetries: DefaultContentionRetries,
		},
	}
}

// Load loads configuration from the .kin directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'kin init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvDatabasePath); v != "" {
		c.SQLite.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvHTTPAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvContentionRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvContentionRetries, err)
		}
		c.Relationships.ContentionRetries = n
	}
	return nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (valid: text, json)", c.Log.Format)
	}
	if c.Relationships.ContentionRetries < 0 {
		return fmt.Errorf("relationships.contention_retries must not be negative, got %d", c.Relationships.ContentionRetries)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}

// DatabasePath returns the SQLite database path for the project at basePath.
func (c *Config) DatabasePath(basePath string) string {
	path := c.SQLite.Path
	switch {
	case path == "":
		return filepath.Join(basePath, DefaultConfigDir, DefaultDatabaseFile)
	case path == ":memory:", filepath.IsAbs(path), strings.HasPrefix(path, "file:"):
		return path
	default:
		return filepath.Join(basePath, path)
	}
}

// SQLiteFor returns the SQLite settings with the database path resolved.
func (c *Config) SQLiteFor(basePath string) SQLiteConfig {
	sc := c.SQLite
	sc.Path = c.DatabasePath(basePath)
	return sc
}

// ConfigDir returns the path to the .kin config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}
