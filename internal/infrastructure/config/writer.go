package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# Kin-Core Configuration

sqlite:
  # path: .kin/kin.db (or set KIN_DB_PATH env var)
  busy_timeout: 5s

server:
  addr: 127.0.0.1:8080 # (or set KIN_HTTP_ADDR env var)
  read_timeout: 15s
  write_timeout: 15s
  shutdown_timeout: 10s

log:
  level: info # debug, info, warn, error (or set KIN_LOG_LEVEL env var)
  format: text # text or json

metrics:
  enabled: true
  path: /metrics

relationships:
  # Automatic retries when a concurrent write holds the database
  contention_retries: 1
`

// WriteDefault creates the .kin directory and writes a default config file.
// It refuses to replace an existing config.
func WriteDefault(basePath string) error {
	if err := os.MkdirAll(ConfigDir(basePath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := ConfigFilePath(basePath)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}

	if _, err := f.WriteString(DefaultConfigYAML); err != nil {
		f.Close()
		return fmt.Errorf("writing config file: %w", err)
	}
	return f.Close()
}

// Write replaces the config file with cfg. The file is written to a temporary
// name first and renamed into place.
func Write(basePath string, cfg *Config) error {
	dir := ConfigDir(basePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, DefaultConfigFile+".*")
	if err != nil {
		return fmt.Errorf("creating temp config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("setting config permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), ConfigFilePath(basePath)); err != nil {
		return fmt.Errorf("replacing config file: %w", err)
	}
	return nil
}

// Exists reports whether a kin config exists under basePath.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
