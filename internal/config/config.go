// Package config loads coinboard configuration: defaults, overlaid by the
// user's YAML config file, overlaid by environment variables. CLI flags are
// applied last by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coinboard/coinboard/internal/api"
	"github.com/coinboard/coinboard/internal/cmc"
	"github.com/coinboard/coinboard/internal/logging"
)

// Environment variable overrides.
const (
	EnvAPIURL    = "COINBOARD_API_URL"
	EnvCMCAPIKey = "COINBOARD_CMC_API_KEY"
	EnvLogLevel  = "COINBOARD_LOG_LEVEL"
)

// configDirName is the per-user configuration directory under $HOME.
const configDirName = ".coinboard"

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// APIConfig configures the backend client.
type APIConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// ServerConfig configures the backend server.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	CMCBaseURL      string   `yaml:"cmc_base_url"`
	CMCAPIKey       string   `yaml:"cmc_api_key"`
	RefreshInterval Duration `yaml:"refresh_interval"`
}

// LoggingConfig configures process logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ToLoggingConfig bridges the YAML section to the logging package.
func (lc LoggingConfig) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		File:   lc.File,
	}
}

// Config is the full coinboard configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: api.DefaultBaseURL,
			Timeout: Duration(api.DefaultTimeout),
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8000",
			CMCBaseURL:      cmc.DefaultBaseURL,
			RefreshInterval: Duration(time.Minute),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Path returns the user config file location, or "" when no home directory
// can be resolved.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDirName, "config.yaml")
}

// Load builds the effective configuration: defaults, then the user config
// file (when present), then environment variables. A missing file is not an
// error; a malformed one is.
func Load() (*Config, error) {
	cfg := Default()

	if path := Path(); path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// LoadFile is Load with an explicit config file path; the file must exist.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyEnv(cfg)
	return cfg, nil
}

// mergeFile unmarshals path over cfg when the file exists.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(EnvCMCAPIKey); v != "" {
		cfg.Server.CMCAPIKey = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
}
