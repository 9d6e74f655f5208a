// Package config provides configuration management for fieldops.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// Dir is the fieldops configuration directory under $HOME.
	Dir = ".fieldops"
	// FileName is the config file name.
	FileName = "config.yaml"
	// EnvPrefix prefixes environment overrides (FIELDOPS_TOKEN, ...).
	EnvPrefix = "FIELDOPS"
)

// Config represents the fieldops configuration.
type Config struct {
	// BaseURL is the civic reporting backend root.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Token is the bearer token obtained at login.
	Token string `mapstructure:"token" yaml:"token,omitempty"`

	// OfficerID is the identity used for the "is this my task" check.
	OfficerID string `mapstructure:"officer_id" yaml:"officer_id"`

	// TimeoutSeconds bounds a single backend request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds,omitempty"`

	// CachePath overrides the snapshot cache location.
	CachePath string `mapstructure:"cache_path" yaml:"cache_path,omitempty"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		TimeoutSeconds: 30,
	}
}

// Load reads configuration from viper (config file + FIELDOPS_* env).
func Load() (*Config, error) {
	cfg := Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields every remote command needs.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is not set; run 'fieldops login' first")
	}
	if c.OfficerID == "" {
		return fmt.Errorf("officer_id is not set; run 'fieldops login' first")
	}
	if c.Token == "" {
		return fmt.Errorf("no API token; run 'fieldops login' first")
	}
	return nil
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, Dir, FileName), nil
}

// DefaultCachePath returns the snapshot cache path, honoring the
// configured override.
func (c *Config) DefaultCachePath() (string, error) {
	if c.CachePath != "" {
		return c.CachePath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, Dir, "cache.db"), nil
}

// Save writes the configuration to the given path, creating the
// directory if needed. The token lives here with user-only permissions.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
