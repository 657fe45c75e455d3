// Package config loads accesshub configuration and the application catalog
// fixture from YAML, with in-code defaults when no files are present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Progression ProgressionConfig `yaml:"progression"`
	// CatalogPath points at a YAML catalog fixture. Empty selects the
	// built-in catalog; a set path that fails to load is fatal at startup.
	CatalogPath string `yaml:"catalog_path"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AuditLogPath    string        `yaml:"audit_log_path"`
}

// LoggingConfig mirrors pkg/logger's construction options.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	FilePrefix string `yaml:"file_prefix"`
}

// ProgressionConfig tunes the autonomous request driver.
type ProgressionConfig struct {
	Schedule             string  `yaml:"schedule"`
	ApproveProbability   float64 `yaml:"approve_probability"`
	ProvisionProbability float64 `yaml:"provision_probability"`
	CompleteProbability  float64 `yaml:"complete_probability"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Progression: ProgressionConfig{
			Schedule:             "@every 5s",
			ApproveProbability:   0.3,
			ProvisionProbability: 0.2,
			CompleteProbability:  0.1,
		},
	}
}

// LoadFromPath loads configuration from a specific YAML file, filling unset
// fields with defaults.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Progression.Schedule == "" {
		cfg.Progression.Schedule = "@every 5s"
	}
	return cfg, nil
}

// LoadOrDefault loads config/accesshub.yaml when it exists, otherwise returns
// the defaults.
func LoadOrDefault() *Config {
	path := filepath.Join("config", "accesshub.yaml")
	cfg, err := LoadFromPath(path)
	if err != nil {
		return Default()
	}
	return cfg
}
