package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration
type Config struct {
	Version   string     `yaml:"version"`
	Provider  string     `yaml:"provider"`
	Region    string     `yaml:"region"`
	State     State      `yaml:"state"`
	Scan      Scan       `yaml:"scan,omitempty"`
	PolicyDir string     `yaml:"policy_dir,omitempty"`
	History   HistoryCfg `yaml:"history,omitempty"`
}

// State locates the declared-state snapshot
type State struct {
	Path string `yaml:"path"`
}

// Scan defines scan behavior
type Scan struct {
	ResourceTypes   []string      `yaml:"resource_types,omitempty"`
	Concurrency     int           `yaml:"concurrency,omitempty"`
	Timeout         time.Duration `yaml:"timeout,omitempty"`
	MaxAttempts     int           `yaml:"max_attempts,omitempty"`
	IncludeComputed bool          `yaml:"include_computed,omitempty"`
}

// HistoryCfg configures scan-report persistence
type HistoryCfg struct {
	Dir string `yaml:"dir,omitempty"`
}

// Defaults applied when the config leaves scan behavior unset
const (
	DefaultConcurrency = 4
	DefaultMaxAttempts = 3
	DefaultTimeout     = 5 * time.Minute
)

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills unset scan behavior
func (c *Config) applyDefaults() {
	if c.Scan.Concurrency == 0 {
		c.Scan.Concurrency = DefaultConcurrency
	}
	if c.Scan.MaxAttempts == 0 {
		c.Scan.MaxAttempts = DefaultMaxAttempts
	}
	if c.Scan.Timeout == 0 {
		c.Scan.Timeout = DefaultTimeout
	}
}

// Validate ensures config has required fields
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.State.Path == "" {
		return fmt.Errorf("state path is required")
	}
	if c.Scan.Concurrency < 1 {
		return fmt.Errorf("scan concurrency must be positive")
	}
	if c.Scan.MaxAttempts < 1 {
		return fmt.Errorf("scan max_attempts must be positive")
	}
	return nil
}
