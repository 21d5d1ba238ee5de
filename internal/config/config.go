// Package config loads the packetline daemon configuration from a
// single YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete packetline configuration.
type Config struct {
	Service   ServiceConfig           `yaml:"service"`
	Dispatch  DispatchConfig          `yaml:"dispatch"`
	Audit     AuditConfig             `yaml:"audit,omitempty"`
	API       APIConfig               `yaml:"api,omitempty"`
	Listeners map[string]ListenerConf `yaml:"listeners"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
	// LockPath is an optional PID lock file; empty disables the lock.
	LockPath string `yaml:"lock_path,omitempty"`
}

// DispatchConfig tunes every listener's dispatch handler.
type DispatchConfig struct {
	QueueCapacity   int           `yaml:"queue_capacity"`
	ConvergeTimeout time.Duration `yaml:"converge_timeout"`
}

// AuditConfig defines the processed-event log.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// APIConfig defines the management HTTP server.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	// APIKey is an optional bearer token; empty disables auth.
	APIKey string `yaml:"api_key,omitempty"`
}

// ListenerConf configures one registered listener.
type ListenerConf struct {
	Enabled bool `yaml:"enabled"`
	Workers int  `yaml:"workers"`
}

// Load reads, verifies and validates configuration from a file. When a
// sidecar checksum file exists next to the config, the config must match
// it (see integrity.go).
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", absPath, err)
	}

	if err := VerifySidecar(absPath); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "packetline"
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = "INFO"
	}
	if cfg.Dispatch.QueueCapacity <= 0 {
		cfg.Dispatch.QueueCapacity = 1024
	}
	if cfg.Dispatch.ConvergeTimeout <= 0 {
		cfg.Dispatch.ConvergeTimeout = time.Second
	}
	if cfg.API.Enabled && cfg.API.Listen == "" {
		cfg.API.Listen = "127.0.0.1:8723"
	}
	for name, lc := range cfg.Listeners {
		if lc.Workers <= 0 {
			lc.Workers = 1
			cfg.Listeners[name] = lc
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Audit.Enabled && cfg.Audit.Path == "" {
		return fmt.Errorf("audit.path is required when audit is enabled")
	}
	for name, lc := range cfg.Listeners {
		if lc.Workers > cfg.Dispatch.QueueCapacity {
			return fmt.Errorf("listener %q: workers (%d) exceeds dispatch.queue_capacity (%d)",
				name, lc.Workers, cfg.Dispatch.QueueCapacity)
		}
	}
	return nil
}
