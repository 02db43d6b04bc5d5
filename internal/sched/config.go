package sched

import (
	"fmt"
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors config.yml
type Config struct {
	Capacity          int    `yaml:"capacity"`            // 4 (by default)
	ShutdownTimeoutMS int    `yaml:"shutdown_timeout_ms"` // 60000 (by default)
	LogLevel          string `yaml:"log_level"`           // info (by default)
	LogEncoding       string `yaml:"log_encoding"`        // console (by default)
	EventCSV          string `yaml:"event_csv"`           // empty disables the CSV event log
}

// DefaultConfig is used when no config file is found.
func DefaultConfig() Config {
	return Config{
		Capacity:          4,
		ShutdownTimeoutMS: 60000,
		LogLevel:          "info",
		LogEncoding:       "console",
	}
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// Load reads YAML and overrides defaults; empty path or unreadable file = defaults only
func Load(path string) Config {
	cfg, err := LoadStrict(path)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// LoadStrict is Load but reports read and parse errors.
func LoadStrict(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.clamp()
	return cfg, nil
}

// sanity clamps
func (c *Config) clamp() {
	def := DefaultConfig()
	if c.Capacity < 1 {
		c.Capacity = def.Capacity
	}
	if c.ShutdownTimeoutMS <= 0 {
		c.ShutdownTimeoutMS = def.ShutdownTimeoutMS
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.LogEncoding == "" {
		c.LogEncoding = def.LogEncoding
	}
}
