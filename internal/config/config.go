// Package config loads runtime settings for the okai store from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the store subsystem.
type Config struct {
	// KeyPrefix namespaces all persisted keys.
	KeyPrefix string `yaml:"key_prefix" json:"keyPrefix"`
	// RetentionDays drops conversations older than this on startup.
	RetentionDays int `yaml:"retention_days" json:"retentionDays"`
	// MaxMessagesPerPersona caps a single conversation; oldest turns go first.
	MaxMessagesPerPersona int `yaml:"max_messages_per_persona" json:"maxMessagesPerPersona"`
	// CacheSize bounds each catalog's in-memory cache.
	CacheSize int `yaml:"cache_size" json:"cacheSize"`
	// CapacityBytes is the medium quota. Zero means unlimited.
	CapacityBytes int64 `yaml:"capacity_bytes" json:"capacityBytes"`
	// DatabasePath is the SQLite file used by the CLI.
	DatabasePath string `yaml:"database_path" json:"databasePath"`
	// ProtectBuiltIns rejects deletes of personas whose record is flagged built-in.
	ProtectBuiltIns bool `yaml:"protect_built_ins" json:"protectBuiltIns"`

	Log LogConfig `yaml:"log" json:"log"`
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	// Format is "json" or "console".
	Format string `yaml:"format" json:"format"`
}

// Default returns the settings the browser client ships with.
func Default() Config {
	return Config{
		KeyPrefix:             "super_okai_",
		RetentionDays:         30,
		MaxMessagesPerPersona: 100,
		CacheSize:             128,
		CapacityBytes:         5 * 1024 * 1024,
		DatabasePath:          "okai.db",
		ProtectBuiltIns:       true,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a YAML file over the defaults. A missing file yields Default().
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the stores cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.KeyPrefix == "" {
		errs = append(errs, errors.New("key_prefix must not be empty"))
	}
	if c.RetentionDays <= 0 {
		errs = append(errs, fmt.Errorf("retention_days must be positive, got %d", c.RetentionDays))
	}
	if c.MaxMessagesPerPersona <= 0 {
		errs = append(errs, fmt.Errorf("max_messages_per_persona must be positive, got %d", c.MaxMessagesPerPersona))
	}
	if c.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("cache_size must be positive, got %d", c.CacheSize))
	}
	if c.CapacityBytes < 0 {
		errs = append(errs, fmt.Errorf("capacity_bytes must not be negative, got %d", c.CapacityBytes))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
