// Package config provides configuration file support for pmxlock.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pmxlock-project/pmxlock/pkg/errclass"
	"github.com/pmxlock-project/pmxlock/pkg/fsutil"
)

// DefaultPath is where pmxlock looks for its configuration unless overridden.
const DefaultPath = "/etc/pmxlock/config.yaml"

// Config represents the pmxlock configuration.
type Config struct {
	// LocalLockDir holds one advisory lock file per lock name on this host.
	LocalLockDir string `yaml:"local_lock_dir"`
	// SharedLockDir is the replicated directory namespace used for
	// cluster-wide lock entries.
	SharedLockDir string `yaml:"shared_lock_dir"`
	// HistoryFile is the append-only lock activity log.
	HistoryFile string `yaml:"history_file"`
	// ExpiryThreshold is the staleness threshold the shared store is assumed
	// to apply to lock entries, e.g. "120s". Heartbeats are sent at 80% of
	// this interval.
	ExpiryThreshold string        `yaml:"expiry_threshold"`
	Logging         LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		LocalLockDir:    "/run/lock/pmxlock",
		SharedLockDir:   "/etc/pve/priv/lock",
		HistoryFile:     "/var/log/pmxlock/history.jsonl",
		ExpiryThreshold: "120s",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from path. Returns defaults if the file doesn't
// exist; fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errclass.ErrConfigInvalid.Wrapf(err, "parse %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to path atomically.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return fsutil.AtomicWrite(path, data, 0644)
}

// Validate checks field values that are parsed lazily.
func (c *Config) Validate() error {
	if c.LocalLockDir == "" {
		return errclass.ErrConfigInvalid.WithMessage("local_lock_dir must not be empty")
	}
	if c.SharedLockDir == "" {
		return errclass.ErrConfigInvalid.WithMessage("shared_lock_dir must not be empty")
	}
	d, err := time.ParseDuration(c.ExpiryThreshold)
	if err != nil {
		return errclass.ErrConfigInvalid.Wrapf(err, "expiry_threshold %q", c.ExpiryThreshold)
	}
	if d <= 0 {
		return errclass.ErrConfigInvalid.WithMessagef("expiry_threshold must be positive, got %q", c.ExpiryThreshold)
	}
	return nil
}

// Expiry returns the parsed staleness threshold.
func (c *Config) Expiry() time.Duration {
	d, err := time.ParseDuration(c.ExpiryThreshold)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}

// RefreshInterval returns the recommended heartbeat cadence: 80% of the
// staleness threshold.
func (c *Config) RefreshInterval() time.Duration {
	return c.Expiry() * 8 / 10
}
