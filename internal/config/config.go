// Package config loads pipecheck settings from layered sources.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PIPECHECK_"

// LocalConfigPath is the project-level config file, relative to the
// working directory.
var LocalConfigPath = filepath.Join(".pipecheck", "config.json")

// Configuration represents the pipecheck configuration
type Configuration struct {
	MaxParallel       int    `koanf:"max_parallel" validate:"min=1,max=64"`
	HistoryLimit      int    `koanf:"history_limit" validate:"min=0"`
	StateDir          string `koanf:"state_dir" validate:"required"`
	PersistHistory    bool   `koanf:"persist_history"`
	MaxHistoryEntries int    `koanf:"max_history_entries" validate:"min=0"`
	RetryEnabled      bool   `koanf:"retry_enabled"`
	// Retry intervals are in milliseconds.
	RetryInitialInterval int    `koanf:"retry_initial_interval" validate:"min=1"`
	RetryMaxInterval     int    `koanf:"retry_max_interval" validate:"gtefield=RetryInitialInterval"`
	LogLevel             string `koanf:"log_level" validate:"oneof=debug info warn error"`
	ShowProgress         bool   `koanf:"show_progress"` // Show a spinner while suites run
	FixturesFile         string `koanf:"fixtures_file"` // YAML phase -> output overrides for the fixture worker

	NotifyEnabled       bool   `koanf:"notify_enabled"`
	NotifyType          string `koanf:"notify_type" validate:"oneof=sound visual both"`
	NotifySoundFile     string `koanf:"notify_sound_file"`
	NotifyOnComplete    bool   `koanf:"notify_on_complete"`
	NotifyOnStepFailure bool   `koanf:"notify_on_step_failure"`
	// Executions shorter than this many milliseconds are not announced.
	NotifyLongRunningThreshold int `koanf:"notify_long_running_threshold" validate:"min=0"`
}

// Load loads configuration from global, local, and environment sources
// Priority: Environment variables > Local config > Global config > Defaults
func Load(localConfigPath string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if globalPath, err := GlobalConfigPath(); err == nil {
		if err := loadFileIfExists(k, globalPath); err != nil {
			return nil, fmt.Errorf("failed to load global config: %w", err)
		}
	}

	if localConfigPath != "" {
		if err := loadFileIfExists(k, localConfigPath); err != nil {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.StateDir = expandHomePath(cfg.StateDir)
	cfg.FixturesFile = expandHomePath(cfg.FixturesFile)
	cfg.NotifySoundFile = expandHomePath(cfg.NotifySoundFile)

	return &cfg, nil
}

func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return k.Load(file.Provider(path), json.Parser())
}

// GlobalConfigPath returns ~/.pipecheck/config.json.
func GlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".pipecheck", "config.json"), nil
}

// RetryIntervals returns the configured retry backoff bounds.
func (c *Configuration) RetryIntervals() (initial, maximum time.Duration) {
	return time.Duration(c.RetryInitialInterval) * time.Millisecond,
		time.Duration(c.RetryMaxInterval) * time.Millisecond
}

// LongRunningThreshold returns the notification threshold as a duration.
func (c *Configuration) LongRunningThreshold() time.Duration {
	return time.Duration(c.NotifyLongRunningThreshold) * time.Millisecond
}

// envTransform converts environment variable names to config keys
// Example: PIPECHECK_MAX_PARALLEL -> max_parallel
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
