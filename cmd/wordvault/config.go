package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// cliConfig holds CLI defaults loaded from the config file. Flags override
// file values.
type cliConfig struct {
	// ProfileDir is the directory holding one SQLite file per profile.
	ProfileDir string `toml:"profile_dir"`
	// Profile is the profile used when --profile is not given.
	Profile string `toml:"profile"`
	// Verbose enables store diagnostics on stderr.
	Verbose bool `toml:"verbose"`
}

// defaultConfigPath is ~/.config/wordvault/config.toml.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "wordvault", "config.toml")
}

func defaultCLIConfig() cliConfig {
	cfg := cliConfig{Profile: "default", ProfileDir: "wordvault"}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.ProfileDir = filepath.Join(home, ".wordvault", "profiles")
	}
	return cfg
}

// loadCLIConfig reads the config file at path, falling back to defaults
// when the file does not exist.
func loadCLIConfig(path string) (cliConfig, error) {
	cfg := defaultCLIConfig()

	if path == "" {
		path = defaultConfigPath()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks CLI configuration
func (c *cliConfig) Validate() error {
	if c.ProfileDir == "" {
		return fmt.Errorf("profile_dir is required")
	}
	if c.Profile == "" {
		c.Profile = "default"
	}
	return nil
}
