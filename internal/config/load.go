package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	r := c.Remesh
	if r.MinEdge <= 0 || r.MaxEdge <= 0 {
		return errors.New("config: remesh edge bounds must be positive")
	}
	if r.MinEdge >= r.MaxEdge {
		return fmt.Errorf("config: remesh min_edge %g must be below max_edge %g", r.MinEdge, r.MaxEdge)
	}
	if r.SplitScale <= 1 {
		return fmt.Errorf("config: remesh split_scale %g must exceed 1", r.SplitScale)
	}
	if c.Index.MaxLeafSize < 1 {
		return fmt.Errorf("config: index max_leaf_size %d must be positive", c.Index.MaxLeafSize)
	}
	switch r.CollapsePolicy {
	case "valence", "error":
	default:
		return fmt.Errorf("config: unknown collapse_policy %q", r.CollapsePolicy)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./sculpt.yaml",
		filepath.Join(ConfigDir(), "sculpt.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "MidgardSculpt")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "MidgardSculpt")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "midgard-sculpt")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "midgard-sculpt")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
