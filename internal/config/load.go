package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/uvatlas/internal/layout"
	"github.com/Faultbox/uvatlas/pkg/encoding"
)

// ErrInvalidConfig is returned when a loaded config holds unusable values.
var ErrInvalidConfig = errors.New("invalid config")

// FileName is the config file looked up in the working directory.
const FileName = "uvatlas.yaml"

// Load loads configuration with priority: defaults < file.
// Command-line options are applied on top by the caller.
func Load(explicitPath string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Explicit path takes priority
	configPath := explicitPath
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the YAML decoder cannot.
func (c *Config) Validate() error {
	if _, ok := layout.ParseStrategy(c.Pipeline.AtlasLayout); !ok {
		return fmt.Errorf("%w: unknown atlas_layout %q", ErrInvalidConfig, c.Pipeline.AtlasLayout)
	}
	if _, err := encoding.Lookup(c.Pipeline.NameEncoding); err != nil {
		return fmt.Errorf("%w: name_encoding: %w", ErrInvalidConfig, err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	if c.Preview.MaxSize < 0 {
		return fmt.Errorf("%w: preview max_size must not be negative", ErrInvalidConfig)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		filepath.Join(".", FileName),
		filepath.Join(ConfigDir(), "config.yaml"),
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
		return filepath.Join(home, "Library", "Application Support", "uvatlas")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "uvatlas")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "uvatlas")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "uvatlas")
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
