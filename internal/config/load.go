package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"gopkg.in/yaml.v3"
)

// CaptureFormats lists the supported capture encodings.
var CaptureFormats = []string{"png", "webp", "exr"}

// Load loads configuration with priority: defaults < file < flags.
// flags may be nil.
func Load(flags *Flags) (*Config, error) {
	cfg := Default()

	configPath := flags.ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	flags.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports settings that cannot be clamped into something usable.
// Numeric effect and camera values are clamped downstream instead.
func (c *Config) Validate() error {
	var errs []error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics size %dx%d must be positive", c.Graphics.Width, c.Graphics.Height))
	}
	if !slices.Contains(CaptureFormats, c.Capture.Format) {
		errs = append(errs, fmt.Errorf("capture format %q not one of %v", c.Capture.Format, CaptureFormats))
	}
	if c.Terrain.Size < 2 {
		errs = append(errs, fmt.Errorf("terrain size %d must be at least 2", c.Terrain.Size))
	}
	if c.Depth.Scale < 1 {
		errs = append(errs, fmt.Errorf("depth scale %d must be at least 1", c.Depth.Scale))
	}
	return errors.Join(errs...)
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./shockwave.yaml",
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
		return filepath.Join(home, "Library", "Application Support", "Shockwave")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Shockwave")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "shockwave")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "shockwave")
	}
}

// loadFromFile merges a YAML file over cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
