// Package config loads the stlslice YAML configuration and provides defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration loaded from YAML
type Config struct {
	Server struct {
		// Addr is the HTTP listen address
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Data struct {
		// Mesh is the STL file shown with the slices
		Mesh string `yaml:"mesh"`

		// SliceDir holds the DICOM files of the stack
		SliceDir string `yaml:"sliceDir"`

		// Watch inserts files that appear in SliceDir while serving
		Watch bool `yaml:"watch"`

		// Debounce is how long a file must be quiet before it is loaded
		Debounce time.Duration `yaml:"debounce"`
	} `yaml:"data"`

	View struct {
		// SlabThickness is the full thickness in mm kept by the crop option
		SlabThickness float64 `yaml:"slabThickness"`

		// DefaultPercent is the slider position selected at startup
		DefaultPercent float64 `yaml:"defaultPercent"`

		OverlayColor  string  `yaml:"overlayColor"`
		LineWidth     float64 `yaml:"lineWidth"`
		PreviewWidth  int     `yaml:"previewWidth"`
		PreviewHeight int     `yaml:"previewHeight"`
	} `yaml:"view"`

	Log struct {
		// Level is one of debug, info, warn, error
		Level string `yaml:"level"`

		// Format is text or json
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Addr = "localhost:8080"

	cfg.Data.Watch = false
	cfg.Data.Debounce = 250 * time.Millisecond

	cfg.View.SlabThickness = 2.0
	cfg.View.DefaultPercent = 50
	cfg.View.OverlayColor = "#ff0000"
	cfg.View.LineWidth = 2
	cfg.View.PreviewWidth = 640
	cfg.View.PreviewHeight = 480

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Data.Debounce < 0 {
		errs = append(errs, errors.New("data.debounce must not be negative"))
	}
	if c.View.SlabThickness < 0 {
		errs = append(errs, errors.New("view.slabThickness must not be negative"))
	}
	if c.View.DefaultPercent < 0 || c.View.DefaultPercent > 100 {
		errs = append(errs, fmt.Errorf("view.defaultPercent %v outside [0, 100]", c.View.DefaultPercent))
	}
	if !strings.HasPrefix(c.View.OverlayColor, "#") {
		errs = append(errs, fmt.Errorf("view.overlayColor %q is not a hex colour", c.View.OverlayColor))
	}
	if c.View.LineWidth <= 0 {
		errs = append(errs, errors.New("view.lineWidth must be positive"))
	}
	if c.View.PreviewWidth <= 0 || c.View.PreviewHeight <= 0 {
		errs = append(errs, errors.New("view preview size must be positive"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}
