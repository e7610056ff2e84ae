// Package config provides configuration loading and management for driftstack.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"driftstack/internal/models"
)

// DefaultFrameSize is the default width and height of a raw frame
const DefaultFrameSize = 2048

// Config represents the application configuration loaded from YAML
type Config struct {
	// Frame geometry of the raw stack
	Frame struct {
		// Width is the number of pixels per row
		Width int `yaml:"width"`

		// Height is the number of rows per frame
		Height int `yaml:"height"`
	} `yaml:"frame"`

	// Drift detection parameters
	Detect struct {
		// StabilityBound rejects frames whose drift reaches this many pixels
		StabilityBound int `yaml:"stabilityBound"`

		// IncludeReference also emits a zero record for frame 0
		IncludeReference bool `yaml:"includeReference"`
	} `yaml:"detect"`

	// Averaging parameters
	Mean struct {
		// Invert negates drift records before shifting
		Invert bool `yaml:"invert"`

		// SyntheticPeriod shifts frame i by i mod period when no drift file is given
		SyntheticPeriod int `yaml:"syntheticPeriod"`
	} `yaml:"mean"`

	// Single frame analysis parameters
	Analyze struct {
		// Size is the side of the square analysis resolution
		Size int `yaml:"size"`

		// DropRate is the fraction of brightest pixels kept in the mask
		DropRate float64 `yaml:"dropRate"`
	} `yaml:"analyze"`

	// Processing parameters
	Processing struct {
		// Workers bounds per-pass concurrency; 1 keeps every pass sequential
		Workers int `yaml:"workers"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// PNG also writes a PNG preview next to frame outputs
		PNG bool `yaml:"png"`

		// Plot writes a drift plot after detection
		Plot bool `yaml:"plot"`

		// Report writes a YAML drift report after detection
		Report bool `yaml:"report"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Frame.Width = DefaultFrameSize
	cfg.Frame.Height = DefaultFrameSize

	cfg.Detect.StabilityBound = 100

	cfg.Analyze.Size = 512
	cfg.Analyze.DropRate = 0.01

	cfg.Processing.Workers = 1

	cfg.Output.Report = true
	cfg.Output.Verbose = true

	return cfg
}

// Validate checks the configuration for values no pass can work with
func (c *Config) Validate() error {
	if c.Frame.Width <= 0 || c.Frame.Height <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", models.ErrGeometry, c.Frame.Width, c.Frame.Height)
	}
	if c.Detect.StabilityBound <= 0 {
		return fmt.Errorf("stability bound must be positive, got %d", c.Detect.StabilityBound)
	}
	if c.Analyze.Size <= 0 {
		return fmt.Errorf("%w: analysis size %d", models.ErrGeometry, c.Analyze.Size)
	}
	if c.Analyze.DropRate <= 0 || c.Analyze.DropRate > 1 {
		return fmt.Errorf("drop rate must be in (0,1], got %g", c.Analyze.DropRate)
	}
	if c.Mean.SyntheticPeriod < 0 {
		return fmt.Errorf("synthetic period must not be negative, got %d", c.Mean.SyntheticPeriod)
	}
	if c.Processing.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Processing.Workers)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.Processing.Workers = max(1, cfg.Processing.Workers)

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
