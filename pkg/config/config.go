// Package config provides configuration loading and management for nyulnorm.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Normalization parameters
	Normalization struct {
		// IMin is the percentile floor (percent) that prunes low outlier intensities
		IMin float64 `yaml:"iMin"`

		// IMax is the percentile ceiling (percent) that prunes high outlier intensities
		IMax float64 `yaml:"iMax"`

		// ISMin is the standard-scale value the IMin landmark maps to
		ISMin float64 `yaml:"isMin"`

		// ISMax is the standard-scale value the IMax landmark maps to
		ISMax float64 `yaml:"isMax"`

		// LPercentile is the first interior landmark percentile
		LPercentile float64 `yaml:"lPercentile"`

		// UPercentile is the last interior landmark percentile
		UPercentile float64 `yaml:"uPercentile"`

		// Step is the spacing between interior landmark percentiles
		Step float64 `yaml:"step"`

		// InterpType selects the landmark interpolation: "linear" or "spline"
		InterpType string `yaml:"interpType"`

		// Extrapolation selects out-of-range handling: "linear" or "clamp"
		Extrapolation string `yaml:"extrapolation"`

		// MaskBackground restricts landmark extraction to pixels above the image mean
		MaskBackground bool `yaml:"maskBackground"`
	} `yaml:"normalization"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for parallel processing
		NumCores int `yaml:"numCores"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"processing"`
}

// DefaultConfig returns a configuration with default values: the decile
// landmark formulation on a [1, 100] standard range.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Normalization.IMin = 1
	cfg.Normalization.IMax = 99
	cfg.Normalization.ISMin = 1
	cfg.Normalization.ISMax = 100
	cfg.Normalization.LPercentile = 10
	cfg.Normalization.UPercentile = 90
	cfg.Normalization.Step = 10
	cfg.Normalization.InterpType = "linear"
	cfg.Normalization.Extrapolation = "linear"
	cfg.Normalization.MaskBackground = false

	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
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
