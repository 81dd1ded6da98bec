package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Device DeviceConfig `json:"device"`
	Rotate RotateConfig `json:"rotate"`
	Output OutputConfig `json:"output"`
}

// DeviceConfig holds configuration for the accelerator memory domain
type DeviceConfig struct {
	Name           string `json:"name"`
	PitchAlignment int    `json:"pitch_alignment"`
	CapacityMB     int64  `json:"capacity_mb"`
}

// RotateConfig holds configuration for the rotation engine
type RotateConfig struct {
	Workers      int     `json:"workers"`
	DefaultAngle float64 `json:"default_angle"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	OutputDir string `json:"output_dir"`
	Prefix    string `json:"prefix"`
	Suffix    string `json:"suffix"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:           "hostsim",
			PitchAlignment: 64,
			CapacityMB:     256,
		},
		Rotate: RotateConfig{
			Workers:      0, // 0 = all CPUs
			DefaultAngle: 45,
		},
		Output: OutputConfig{
			OutputDir: ".",
			Prefix:    "",
			Suffix:    "_rotated",
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	a := c.Device.PitchAlignment
	if a <= 0 || a&(a-1) != 0 {
		return fmt.Errorf("device.pitch_alignment must be a power of two")
	}

	if a > 4096 {
		return fmt.Errorf("device.pitch_alignment must be at most 4096")
	}

	if c.Device.CapacityMB < 1 {
		return fmt.Errorf("device.capacity_mb must be positive")
	}

	if c.Rotate.Workers < 0 {
		return fmt.Errorf("rotate.workers must not be negative")
	}

	if c.Output.OutputDir == "" {
		return fmt.Errorf("output.output_dir cannot be empty")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "raster-rotate", "config.json")
}
