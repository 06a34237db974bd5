// Package config loads optional YAML defaults for the command line tool.
// Flags always win over the config file, the file only replaces the built in
// flag defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable defaults read from a YAML file.
type Config struct {
	// Grid extraction defaults
	Grid struct {
		// Nodata overrides the nodata value declared by datasets
		Nodata *float64 `yaml:"nodata"`

		// MaskZero additionally treats exact zero values as missing
		MaskZero bool `yaml:"maskZero"`

		// Vectorize flattens sampled grids into parallel x/y/z arrays
		Vectorize bool `yaml:"vectorize"`

		// Compact drops missing entries from vectorized output
		Compact bool `yaml:"compact"`
	} `yaml:"grid"`

	// Point filtering defaults
	Points struct {
		// IncludeGround keeps ground points in addition to canopy points
		IncludeGround bool `yaml:"includeGround"`

		// IncludeAll keeps every classification
		IncludeAll bool `yaml:"includeAll"`

		// ZOffset is the vertical offset in meters applied to points
		ZOffset float64 `yaml:"zOffset"`
	} `yaml:"points"`

	// Catalog parameters
	Catalog struct {
		// Path of the sqlite catalog database
		Path string `yaml:"path"`
	} `yaml:"catalog"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{}
}

// Load reads a YAML configuration file from the given path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}
