package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds defaults for every command. Flags override it.
type Config struct {
	Metric      string `yaml:"metric"`
	LeafSize    int    `yaml:"leaf_size"`
	Seed        int64  `yaml:"seed"`
	Workers     int    `yaml:"workers"`
	Compression string `yaml:"compression"`
	Algorithm   string `yaml:"algorithm"`
	LogLevel    string `yaml:"log_level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Metric:      "euclidean",
		LeafSize:    8,
		Seed:        42,
		Compression: "none",
		Algorithm:   "best-first",
		LogLevel:    "warn",
	}
}

// LoadConfig reads a YAML file over the defaults. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.LeafSize < 1 {
		return cfg, fmt.Errorf("invalid leaf_size %d in %s", cfg.LeafSize, path)
	}
	return cfg, nil
}
