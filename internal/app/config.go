package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// RootFile is the settings file whose inclusion assembles the namespace.
	RootFile string

	// SearchPaths are the roots dotted fragment references resolve against.
	SearchPaths []string

	// Format selects the output rendering: "json" or "yaml".
	Format string

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.RootFile == "" {
		return nil, errors.New("RootFile is a required configuration field and cannot be empty")
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.Format != "json" && cfg.Format != "yaml" {
		return nil, fmt.Errorf("invalid output format %q: must be 'json' or 'yaml'", cfg.Format)
	}
	return &cfg, nil
}
