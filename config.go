package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config holds defaults that command-line options override.
type Config struct {
	Dir        string `yaml:"dir"`
	Viewer     string `yaml:"viewer"`
	Show       bool   `yaml:"show"`
	Depth      uint16 `yaml:"depth"`
	Resolution int32  `yaml:"resolution"`
	Iterations int    `yaml:"iterations"`
}

func defaultConfig() Config {
	return Config{
		Dir:        ".",
		Viewer:     "system",
		Depth:      24,
		Iterations: 64,
	}
}

// LoadConfig reads a YAML defaults file on top of the built-in defaults.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read configuration file '%s': %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse configuration file '%s': %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("configuration file '%s': %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Viewer {
	case "sdl", "system", "none":
	default:
		return fmt.Errorf("unknown viewer %q", c.Viewer)
	}
	if c.Depth != 24 && c.Depth != 32 {
		return fmt.Errorf("unsupported depth %d", c.Depth)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive")
	}
	return nil
}

// apply overrides the defaults with options given on the command line.
func (c Config) apply(opts *Options) (Config, error) {
	if opts.Dir != "" {
		c.Dir = opts.Dir
	}
	if opts.Viewer != "" {
		c.Viewer = opts.Viewer
	}
	if opts.Show {
		c.Show = true
	}
	if opts.Depth != 0 {
		c.Depth = opts.Depth
	}
	if opts.Resolution != 0 {
		c.Resolution = opts.Resolution
	}
	if opts.Iterations != 0 {
		c.Iterations = opts.Iterations
	}
	return c, c.validate()
}
