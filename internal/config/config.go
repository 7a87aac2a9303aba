// Package config loads the settings shared by the mathsteps commands.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Output formats for step traces.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config holds all settings.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Output   string         `yaml:"output"`
	Server   ServerConfig   `yaml:"server"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// ServerConfig configures cmd/mcp-server.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// PipelineConfig bounds the rewriting engine.
type PipelineConfig struct {
	// MaxPowerExpansion is the largest integer power of a sum the
	// simplifier multiplies out.
	MaxPowerExpansion int `yaml:"max_power_expansion"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Output:   OutputText,
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 1 << 20,
		},
		Pipeline: PipelineConfig{
			MaxPowerExpansion: 16,
		},
	}
}

// Load reads path over the defaults and applies MATHSTEPS_* environment
// overrides. A missing file is not an error; an empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("MATHSTEPS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MATHSTEPS_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv("MATHSTEPS_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MATHSTEPS_MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MATHSTEPS_MAX_BODY_BYTES: %w", err)
		}
		c.Server.MaxBodyBytes = n
	}
	if v := os.Getenv("MATHSTEPS_MAX_POWER_EXPANSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MATHSTEPS_MAX_POWER_EXPANSION: %w", err)
		}
		c.Pipeline.MaxPowerExpansion = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("output must be text, json or yaml, got %q", c.Output)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	if c.Pipeline.MaxPowerExpansion < 1 {
		return fmt.Errorf("pipeline.max_power_expansion must be at least 1")
	}
	return nil
}
