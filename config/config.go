// Package config loads the CLI configuration: model aliases, SSH host
// aliases, pricing, and storage locations. A missing config file yields the
// compiled-in defaults; a malformed one is an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all user-tunable settings.
type Config struct {
	// Provider is the gollm provider identifier.
	Provider string `yaml:"provider"`
	// BaseURL overrides the provider endpoint (OpenAI-compatible APIs).
	BaseURL string `yaml:"base_url"`
	// Models maps short aliases to full model identifiers.
	Models map[string]string `yaml:"models"`
	// DefaultModel is the alias used when --model is not given.
	DefaultModel string `yaml:"default_model"`
	// SSHHosts maps host aliases to user@host connection targets.
	SSHHosts map[string]string `yaml:"ssh_hosts"`
	// SessionsDir is where named session transcripts are stored.
	SessionsDir string `yaml:"sessions_dir"`
	// MaxIterations caps model round-trips per user input.
	MaxIterations int `yaml:"max_iterations"`
	// Pricing per 1k tokens, used for the cost summary line.
	CostPer1KInput  float64 `yaml:"cost_per_1k_input"`
	CostPer1KOutput float64 `yaml:"cost_per_1k_output"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Provider: "openai",
		Models: map[string]string{
			"fast":  "moonshotai/kimi-k2-instruct",
			"smart": "moonshotai/kimi-k2.5",
			"think": "moonshotai/kimi-k2-thinking",
		},
		DefaultModel:    "fast",
		SSHHosts:        map[string]string{},
		SessionsDir:     filepath.Join(home, ".kimi", "sessions"),
		MaxIterations:   20,
		CostPer1KInput:  0.015,
		CostPer1KOutput: 0.060,
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".kimi", "config.yaml")
}

// Load reads the config file at path, merging it over the defaults. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 20
	}
	if cfg.SessionsDir == "" {
		cfg.SessionsDir = Default().SessionsDir
	}
	return cfg, nil
}

// ResolveModel maps a model alias to a full model identifier. Unknown
// aliases pass through unchanged so full model names work directly.
func (c *Config) ResolveModel(alias string) string {
	if alias == "" {
		alias = c.DefaultModel
	}
	if full, ok := c.Models[alias]; ok {
		return full
	}
	return alias
}

// ResolveSSHHost maps a host alias to a user@host target. Unknown aliases
// pass through so explicit user@host values work directly.
func (c *Config) ResolveSSHHost(alias string) string {
	if target, ok := c.SSHHosts[alias]; ok {
		return target
	}
	return alias
}
