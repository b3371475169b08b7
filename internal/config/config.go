// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package config loads the user-level tool configuration: forge API
// tokens for PR resolution and defaults for parallel operations.
// Workspace structure itself lives in the .meta manifest, not here.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the tool configuration.
type Config struct {
	GitHub GitHubConfig `yaml:"github"`
	GitLab GitLabConfig `yaml:"gitlab"`
	Clone  CloneConfig  `yaml:"clone"`
}

// GitHubConfig holds GitHub API settings for --from-pr resolution.
type GitHubConfig struct {
	Token string `yaml:"token"`
}

// GitLabConfig holds GitLab API settings for --from-pr resolution.
type GitLabConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

// CloneConfig holds clone engine defaults.
type CloneConfig struct {
	Parallel int `yaml:"parallel"`
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	return &Config{
		Clone: CloneConfig{Parallel: 4},
	}
}

// Load loads configuration from file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadDefault loads configuration from default locations, falling
// back to defaults plus environment overrides when no file exists.
func LoadDefault() (*Config, error) {
	locations := []string{
		".gz-meta.yaml",
		filepath.Join(os.Getenv("HOME"), ".config", "gz-meta", "config.yaml"),
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return Load(loc)
		}
	}

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Environment variables win over file contents.
func (c *Config) applyEnvOverrides() {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		c.GitHub.Token = token
	}
	if token := os.Getenv("GITLAB_TOKEN"); token != "" {
		c.GitLab.Token = token
	}
}
