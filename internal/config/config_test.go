// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesTokensAndDefaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITLAB_TOKEN", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
github:
  token: gh-file-token
gitlab:
  token: gl-file-token
  base_url: https://gitlab.example.com
clone:
  parallel: 8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GitHub.Token != "gh-file-token" || cfg.GitLab.Token != "gl-file-token" {
		t.Errorf("tokens = %+v", cfg)
	}
	if cfg.GitLab.BaseURL != "https://gitlab.example.com" {
		t.Errorf("base_url = %q", cfg.GitLab.BaseURL)
	}
	if cfg.Clone.Parallel != 8 {
		t.Errorf("parallel = %d", cfg.Clone.Parallel)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "gh-env-token")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("github:\n  token: gh-file-token\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GitHub.Token != "gh-env-token" {
		t.Errorf("env must win, got %q", cfg.GitHub.Token)
	}
}

func TestLoadDefaultWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITLAB_TOKEN", "")

	dir := t.TempDir()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldwd)

	cfg, err := LoadDefault()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Clone.Parallel != 4 {
		t.Errorf("default parallel = %d, want 4", cfg.Clone.Parallel)
	}
}
