// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package manifest reads workspace manifests. A manifest lists the
// child repositories of a meta repository: their paths, clone URLs,
// and (in the YAML variant) provides/depends_on relations, tags, and
// SSH options.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the on-disk manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Candidate filenames in lookup order. `.meta` and `.meta.json` are
// JSON; `.meta.yaml` and `.meta.yml` are YAML.
var candidates = []struct {
	name   string
	format Format
}{
	{".meta", FormatJSON},
	{".meta.json", FormatJSON},
	{".meta.yaml", FormatYAML},
	{".meta.yml", FormatYAML},
}

// Project is a single manifest entry.
type Project struct {
	// Name is the display name; defaults to the last path segment.
	Name string

	// Path is the project directory relative to the workspace root.
	Path string

	// RepoURL is the clone URL. Empty for root-only entries.
	RepoURL string

	// Provides lists symbols this project offers to dependents (YAML only).
	Provides []string

	// DependsOn lists symbols this project requires (YAML only).
	DependsOn []string

	// Tags are free-form labels (YAML only).
	Tags []string
}

// SSHConfig is the optional top-level `ssh` manifest section (YAML only).
type SSHConfig struct {
	// ControlPersistSeconds configures multiplexing master lifetime.
	ControlPersistSeconds int `yaml:"control_persist"`

	// SSHCommand overrides GIT_SSH_COMMAND for git subprocesses.
	SSHCommand string `yaml:"ssh_command"`
}

// Workspace is a parsed manifest.
type Workspace struct {
	Projects []Project
	Ignore   []string
	SSH      *SSHConfig
}

// Project looks up an entry by path, returning nil when absent.
func (w *Workspace) Project(path string) *Project {
	for i := range w.Projects {
		if w.Projects[i].Path == path {
			return &w.Projects[i]
		}
	}
	return nil
}

// jsonManifest is the minimum JSON shape: projects as path->url.
type jsonManifest struct {
	Projects map[string]string `json:"projects"`
	Ignore   []string          `json:"ignore"`
}

// yamlManifest is the richer YAML shape.
type yamlManifest struct {
	Projects map[string]yamlProject `yaml:"projects"`
	Ignore   []string               `yaml:"ignore"`
	SSH      *SSHConfig             `yaml:"ssh"`
}

// yamlProject accepts either a bare URL scalar or a mapping with
// repo/provides/depends_on/tags.
type yamlProject struct {
	Repo      string   `yaml:"repo"`
	Provides  []string `yaml:"provides"`
	DependsOn []string `yaml:"depends_on"`
	Tags      []string `yaml:"tags"`
}

func (p *yamlProject) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		p.Repo = value.Value
		return nil
	}
	type plain yamlProject
	return value.Decode((*plain)(p))
}

// Parse reads and decodes the manifest at path. The format is derived
// from the filename.
func Parse(path string) (*Workspace, error) {
	format := FormatJSON
	base := filepath.Base(path)
	if strings.HasSuffix(base, ".yaml") || strings.HasSuffix(base, ".yml") {
		format = FormatYAML
	}
	return ParseAs(path, format)
}

// ParseAs reads and decodes the manifest at path with an explicit format.
func ParseAs(path string, format Format) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, &ParseError{Path: path, Err: err}
	}

	ws := &Workspace{}
	switch format {
	case FormatYAML:
		var m yamlManifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		for p, spec := range m.Projects {
			ws.Projects = append(ws.Projects, Project{
				Name:      nameFromPath(p),
				Path:      p,
				RepoURL:   spec.Repo,
				Provides:  spec.Provides,
				DependsOn: spec.DependsOn,
				Tags:      spec.Tags,
			})
		}
		ws.Ignore = m.Ignore
		ws.SSH = m.SSH
	default:
		var m jsonManifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		for p, url := range m.Projects {
			ws.Projects = append(ws.Projects, Project{
				Name:    nameFromPath(p),
				Path:    p,
				RepoURL: url,
			})
		}
		ws.Ignore = m.Ignore
	}

	if err := validate(ws, path); err != nil {
		return nil, err
	}

	// Map iteration order is random; keep output deterministic.
	sort.Slice(ws.Projects, func(i, j int) bool {
		return ws.Projects[i].Path < ws.Projects[j].Path
	})

	return ws, nil
}

func validate(ws *Workspace, path string) error {
	seen := make(map[string]bool, len(ws.Projects))
	for _, p := range ws.Projects {
		if p.Path == "" {
			return &ParseError{Path: path, Err: fmt.Errorf("project with empty path")}
		}
		if filepath.IsAbs(p.Path) {
			return &ParseError{Path: path, Err: fmt.Errorf("project path must be relative: %s", p.Path)}
		}
		if seen[p.Path] {
			return &ParseError{Path: path, Err: fmt.Errorf("duplicate project path: %s", p.Path)}
		}
		seen[p.Path] = true
	}
	return nil
}

func nameFromPath(path string) string {
	clean := strings.TrimRight(filepath.ToSlash(path), "/")
	if idx := strings.LastIndex(clean, "/"); idx >= 0 {
		return clean[idx+1:]
	}
	return clean
}
