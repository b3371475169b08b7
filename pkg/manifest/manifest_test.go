// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseJSONMinimumShape(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".meta", `{
		"projects": {
			"app": "git@github.com:org/app.git",
			"libs/util": "git@github.com:org/util.git"
		},
		"ignore": ["*.tmp"]
	}`)

	ws, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ws.Projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(ws.Projects))
	}
	// Sorted by path.
	if ws.Projects[0].Path != "app" || ws.Projects[1].Path != "libs/util" {
		t.Errorf("unexpected project order: %+v", ws.Projects)
	}
	if ws.Projects[1].Name != "util" {
		t.Errorf("name should default to last path segment, got %q", ws.Projects[1].Name)
	}
	if ws.Projects[0].RepoURL != "git@github.com:org/app.git" {
		t.Errorf("unexpected repo url: %q", ws.Projects[0].RepoURL)
	}
	if !reflect.DeepEqual(ws.Ignore, []string{"*.tmp"}) {
		t.Errorf("unexpected ignore: %v", ws.Ignore)
	}
	// JSON never carries relationship fields.
	if ws.Projects[0].Provides != nil || ws.Projects[0].DependsOn != nil {
		t.Errorf("JSON shape must not populate provides/depends_on")
	}
	if ws.SSH != nil {
		t.Errorf("JSON shape must not populate ssh section")
	}
}

func TestParseYAMLRichShape(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".meta.yaml", `
projects:
  app:
    repo: git@gitlab.example.com:org/app.git
    depends_on: [libcore]
    tags: [backend]
  lib:
    repo: git@gitlab.example.com:org/lib.git
    provides: [libcore]
  plain: git@gitlab.example.com:org/plain.git
ignore:
  - "*.log"
ssh:
  control_persist: 900
  ssh_command: ssh -o ConnectTimeout=5
`)

	ws, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ws.Projects) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(ws.Projects))
	}

	app := ws.Project("app")
	if app == nil {
		t.Fatal("project app missing")
	}
	if !reflect.DeepEqual(app.DependsOn, []string{"libcore"}) {
		t.Errorf("depends_on not parsed: %v", app.DependsOn)
	}
	if !reflect.DeepEqual(app.Tags, []string{"backend"}) {
		t.Errorf("tags not parsed: %v", app.Tags)
	}

	lib := ws.Project("lib")
	if !reflect.DeepEqual(lib.Provides, []string{"libcore"}) {
		t.Errorf("provides not parsed: %v", lib.Provides)
	}

	// Scalar form still works in YAML.
	plain := ws.Project("plain")
	if plain.RepoURL != "git@gitlab.example.com:org/plain.git" {
		t.Errorf("scalar project not parsed: %q", plain.RepoURL)
	}

	if ws.SSH == nil || ws.SSH.ControlPersistSeconds != 900 {
		t.Errorf("ssh section not parsed: %+v", ws.SSH)
	}
	if ws.SSH.SSHCommand != "ssh -o ConnectTimeout=5" {
		t.Errorf("ssh_command not parsed: %q", ws.SSH.SSHCommand)
	}
}

func TestParseErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Parse(filepath.Join(dir, ".meta"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeFile(t, dir, ".meta", `{"projects": `)
		_, err := Parse(path)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("expected ParseError, got %v", err)
		}
	})

	t.Run("absolute path rejected", func(t *testing.T) {
		sub := filepath.Join(dir, "abs")
		path := writeFile(t, sub, ".meta", `{"projects": {"/abs/path": "url"}}`)
		var parseErr *ParseError
		if _, err := Parse(path); !errors.As(err, &parseErr) {
			t.Errorf("expected ParseError for absolute path, got %v", err)
		}
	})
}

func TestFindConfigWalksUpward(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".meta", `{"projects": {}}`)
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, format, err := FindConfig(nested)
	if err != nil {
		t.Fatalf("FindConfig failed: %v", err)
	}
	if format != FormatJSON {
		t.Errorf("expected JSON format, got %v", format)
	}
	resolved, _ := filepath.EvalSymlinks(filepath.Dir(path))
	wantRoot, _ := filepath.EvalSymlinks(root)
	if resolved != wantRoot {
		t.Errorf("expected manifest in %s, found %s", wantRoot, path)
	}
}

func TestFindConfigPrefersJSONOverYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".meta", `{"projects": {}}`)
	writeFile(t, dir, ".meta.yaml", "projects: {}\n")

	path, format, ok := FindConfigIn(dir)
	if !ok {
		t.Fatal("manifest not found")
	}
	if format != FormatJSON || filepath.Base(path) != ".meta" {
		t.Errorf("expected .meta (json) to win, got %s (%v)", path, format)
	}
}

func TestFindConfigNotFound(t *testing.T) {
	// An isolated temp dir whose parents hold no manifest is not
	// guaranteed, so test FindConfigIn directly.
	if _, _, ok := FindConfigIn(t.TempDir()); ok {
		t.Error("expected no manifest in empty dir")
	}
}

func TestWalkTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".meta", `{"projects": {"a": "url-a", "b": "url-b"}}`)
	writeFile(t, filepath.Join(root, "b"), ".meta", `{"projects": {"c": "url-c"}}`)
	writeFile(t, filepath.Join(root, "b", "c"), ".meta", `{"projects": {"d": "url-d"}}`)

	t.Run("unlimited", func(t *testing.T) {
		paths, err := WalkTree(root, nil)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"a", "b", "b/c", "b/c/d"}
		if !reflect.DeepEqual(paths, want) {
			t.Errorf("got %v, want %v", paths, want)
		}
	})

	t.Run("depth zero", func(t *testing.T) {
		zero := 0
		paths, err := WalkTree(root, &zero)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"a", "b"}
		if !reflect.DeepEqual(paths, want) {
			t.Errorf("got %v, want %v", paths, want)
		}
	})

	t.Run("depth one", func(t *testing.T) {
		one := 1
		paths, err := WalkTree(root, &one)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"a", "b", "b/c"}
		if !reflect.DeepEqual(paths, want) {
			t.Errorf("got %v, want %v", paths, want)
		}
	})
}

func TestWalkTreeDeduplicates(t *testing.T) {
	root := t.TempDir()
	// b's manifest redeclares a path the root already yields.
	writeFile(t, root, ".meta", `{"projects": {"b": "url-b", "b/c": "url-c"}}`)
	writeFile(t, filepath.Join(root, "b"), ".meta", `{"projects": {"c": "url-c"}}`)

	paths, err := WalkTree(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"b", "b/c"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("got %v, want %v", paths, want)
	}
}
