// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package worktree

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gizzahub/gzh-cli-metagit/internal/testutil"
)

func TestValidateName(t *testing.T) {
	valid := []string{"f1", "feature-x", "wt_2", "a.b", "Hotfix-1.2"}
	for _, name := range valid {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", ".hidden", "-flag", "has space", "a/b", "a:b", "né"}
	for _, name := range invalid {
		if err := ValidateName(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q) = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestResolveBranchPrecedence(t *testing.T) {
	// spec branch > global flag > derived wt/<name>
	if got := ResolveBranch("set1", "global", "per-repo"); got != "per-repo" {
		t.Errorf("per-repo branch must win, got %q", got)
	}
	if got := ResolveBranch("set1", "global", ""); got != "global" {
		t.Errorf("global branch must win over derived, got %q", got)
	}
	if got := ResolveBranch("set1", "", ""); got != "wt/set1" {
		t.Errorf("derived branch = %q, want wt/set1", got)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"30s", 30},
		{"5m", 300},
		{"1h", 3600},
		{"2d", 172800},
		{"1w", 604800},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseDuration(%q) = (%d, %v), want %d", tt.in, got, err, tt.want)
		}
	}

	for _, bad := range []string{"", "5", "m5", "5x", "1.5h", "-5m"} {
		if _, err := ParseDuration(bad); err == nil {
			t.Errorf("ParseDuration(%q) should fail", bad)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{30, "30s"},
		{90, "1m30s"},
		{3600, "1h"},
		{90000, "1d1h"},
		{604800 + 2*86400, "1w2d"},
		{0, "0s"},
		{-45, "45s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseRepoSpec(t *testing.T) {
	spec, err := ParseRepoSpec("app:feature")
	if err != nil || spec.Alias != "app" || spec.Branch != "feature" {
		t.Errorf("got %+v, %v", spec, err)
	}
	spec, err = ParseRepoSpec("lib")
	if err != nil || spec.Alias != "lib" || spec.Branch != "" {
		t.Errorf("got %+v, %v", spec, err)
	}
	if _, err := ParseRepoSpec(":branch"); err == nil {
		t.Error("empty alias must be rejected")
	}
}

func TestParseCustomMeta(t *testing.T) {
	custom, invalid := ParseCustomMeta([]string{"ticket=ABC-1", "owner=me", "broken", "=nokey"})
	if custom["ticket"] != "ABC-1" || custom["owner"] != "me" {
		t.Errorf("custom = %v", custom)
	}
	if len(invalid) != 2 {
		t.Errorf("invalid = %v, want 2 entries", invalid)
	}
	// Values may contain '='.
	custom, _ = ParseCustomMeta([]string{"expr=a=b"})
	if custom["expr"] != "a=b" {
		t.Errorf("value with '=' mangled: %v", custom)
	}
}

func TestEnsureGitignore(t *testing.T) {
	dir := t.TempDir()

	added, err := EnsureGitignore(dir, ".worktrees")
	if err != nil || !added {
		t.Fatalf("first call = (%v, %v), want (true, nil)", added, err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if !strings.Contains(string(data), ".worktrees/") {
		t.Errorf(".gitignore content: %q", data)
	}

	// Idempotent.
	added, err = EnsureGitignore(dir, ".worktrees")
	if err != nil || added {
		t.Errorf("second call = (%v, %v), want (false, nil)", added, err)
	}

	// Respects an existing entry without trailing slash.
	dir2 := t.TempDir()
	os.WriteFile(filepath.Join(dir2, ".gitignore"), []byte("node_modules\n.worktrees\n"), 0o644)
	added, _ = EnsureGitignore(dir2, ".worktrees")
	if added {
		t.Error("existing bare entry must be recognized")
	}

	// Appends with a separating newline when the file lacks one.
	dir3 := t.TempDir()
	os.WriteFile(filepath.Join(dir3, ".gitignore"), []byte("dist"), 0o644)
	EnsureGitignore(dir3, ".worktrees")
	data, _ = os.ReadFile(filepath.Join(dir3, ".gitignore"))
	if !strings.Contains(string(data), "dist\n.worktrees/\n") {
		t.Errorf("append without newline mangled the file: %q", data)
	}
}

func TestLookupNestedProject(t *testing.T) {
	root := t.TempDir()
	testutil.WriteJSONManifest(t, root, map[string]string{"vendor": "url-v"})
	vendorDir := filepath.Join(root, "vendor")
	if err := os.MkdirAll(vendorDir, 0o755); err != nil {
		t.Fatal(err)
	}
	testutil.WriteJSONManifest(t, vendorDir, map[string]string{"nested-lib": "url-n"})

	t.Run("top level", func(t *testing.T) {
		source, project, err := LookupNestedProject(root, "vendor")
		if err != nil {
			t.Fatal(err)
		}
		if source != vendorDir || project.Name != "vendor" {
			t.Errorf("got %q, %+v", source, project)
		}
	})

	t.Run("nested path", func(t *testing.T) {
		source, project, err := LookupNestedProject(root, "vendor/nested-lib")
		if err != nil {
			t.Fatal(err)
		}
		if source != filepath.Join(vendorDir, "nested-lib") {
			t.Errorf("source = %q", source)
		}
		if project.Name != "nested-lib" {
			t.Errorf("project = %+v", project)
		}
	})

	t.Run("unknown alias", func(t *testing.T) {
		_, _, err := LookupNestedProject(root, "ghost")
		if !errors.Is(err, ErrProjectNotFound) {
			t.Errorf("err = %v, want ErrProjectNotFound", err)
		}
	})
}

func TestDiscoverReposFindsWorktrees(t *testing.T) {
	// Build a real set: source repo + git worktree add.
	source := testutil.TempGitRepoWithCommit(t)
	setRoot := filepath.Join(t.TempDir(), "set1")
	if err := os.MkdirAll(setRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	testutil.Git(t, source, "worktree", "add", filepath.Join(setRoot, "app"), "-b", "wt/set1")

	g := newGitOps(nil)
	repos, err := DiscoverRepos(context.Background(), g, setRoot)
	if err != nil {
		t.Fatal(err)
	}
	if len(repos) != 1 {
		t.Fatalf("repos = %+v", repos)
	}
	if repos[0].Alias != "app" || repos[0].Branch != "wt/set1" {
		t.Errorf("repo = %+v", repos[0])
	}
}

func TestDiscoverReposMissingRoot(t *testing.T) {
	g := newGitOps(nil)
	_, err := DiscoverRepos(context.Background(), g, filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
