// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package clone

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gizzahub/gzh-cli-metagit/internal/testutil"
)

func TestUpdateReportsAllCloned(t *testing.T) {
	workspace := t.TempDir()
	existing := filepath.Join(workspace, "a")
	if err := os.MkdirAll(existing, 0o755); err != nil {
		t.Fatal(err)
	}
	testutil.WriteJSONManifest(t, workspace, map[string]string{"a": "url-a"})

	var out bytes.Buffer
	if err := Update(context.Background(), workspace, nil, UpdateOptions{}, &out, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "All repositories are already cloned.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestUpdateDryRunPreviewsCloneCommands(t *testing.T) {
	workspace := t.TempDir()
	testutil.WriteJSONManifest(t, workspace, map[string]string{"a": "url-a"})

	var out bytes.Buffer
	if err := Update(context.Background(), workspace, nil, UpdateOptions{DryRun: true}, &out, nil); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	if !strings.Contains(text, "git clone url-a") {
		t.Errorf("dry-run should print the clone command, got:\n%s", text)
	}
	if !strings.Contains(text, filepath.Join(workspace, "a")) {
		t.Errorf("dry-run should print the target path, got:\n%s", text)
	}
}

func TestUpdateWarnsAboutOrphans(t *testing.T) {
	workspace := t.TempDir()
	testutil.WriteJSONManifest(t, workspace, map[string]string{"declared": "url"})

	// An undeclared git repo next to the declared one.
	orphan := filepath.Join(workspace, "stray")
	if err := os.MkdirAll(orphan, 0o755); err != nil {
		t.Fatal(err)
	}
	testutil.GitInit(t, orphan)

	// A hidden directory and a plain directory must not be reported.
	if err := os.MkdirAll(filepath.Join(workspace, ".hidden", ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(workspace, "not-a-repo"), 0o755); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := Update(context.Background(), workspace, nil, UpdateOptions{DryRun: true}, &out, nil); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	if !strings.Contains(text, "stray") || !strings.Contains(text, "not in .meta") {
		t.Errorf("orphan warning missing:\n%s", text)
	}
	if strings.Contains(text, ".hidden") || strings.Contains(text, "not-a-repo") {
		t.Errorf("false orphan reported:\n%s", text)
	}
	// Reporting only: the directory survives.
	if _, err := os.Stat(orphan); err != nil {
		t.Error("update must never delete orphans")
	}
}

func TestUpdateClonesMissingRepos(t *testing.T) {
	src := sourceRepo(t, nil)
	workspace := t.TempDir()
	testutil.WriteJSONManifest(t, workspace, map[string]string{"a": src})

	var out bytes.Buffer
	if err := Update(context.Background(), workspace, nil, UpdateOptions{}, &out, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(workspace, "a", ".git")); err != nil {
		t.Fatalf("a not cloned: %v", err)
	}
	if !strings.Contains(out.String(), "Update completed (1 repos cloned)") {
		t.Errorf("completion report wrong:\n%s", out.String())
	}
}

func TestCloneMetaDryRun(t *testing.T) {
	var out bytes.Buffer
	dir, err := CloneMeta(context.Background(), t.TempDir(), CloneOptions{
		URL:    "git@example.com:org/meta.git",
		DryRun: true,
	}, &out, nil)
	if err != nil {
		t.Fatal(err)
	}
	if dir != "meta" {
		t.Errorf("derived dir = %q, want meta", dir)
	}
	if !strings.Contains(out.String(), "git clone git@example.com:org/meta.git meta") {
		t.Errorf("dry-run output wrong:\n%s", out.String())
	}
}

func TestCloneMetaEndToEnd(t *testing.T) {
	srcChild := sourceRepo(t, nil)
	srcMeta := testutil.TempGitRepo(t)
	testutil.CommitFile(t, srcMeta, ".meta", `{"projects": {"child": "`+srcChild+`"}}`, "add manifest")

	cwd := t.TempDir()
	var out bytes.Buffer
	dir, err := CloneMeta(context.Background(), cwd, CloneOptions{URL: srcMeta, Dir: "meta"}, &out, nil)
	if err != nil {
		t.Fatal(err)
	}
	if dir != "meta" {
		t.Fatalf("dir = %q", dir)
	}
	for _, rel := range []string{"meta/.git", "meta/child/.git"} {
		if _, err := os.Stat(filepath.Join(cwd, rel)); err != nil {
			t.Errorf("%s missing: %v", rel, err)
		}
	}
	if !strings.Contains(out.String(), "Meta-repo clone completed (1 repos cloned)") {
		t.Errorf("report wrong:\n%s", out.String())
	}
}

func TestRepoNameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"git@github.com:org/meta.git", "meta"},
		{"https://github.com/org/meta", "meta"},
		{"meta", "meta"},
	}
	for _, tt := range tests {
		if got := repoNameFromURL(tt.url); got != tt.want {
			t.Errorf("repoNameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
