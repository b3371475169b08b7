// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package commit

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kballard/go-shellquote"

	"github.com/gizzahub/gzh-cli-metagit/internal/testutil"
)

func TestFindStagedRepos(t *testing.T) {
	root := testutil.TempGitRepoWithCommit(t)

	childDir := filepath.Join(root, "child")
	if err := os.MkdirAll(childDir, 0o755); err != nil {
		t.Fatal(err)
	}
	testutil.GitInit(t, childDir)
	testutil.CommitFile(t, childDir, "main.go", "package main", "Initial commit")

	// Stage a change only in the child.
	if err := os.WriteFile(filepath.Join(childDir, "main.go"), []byte("package main // v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	testutil.Git(t, childDir, "add", "main.go")

	c := NewCoordinator(root, WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
	staged, err := c.FindStagedRepos(context.Background(), []string{".", "child", "missing"})
	if err != nil {
		t.Fatal(err)
	}

	if len(staged) != 1 {
		t.Fatalf("expected 1 staged repo, got %d", len(staged))
	}
	if staged[0].Name != "child" {
		t.Errorf("staged repo = %q, want child", staged[0].Name)
	}
	if len(staged[0].Files) != 1 || staged[0].Files[0] != "main.go" {
		t.Errorf("staged files = %v", staged[0].Files)
	}
}

func TestBulkPlanQuotesMessages(t *testing.T) {
	c := NewCoordinator("/ws")
	repos := []StagedRepo{
		{Name: ".", Path: "/ws"},
		{Name: "child", Path: "/ws/child"},
	}

	p := c.BulkPlan(repos, `fix: don't break 'quotes'`)

	if p.Parallel == nil || *p.Parallel {
		t.Error("commit plans must be sequential")
	}
	if len(p.Commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(p.Commands))
	}
	// Root commits in ".", children in their absolute path.
	if p.Commands[0].Dir != "." {
		t.Errorf("root dir = %q, want .", p.Commands[0].Dir)
	}
	if p.Commands[1].Dir != "/ws/child" {
		t.Errorf("child dir = %q", p.Commands[1].Dir)
	}
	if !strings.HasPrefix(p.Commands[0].Cmd, "git commit -m ") {
		t.Errorf("unexpected command: %q", p.Commands[0].Cmd)
	}
	// The message survives shell metacharacters: unquoting the command
	// yields the original message as one argument.
	words, err := shellquote.Split(p.Commands[0].Cmd)
	if err != nil || len(words) != 4 || words[3] != `fix: don't break 'quotes'` {
		t.Errorf("message mangled: %q", p.Commands[0].Cmd)
	}
	if p.Commands[0].Env["GIT_TERMINAL_PROMPT"] != "0" {
		t.Error("plan commands must carry the non-interactive git env")
	}
}

func TestPreviewListsReposAndCounts(t *testing.T) {
	var out bytes.Buffer
	c := NewCoordinator("/ws", WithOutput(&out, &out))
	c.Preview([]StagedRepo{
		{Name: "app", Files: []string{"a", "b"}},
		{Name: "lib", Files: []string{"c"}},
	})

	text := out.String()
	if !strings.Contains(text, "app (2 files)") || !strings.Contains(text, "lib (1 files)") {
		t.Errorf("preview output wrong:\n%s", text)
	}
}
