// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/gizzahub/gzh-cli-metagit/internal/testutil"
)

func TestStatusPlanOrdersRootFirst(t *testing.T) {
	root := testutil.TempWorkspace(t, "app", "lib")

	p, err := statusPlan(root, false)
	if err != nil {
		t.Fatal(err)
	}
	if p.Parallel == nil || *p.Parallel {
		t.Error("status plan must be sequential")
	}
	if len(p.Commands) != 3 {
		t.Fatalf("commands = %d, want 3", len(p.Commands))
	}
	if p.Commands[0].Dir != root {
		t.Errorf("first dir = %q, want workspace root", p.Commands[0].Dir)
	}
	// Manifest order follows sorted project paths.
	if filepath.Base(p.Commands[1].Dir) != "app" || filepath.Base(p.Commands[2].Dir) != "lib" {
		t.Errorf("project order wrong: %q, %q", p.Commands[1].Dir, p.Commands[2].Dir)
	}
	for _, c := range p.Commands {
		if c.Cmd != "git status" {
			t.Errorf("cmd = %q", c.Cmd)
		}
		if c.Env["GIT_PAGER"] != "cat" {
			t.Error("git env missing")
		}
	}
}

func TestPassthroughPlanQuotesArgs(t *testing.T) {
	root := testutil.TempWorkspace(t, "app")

	p, err := passthroughPlan(root, []string{"commit", "-m", "two words"}, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Commands) != 2 {
		t.Fatalf("commands = %d", len(p.Commands))
	}
	if !strings.Contains(p.Commands[0].Cmd, `'two words'`) && !strings.Contains(p.Commands[0].Cmd, `"two words"`) {
		t.Errorf("argument not quoted: %q", p.Commands[0].Cmd)
	}
	if p.Parallel == nil || *p.Parallel {
		t.Error("default passthrough must be sequential")
	}
}

func TestPassthroughPlanParallelFlag(t *testing.T) {
	root := testutil.TempWorkspace(t, "app")

	p, err := passthroughPlan(root, []string{"fetch"}, false, true)
	if err != nil {
		t.Fatal(err)
	}
	if p.Parallel == nil || !*p.Parallel {
		t.Error("parallel passthrough must set the flag")
	}
	// Every git command is still present; SSH pre-commands may or may
	// not lead depending on the host environment.
	gitCount := 0
	for _, c := range p.Commands {
		if strings.HasPrefix(c.Cmd, "git fetch") {
			gitCount++
		}
	}
	if gitCount != 2 {
		t.Errorf("git commands = %d, want 2", gitCount)
	}
}
