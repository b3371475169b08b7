// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package gitcmd

import (
	"strings"
	"testing"
)

func TestSanitizeArgsAllowsKnownShapes(t *testing.T) {
	ok := [][]string{
		{"status", "--porcelain"},
		{"clone", "git@github.com:org/repo.git", "/tmp/dest", "--depth", "1"},
		{"worktree", "add", "/tmp/wt", "-b", "wt/f1"},
		{"diff", "--numstat", "main..HEAD"},
		{"rev-list", "--left-right", "--count", "@{upstream}...HEAD"},
		{"log", "--format=%H %s"},
		{"rev-parse", "--path-format=absolute", "--git-common-dir"},
		{"stash", "push", "-m", "meta snapshot restore s1"},
	}
	for _, args := range ok {
		if _, err := SanitizeArgs(args); err != nil {
			t.Errorf("SanitizeArgs(%v) = %v, want nil", args, err)
		}
	}
}

func TestSanitizeArgsRejectsInjection(t *testing.T) {
	bad := [][]string{
		{"status", "; rm -rf /"},
		{"log", "$(whoami)"},
		{"log", "`whoami`"},
		{"status", "a|b"},
		{"status", "a\nb"},
		{"clone", "url", "--upload-pack=/bin/sh"},
	}
	for _, args := range bad {
		if _, err := SanitizeArgs(args); err == nil {
			t.Errorf("SanitizeArgs(%v) should fail", args)
		}
	}
}

func TestSanitizeArgsFormatValuesAreExempt(t *testing.T) {
	// Format strings legitimately carry shell-looking characters.
	if _, err := SanitizeArgs([]string{"log", "--format=%H|%s"}); err != nil {
		t.Errorf("format value rejected: %v", err)
	}
	// But only inside --format=/--pretty= values.
	if _, err := SanitizeArgs([]string{"log", "%H|%s"}); err == nil {
		t.Error("pipe outside format value must be rejected")
	}
}

func TestSanitizeURL(t *testing.T) {
	ok := []string{
		"https://github.com/org/repo.git",
		"git@github.com:org/repo.git",
		"ssh://git@host/org/repo",
		"/local/path",
		"./relative",
	}
	for _, url := range ok {
		if err := SanitizeURL(url); err != nil {
			t.Errorf("SanitizeURL(%q) = %v", url, err)
		}
	}

	bad := []string{"", "ftp://host/repo", "https://h/$(x)", "url;rm"}
	for _, url := range bad {
		if err := SanitizeURL(url); err == nil {
			t.Errorf("SanitizeURL(%q) should fail", url)
		}
	}
}

func TestEnvSliceStableAndComplete(t *testing.T) {
	env := EnvSlice()
	joined := strings.Join(env, "\n")
	for _, want := range []string{"GIT_PAGER=cat", "GIT_TERMINAL_PROMPT=0", "GIT_CONFIG_KEY_0=color.ui"} {
		if !strings.Contains(joined, want) {
			t.Errorf("EnvSlice missing %q:\n%s", want, joined)
		}
	}
	// Stable ordering across calls.
	if strings.Join(EnvSlice(), "\n") != joined {
		t.Error("EnvSlice order unstable")
	}
}

func TestGitEnvWithSSH(t *testing.T) {
	env := GitEnvWithSSH("ssh -o ConnectTimeout=5")
	if env["GIT_SSH_COMMAND"] != "ssh -o ConnectTimeout=5" {
		t.Errorf("env = %v", env)
	}
	if env["GIT_PAGER"] != "cat" {
		t.Error("base env lost")
	}
	if _, ok := GitEnvWithSSH("")["GIT_SSH_COMMAND"]; ok {
		t.Error("empty ssh command must not set the variable")
	}
}
