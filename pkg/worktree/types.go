// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package worktree materializes a named branch across several
// repositories at once. A worktree set is a directory holding one git
// worktree per participating repo; sets are tracked in a centralized
// store with TTL and ephemeral semantics and garbage-collected by
// prune.
package worktree

import (
	"fmt"
	"strings"
)

// RepoSpec selects a repository for a set, optionally pinning its
// branch: "alias" or "alias:branch". The alias "." is the workspace
// root itself.
type RepoSpec struct {
	Alias  string
	Branch string
}

// ParseRepoSpec parses "alias[:branch]".
func ParseRepoSpec(s string) (RepoSpec, error) {
	alias, branch, _ := strings.Cut(s, ":")
	if alias == "" {
		return RepoSpec{}, fmt.Errorf("empty repo alias in %q", s)
	}
	return RepoSpec{Alias: alias, Branch: branch}, nil
}

// Repo is one materialized member of a set.
type Repo struct {
	// Alias is the manifest alias, or "." for the workspace root.
	Alias string `json:"alias"`

	// Path is the absolute worktree directory.
	Path string `json:"path"`

	// Branch is the checked-out branch.
	Branch string `json:"branch"`

	// CreatedBranch records whether create had to make the branch.
	CreatedBranch bool `json:"created_branch"`
}

// StoreRepo is the persisted form of a set member.
type StoreRepo struct {
	Alias         string `json:"alias"`
	Branch        string `json:"branch"`
	CreatedBranch bool   `json:"created_branch"`
}

// StoreEntry is one worktree set in the centralized store, keyed by
// the set root path.
type StoreEntry struct {
	Name       string            `json:"name"`
	Project    string            `json:"project"`
	CreatedAt  string            `json:"created_at"`
	Ephemeral  bool              `json:"ephemeral"`
	TTLSeconds *uint64           `json:"ttl_seconds,omitempty"`
	Repos      []StoreRepo       `json:"repos"`
	Custom     map[string]string `json:"custom,omitempty"`
}

// StoreDocument is the single persisted JSON document.
type StoreDocument struct {
	Worktrees map[string]StoreEntry `json:"worktrees"`
}

// ListEntry is one set in list output.
type ListEntry struct {
	Name                string            `json:"name"`
	Root                string            `json:"root"`
	HasMetaRoot         bool              `json:"has_meta_root"`
	Repos               []ListRepo        `json:"repos"`
	Ephemeral           *bool             `json:"ephemeral,omitempty"`
	TTLRemainingSeconds *int64            `json:"ttl_remaining_seconds,omitempty"`
	Custom              map[string]string `json:"custom,omitempty"`
}

// ListRepo is one repo line in list output.
type ListRepo struct {
	Alias  string `json:"alias"`
	Branch string `json:"branch"`
	Dirty  bool   `json:"dirty"`
}

// StatusEntry is one repo in status output.
type StatusEntry struct {
	Alias          string   `json:"alias"`
	Path           string   `json:"path"`
	Branch         string   `json:"branch"`
	Dirty          bool     `json:"dirty"`
	ModifiedCount  int      `json:"modified_count"`
	UntrackedCount int      `json:"untracked_count"`
	Ahead          int      `json:"ahead"`
	Behind         int      `json:"behind"`
	ModifiedFiles  []string `json:"modified_files,omitempty"`
}

// DiffEntry is one repo in diff output.
type DiffEntry struct {
	Alias        string   `json:"alias"`
	BaseRef      string   `json:"base_ref"`
	FilesChanged int      `json:"files_changed"`
	Insertions   int      `json:"insertions"`
	Deletions    int      `json:"deletions"`
	Files        []string `json:"files,omitempty"`
}

// DiffTotals aggregates a diff across the set.
type DiffTotals struct {
	ReposChanged int `json:"repos_changed"`
	FilesChanged int `json:"files_changed"`
	Insertions   int `json:"insertions"`
	Deletions    int `json:"deletions"`
}

// PruneReason classifies why prune selected an entry.
type PruneReason string

const (
	PruneOrphanedMissingDir     PruneReason = "orphaned (missing directory)"
	PruneOrphanedMissingProject PruneReason = "orphaned (source project missing)"
	PruneOrphanedRemovedRepos   PruneReason = "orphaned (all source repos removed from project)"
	PruneTTLExpired             PruneReason = "ttl_expired"
)

// PruneEntry is one store entry selected for pruning.
type PruneEntry struct {
	Name       string      `json:"name"`
	Path       string      `json:"path"`
	Reason     PruneReason `json:"reason"`
	AgeSeconds *uint64     `json:"age_seconds,omitempty"`
}
