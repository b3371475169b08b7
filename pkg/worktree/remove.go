// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package worktree

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// RemoveResult describes a destroyed set.
type RemoveResult struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	ReposRemoved int    `json:"repos_removed"`
}

// Remove destroys a set: member worktrees first (children before the
// workspace root), then the residual directory, then the store entry.
// Without force, dirty members block removal.
func (m *Manager) Remove(ctx context.Context, name string, force bool) (*RemoveResult, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	metaDir := FindMetaDir(m.cwd)
	wtDir, err := m.setRoot(metaDir, name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(wtDir); err != nil {
		return nil, fmt.Errorf("%w: '%s' at %s", ErrNotFound, name, wtDir)
	}

	repos, err := DiscoverRepos(ctx, m.git, wtDir)
	if err != nil {
		return nil, err
	}

	if !force {
		var dirty []string
		for _, r := range repos {
			if summary, err := m.git.Status(ctx, r.Path); err == nil && summary.Dirty {
				dirty = append(dirty, r.Alias)
			}
		}
		if len(dirty) > 0 {
			return nil, fmt.Errorf("worktree '%s' has uncommitted changes in: %s (use --force to remove anyway)",
				name, strings.Join(dirty, ", "))
		}
	}

	for _, err := range m.git.RemoveRepos(ctx, repos, force) {
		if warnErr := m.warnOrBail(m.strict, "%v", err); warnErr != nil {
			return nil, warnErr
		}
	}

	if _, err := os.Stat(wtDir); err == nil {
		if err := os.RemoveAll(wtDir); err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", wtDir, err)
		}
	}

	if err := m.warnStoreError(m.store.Remove(wtDir), m.strict); err != nil {
		return nil, err
	}

	fireHook(ctx, metaDir, "post_destroy", map[string]string{
		"META_WT_NAME":  name,
		"META_WT_ROOT":  wtDir,
		"META_WT_FORCE": fmt.Sprintf("%t", force),
	}, m.errOut)

	return &RemoveResult{Name: name, Path: wtDir, ReposRemoved: len(repos)}, nil
}
