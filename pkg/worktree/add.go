// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package worktree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Add extends an existing set with more repos. The "." alias is
// create-time only: the set root either already is the root worktree
// or never will be.
func (m *Manager) Add(ctx context.Context, name string, specs []RepoSpec) ([]Repo, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	for _, spec := range specs {
		if spec.Alias == "." {
			return nil, fmt.Errorf("cannot add '.' to an existing worktree; the workspace root can only be established at create time")
		}
	}

	metaDir, err := RequireMetaDir(m.cwd)
	if err != nil {
		return nil, err
	}
	wtDir, err := m.setRoot(metaDir, name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(wtDir); err != nil {
		return nil, fmt.Errorf("%w: '%s' at %s", ErrNotFound, name, wtDir)
	}

	existing, err := DiscoverRepos(ctx, m.git, wtDir)
	if err != nil {
		return nil, err
	}

	var added []Repo
	for _, spec := range specs {
		for _, r := range existing {
			if r.Alias == spec.Alias {
				return nil, fmt.Errorf("repo '%s' already exists in worktree '%s'", spec.Alias, name)
			}
		}

		source, _, err := LookupNestedProject(metaDir, spec.Alias)
		if err != nil {
			return nil, err
		}
		branch := ResolveBranch(name, "", spec.Branch)
		dest := filepath.Join(wtDir, spec.Alias)

		if m.verbose {
			fmt.Fprintf(m.errOut, "Adding worktree for '%s' at %s (branch: %s)\n", spec.Alias, dest, branch)
		}

		createdBranch, err := m.git.WorktreeAdd(ctx, source, dest, branch, "")
		if err != nil {
			return nil, err
		}
		added = append(added, Repo{Alias: spec.Alias, Path: dest, Branch: branch, CreatedBranch: createdBranch})
	}

	repos := make([]StoreRepo, 0, len(added))
	for _, r := range added {
		repos = append(repos, StoreRepo{Alias: r.Alias, Branch: r.Branch, CreatedBranch: r.CreatedBranch})
	}
	if err := m.warnStoreError(m.store.ExtendRepos(wtDir, repos), m.strict); err != nil {
		return nil, err
	}

	return added, nil
}
