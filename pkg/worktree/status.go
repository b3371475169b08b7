// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package worktree

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
)

// Status reads each member's working-tree state in parallel: dirty
// file summary, untracked count, and ahead/behind of the upstream.
func (m *Manager) Status(ctx context.Context, name string) ([]StatusEntry, error) {
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

	statuses := make([]StatusEntry, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	for i, repo := range repos {
		g.Go(func() error {
			summary, err := m.git.Status(gctx, repo.Path)
			if err != nil {
				summary = StatusSummary{}
			}
			ahead, behind := m.git.AheadBehind(gctx, repo.Path)
			statuses[i] = StatusEntry{
				Alias:          repo.Alias,
				Path:           repo.Path,
				Branch:         repo.Branch,
				Dirty:          summary.Dirty,
				ModifiedCount:  len(summary.ModifiedFiles),
				UntrackedCount: summary.UntrackedCount,
				Ahead:          ahead,
				Behind:         behind,
				ModifiedFiles:  summary.ModifiedFiles,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return statuses, nil
}
