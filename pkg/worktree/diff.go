// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package worktree

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
)

// Diff compares each member against baseRef in parallel and aggregates
// totals across the set.
func (m *Manager) Diff(ctx context.Context, name, baseRef string) ([]DiffEntry, DiffTotals, error) {
	if err := ValidateName(name); err != nil {
		return nil, DiffTotals{}, err
	}
	if baseRef == "" {
		baseRef = "main"
	}

	metaDir := FindMetaDir(m.cwd)
	wtDir, err := m.setRoot(metaDir, name)
	if err != nil {
		return nil, DiffTotals{}, err
	}
	if _, err := os.Stat(wtDir); err != nil {
		return nil, DiffTotals{}, fmt.Errorf("%w: '%s' at %s", ErrNotFound, name, wtDir)
	}

	repos, err := DiscoverRepos(ctx, m.git, wtDir)
	if err != nil {
		return nil, DiffTotals{}, err
	}

	entries := make([]DiffEntry, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	for i, repo := range repos {
		g.Go(func() error {
			filesChanged, insertions, deletions, files := m.git.DiffStat(gctx, repo.Path, baseRef)
			entries[i] = DiffEntry{
				Alias:        repo.Alias,
				BaseRef:      baseRef,
				FilesChanged: filesChanged,
				Insertions:   insertions,
				Deletions:    deletions,
				Files:        files,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, DiffTotals{}, err
	}

	var totals DiffTotals
	for _, d := range entries {
		if d.FilesChanged > 0 {
			totals.ReposChanged++
			totals.FilesChanged += d.FilesChanged
			totals.Insertions += d.Insertions
			totals.Deletions += d.Deletions
		}
	}
	return entries, totals, nil
}
