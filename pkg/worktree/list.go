// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package worktree

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// List enumerates every set under the workspace's worktrees directory,
// reading each member's branch and dirty state in parallel and merging
// store metadata. Output is sorted by set name.
func (m *Manager) List(ctx context.Context) ([]ListEntry, error) {
	metaDir := FindMetaDir(m.cwd)
	root, err := ResolveWorktreeRoot(metaDir)
	if err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []ListEntry{}, nil
		}
		return nil, err
	}

	storeDoc, err := m.store.List()
	if err != nil {
		storeDoc = StoreDocument{Worktrees: map[string]StoreEntry{}}
	}
	now := time.Now().Unix()

	var mu sync.Mutex
	var entries []ListEntry

	g, gctx := errgroup.WithContext(ctx)
	for _, dirEntry := range dirEntries {
		if !dirEntry.IsDir() {
			continue
		}
		name := dirEntry.Name()
		wtDir := filepath.Join(root, name)

		g.Go(func() error {
			repos, err := DiscoverRepos(gctx, m.git, wtDir)
			if err != nil || len(repos) == 0 {
				// Not a materialized set; skip silently.
				return nil
			}

			entry := ListEntry{Name: name, Root: wtDir}
			for _, r := range repos {
				if r.Alias == "." {
					entry.HasMetaRoot = true
				}
				dirty := false
				if summary, err := m.git.Status(gctx, r.Path); err == nil {
					dirty = summary.Dirty
				}
				entry.Repos = append(entry.Repos, ListRepo{Alias: r.Alias, Branch: r.Branch, Dirty: dirty})
			}

			if storeEntry, ok := storeDoc.Worktrees[wtDir]; ok {
				ephemeral := storeEntry.Ephemeral
				entry.Ephemeral = &ephemeral
				entry.TTLRemainingSeconds = TTLRemaining(storeEntry, now)
				if len(storeEntry.Custom) > 0 {
					entry.Custom = storeEntry.Custom
				}
			}

			mu.Lock()
			entries = append(entries, entry)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
