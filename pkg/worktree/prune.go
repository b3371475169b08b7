// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package worktree

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gizzahub/gzh-cli-metagit/pkg/manifest"
)

// PruneResult is the outcome of a prune pass.
type PruneResult struct {
	Removed []PruneEntry `json:"removed"`
	DryRun  bool         `json:"dry_run"`
}

// Prune scans the store and reclaims dead sets. An entry qualifies
// when its directory is gone, its source project is gone, every alias
// has been dropped from the project's manifest, or its TTL expired.
// Filesystem cleanup happens before the store update; entries whose
// directories resist removal stay in the store and are reported.
func (m *Manager) Prune(ctx context.Context, dryRun bool) (*PruneResult, error) {
	doc, err := m.store.List()
	if err != nil {
		return nil, err
	}
	if len(doc.Worktrees) == 0 {
		return &PruneResult{Removed: []PruneEntry{}, DryRun: dryRun}, nil
	}

	now := time.Now().Unix()

	// Manifest lookups are cached: many entries typically share one
	// project.
	manifestCache := make(map[string]*manifest.Workspace)
	loadManifest := func(projectDir string) *manifest.Workspace {
		if ws, ok := manifestCache[projectDir]; ok {
			return ws
		}
		ws, err := LoadProjects(projectDir)
		if err != nil {
			ws = nil
		}
		manifestCache[projectDir] = ws
		return ws
	}

	var toRemove []PruneEntry
	for key, entry := range doc.Worktrees {
		if reason, age := classifyPrune(key, entry, now, loadManifest); reason != "" {
			toRemove = append(toRemove, PruneEntry{
				Name:       entry.Name,
				Path:       key,
				Reason:     reason,
				AgeSeconds: age,
			})
		}
	}
	sort.Slice(toRemove, func(i, j int) bool { return toRemove[i].Path < toRemove[j].Path })

	if len(toRemove) == 0 || dryRun {
		return &PruneResult{Removed: toRemove, DryRun: dryRun}, nil
	}

	// Physical cleanup first; the store only forgets what is actually
	// gone.
	var removed []PruneEntry
	for _, pruneEntry := range toRemove {
		if _, err := os.Stat(pruneEntry.Path); err == nil {
			if repos, err := DiscoverRepos(ctx, m.git, pruneEntry.Path); err == nil {
				m.git.RemoveRepos(ctx, repos, true)
			}
			os.RemoveAll(pruneEntry.Path)

			if _, err := os.Stat(pruneEntry.Path); err == nil {
				if warnErr := m.warnOrBail(m.strict, "Failed to remove directory: %s", pruneEntry.Path); warnErr != nil {
					return nil, warnErr
				}
				continue
			}
		}
		removed = append(removed, pruneEntry)
	}

	keys := make([]string, 0, len(removed))
	for _, e := range removed {
		keys = append(keys, e.Path)
	}
	if err := m.warnStoreError(m.store.RemoveBatch(keys), m.strict); err != nil {
		return nil, err
	}

	metaDir := FindMetaDir(m.cwd)
	env := map[string]string{"META_WT_PRUNED": fmt.Sprintf("%d", len(removed))}
	for i, e := range removed {
		env[fmt.Sprintf("META_WT_PRUNED_%d", i)] = fmt.Sprintf("%s=%s", e.Name, e.Reason)
	}
	fireHook(ctx, metaDir, "post_prune", env, m.errOut)

	return &PruneResult{Removed: removed, DryRun: false}, nil
}

// classifyPrune returns the prune reason for an entry, or "" to keep it.
func classifyPrune(key string, entry StoreEntry, now int64, loadManifest func(string) *manifest.Workspace) (PruneReason, *uint64) {
	if _, err := os.Stat(key); err != nil {
		return PruneOrphanedMissingDir, nil
	}

	if entry.Project != "" {
		if _, err := os.Stat(entry.Project); err != nil {
			return PruneOrphanedMissingProject, nil
		}

		// Root-only sets always keep their "." alias; only check sets
		// whose members all came from the manifest.
		if len(entry.Repos) > 0 && !hasRootAlias(entry) {
			if ws := loadManifest(entry.Project); ws != nil {
				anyPresent := false
				for _, r := range entry.Repos {
					for _, p := range ws.Projects {
						if p.Name == r.Alias || p.Path == r.Alias {
							anyPresent = true
							break
						}
					}
					if anyPresent {
						break
					}
				}
				if !anyPresent {
					return PruneOrphanedRemovedRepos, nil
				}
			}
		}
	}

	if remaining := TTLRemaining(entry, now); remaining != nil && *remaining <= 0 {
		// Reported age = configured TTL plus how long past expiry.
		overdue := uint64(-*remaining)
		age := *entry.TTLSeconds + overdue
		return PruneTTLExpired, &age
	}

	return "", nil
}

func hasRootAlias(entry StoreEntry) bool {
	for _, r := range entry.Repos {
		if r.Alias == "." {
			return true
		}
	}
	return false
}
