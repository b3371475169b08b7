// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/gizzahub/gzh-cli-metagit/pkg/snapshot"
	"github.com/gizzahub/gzh-cli-metagit/pkg/worktree"
)

// FormatWorktreeList renders `worktree list` output.
func FormatWorktreeList(w io.Writer, entries []worktree.ListEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No worktrees found.")
		return
	}
	for _, e := range entries {
		header := BoldStyle.Render(e.Name)
		if e.Ephemeral != nil && *e.Ephemeral {
			header += " " + SubtleStyle.Render("[ephemeral]")
		}
		if e.TTLRemainingSeconds != nil {
			if *e.TTLRemainingSeconds > 0 {
				header += " " + SubtleStyle.Render("[TTL: "+worktree.FormatDuration(*e.TTLRemainingSeconds)+"]")
			} else {
				header += " " + ErrorStyle.Render("[expired]")
			}
		}
		fmt.Fprintln(w, header)
		for _, r := range e.Repos {
			state := CleanStyle.Render("clean")
			if r.Dirty {
				state = DirtyStyle.Render("modified")
			}
			fmt.Fprintf(w, "  %-12s -> %-20s (%s)\n", r.Alias, r.Branch, state)
		}
		fmt.Fprintln(w)
	}
}

// FormatWorktreeStatus renders `worktree status` output.
func FormatWorktreeStatus(w io.Writer, name string, statuses []worktree.StatusEntry) {
	fmt.Fprintf(w, "%s:\n", BoldStyle.Render(name))
	for _, s := range statuses {
		icon := CleanStyle.Render("+")
		if s.Dirty {
			icon = DirtyStyle.Render("o")
		}
		var details []string
		if s.ModifiedCount > 0 {
			details = append(details, fmt.Sprintf("%d modified", s.ModifiedCount))
		}
		if s.UntrackedCount > 0 {
			details = append(details, fmt.Sprintf("%d untracked", s.UntrackedCount))
		}
		if s.Ahead > 0 {
			details = append(details, fmt.Sprintf("ahead %d", s.Ahead))
		}
		if s.Behind > 0 {
			details = append(details, fmt.Sprintf("behind %d", s.Behind))
		}
		detail := "clean"
		if len(details) > 0 {
			detail = strings.Join(details, ", ")
		}
		fmt.Fprintf(w, "  %s %-12s %-20s %s\n", icon, s.Alias, s.Branch, detail)
	}
}

// FormatWorktreeDiff renders `worktree diff` output with totals.
func FormatWorktreeDiff(w io.Writer, name, baseRef string, entries []worktree.DiffEntry, totals worktree.DiffTotals) {
	fmt.Fprintf(w, "%s vs %s:\n", BoldStyle.Render(name), baseRef)
	for _, d := range entries {
		if d.FilesChanged == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-12s %s %s (%d files)\n",
			d.Alias,
			AddedStyle.Render(fmt.Sprintf("+%d", d.Insertions)),
			RemovedStyle.Render(fmt.Sprintf("-%d", d.Deletions)),
			d.FilesChanged)
	}
	if totals.ReposChanged == 0 {
		fmt.Fprintf(w, "  No changes vs %s\n", baseRef)
		return
	}
	fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 40))
	fmt.Fprintf(w, "  %-12s %s %s (%d files, %d repos)\n",
		"Total",
		AddedStyle.Render(fmt.Sprintf("+%d", totals.Insertions)),
		RemovedStyle.Render(fmt.Sprintf("-%d", totals.Deletions)),
		totals.FilesChanged, totals.ReposChanged)
}

// FormatPruneEntries renders prune results, dry-run or applied.
func FormatPruneEntries(w io.Writer, result *worktree.PruneResult) {
	if len(result.Removed) == 0 {
		fmt.Fprintln(w, "Nothing to prune.")
		return
	}
	if result.DryRun {
		fmt.Fprintf(w, "Would prune %d worktree(s):\n", len(result.Removed))
	} else {
		fmt.Fprintf(w, "%s Pruned %d worktree(s):\n", CleanStyle.Render("+"), len(result.Removed))
	}
	for _, e := range result.Removed {
		fmt.Fprintf(w, "  %s (%s) - %s\n", e.Name, e.Reason, e.Path)
	}
}

// FormatSnapshotList renders `snapshot list` output.
func FormatSnapshotList(w io.Writer, infos []snapshot.Info) {
	if len(infos) == 0 {
		fmt.Fprintln(w, "No snapshots found.")
		fmt.Fprintln(w, "Create one with: gz-meta snapshot create <name>")
		return
	}
	fmt.Fprintln(w, "Snapshots:")
	for _, info := range infos {
		dirtyNote := ""
		if info.DirtyCount > 0 {
			dirtyNote = DirtyStyle.Render(fmt.Sprintf(" (%d dirty)", info.DirtyCount))
		}
		fmt.Fprintf(w, "  %s - %d repos%s - %s\n",
			BoldStyle.Render(info.Name),
			info.RepoCount,
			dirtyNote,
			SubtleStyle.Render(info.Created.Format("2006-01-02 15:04:05")))
	}
}

// FormatSnapshotShow renders one snapshot's detail, repos sorted by
// name.
func FormatSnapshotShow(w io.Writer, snap *snapshot.Snapshot) {
	fmt.Fprintf(w, "Snapshot: %s\n", BoldStyle.Render(snap.Name))
	fmt.Fprintf(w, "Created:  %s\n", snap.Created.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Repos:    %d\n\n", len(snap.Repos))

	for _, name := range snap.SortedRepos() {
		state := snap.Repos[name]
		branchInfo := " (detached)"
		if state.Branch != "" {
			branchInfo = " -> " + state.Branch
		}
		dirtyMarker := ""
		if state.Dirty {
			dirtyMarker = " " + DirtyStyle.Render("(dirty)")
		}
		sha := state.SHA
		if len(sha) > 8 {
			sha = sha[:8]
		}
		fmt.Fprintf(w, "  %s %s%s%s\n", SubtleStyle.Render(sha), name, branchInfo, dirtyMarker)
	}
}
