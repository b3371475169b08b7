// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package parser parses git command output. The porcelain formats are
// stable across git versions, so parsing stays string-based with no
// version sniffing.
package parser

import (
	"strings"
)

// PorcelainStatus is the structured form of `git status --porcelain`.
type PorcelainStatus struct {
	// ModifiedFiles lists tracked paths with index or worktree
	// changes (including adds, deletes, and rename targets).
	ModifiedFiles []string

	// UntrackedCount counts `??` entries.
	UntrackedCount int
}

// Dirty reports whether the working tree has any change at all.
func (s PorcelainStatus) Dirty() bool {
	return len(s.ModifiedFiles) > 0 || s.UntrackedCount > 0
}

// ParsePorcelainStatus parses `git status --porcelain` output.
//
// Each line is `XY PATH` where X is the index status and Y the
// worktree status; untracked entries use `??`, renames carry
// `old -> new`.
func ParsePorcelainStatus(output string) PorcelainStatus {
	var status PorcelainStatus
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "??") {
			status.UntrackedCount++
			continue
		}
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[2:])
		// Renames report "old -> new"; the new path is the live one.
		if idx := strings.LastIndex(path, " -> "); idx >= 0 {
			path = path[idx+4:]
		}
		status.ModifiedFiles = append(status.ModifiedFiles, path)
	}
	return status
}

// ParseAheadBehind parses `git rev-list --left-right --count
// upstream...HEAD` output ("<behind>\t<ahead>").
func ParseAheadBehind(output string) (ahead, behind int) {
	fields := strings.Fields(strings.TrimSpace(output))
	if len(fields) != 2 {
		return 0, 0
	}
	behind = atoi(fields[0])
	ahead = atoi(fields[1])
	return ahead, behind
}

// ParseNumstat parses `git diff --numstat` output into per-file
// totals. Binary files report "-" and count as zero-line changes.
func ParseNumstat(output string) (filesChanged, insertions, deletions int, files []string) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		filesChanged++
		files = append(files, fields[2])
		insertions += atoi(fields[0])
		deletions += atoi(fields[1])
	}
	return filesChanged, insertions, deletions, files
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
