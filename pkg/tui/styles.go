// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package tui renders human-readable output for worktree and snapshot
// commands.
package tui

import "github.com/charmbracelet/lipgloss"

// Pre-defined styles for consistent output appearance.
var (
	// BoldStyle highlights set and snapshot names.
	BoldStyle = lipgloss.NewStyle().Bold(true)

	// CleanStyle is used for clean repositories.
	CleanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// DirtyStyle is used for repositories with uncommitted changes.
	DirtyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	// ErrorStyle is used for failures and expired entries.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	// AddedStyle is used for insertion counts.
	AddedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// RemovedStyle is used for deletion counts.
	RemovedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	// SubtleStyle is used for metadata annotations (TTL, ephemeral).
	SubtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)
