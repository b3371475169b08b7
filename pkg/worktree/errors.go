// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package worktree

import "errors"

var (
	// ErrInvalidName indicates a set name outside the portable
	// filename character set.
	ErrInvalidName = errors.New("invalid worktree name")

	// ErrAlreadyExists indicates the set root is already present.
	ErrAlreadyExists = errors.New("worktree already exists")

	// ErrNotFound indicates no set root with the given name.
	ErrNotFound = errors.New("worktree not found")

	// ErrConflictingOptions indicates mutually exclusive options
	// (e.g. --from-ref with --from-pr).
	ErrConflictingOptions = errors.New("conflicting options")

	// ErrProjectNotFound indicates an alias with no manifest entry.
	ErrProjectNotFound = errors.New("project not found in manifest")

	// ErrStoreLocked indicates the store lock could not be acquired;
	// the operation is retryable.
	ErrStoreLocked = errors.New("worktree store is locked by another process")
)
