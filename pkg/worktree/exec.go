// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package worktree

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
)

// ExecOptions configures Exec.
type ExecOptions struct {
	// Include restricts the run to these aliases.
	Include []string

	// Exclude skips these aliases.
	Exclude []string

	// Parallel lets the runner fan out concurrently.
	Parallel bool

	// Ephemeral creates the set, runs the command, and destroys the
	// set — cleanup happens on every exit path.
	Ephemeral bool

	// Create configures the ephemeral set (ignored otherwise).
	Create CreateOptions
}

// Exec runs a command across the members of a set via the supplied
// runner. With Ephemeral, the set is created first and destroyed
// afterwards even when the command fails or panics.
func (m *Manager) Exec(ctx context.Context, name string, command []string, opts ExecOptions, runner ExecRunner) error {
	if len(command) == 0 {
		return fmt.Errorf("no command specified after --")
	}
	if runner == nil {
		return fmt.Errorf("no exec runner configured")
	}

	if opts.Ephemeral {
		return m.execEphemeral(ctx, name, command, opts, runner)
	}

	metaDir := FindMetaDir(m.cwd)
	wtDir, err := m.setRoot(metaDir, name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(wtDir); err != nil {
		return fmt.Errorf("%w: '%s' at %s", ErrNotFound, name, wtDir)
	}

	dirs, err := m.execDirs(ctx, wtDir, opts)
	if err != nil {
		return err
	}
	return runner(ctx, dirs, command, opts.Parallel)
}

// execEphemeral is create → exec → destroy with the destroy guaranteed.
func (m *Manager) execEphemeral(ctx context.Context, name string, command []string, opts ExecOptions, runner ExecRunner) (err error) {
	if err := ValidateName(name); err != nil {
		return err
	}

	createOpts := opts.Create
	createOpts.Ephemeral = true
	// Ephemeral sets are disposable; creation must not fail on
	// skipped repos, so strict stays off.
	createOpts.Strict = false

	if m.verbose {
		fmt.Fprintf(m.errOut, "Creating ephemeral worktree '%s'...\n", name)
	}
	result, err := m.Create(ctx, name, createOpts)
	if err != nil {
		return err
	}

	// The cleanup must run whether the command succeeds, fails, or
	// panics. A deferred closure is the only exit path they all share.
	defer func() {
		if r := recover(); r != nil {
			m.destroyEphemeral(ctx, name)
			panic(r)
		}
		m.destroyEphemeral(ctx, name)
	}()

	dirs, err := m.execDirs(ctx, result.Root, opts)
	if err != nil {
		return err
	}
	return runner(ctx, dirs, command, opts.Parallel)
}

func (m *Manager) destroyEphemeral(ctx context.Context, name string) {
	if m.verbose {
		fmt.Fprintf(m.errOut, "Destroying ephemeral worktree '%s'...\n", name)
	}
	if _, err := m.Remove(ctx, name, true); err != nil {
		fmt.Fprintf(m.errOut, "%s Failed to destroy ephemeral worktree '%s': %v\n",
			color.YellowString("warning:"), name, err)
		fmt.Fprintf(m.errOut, "  Run 'worktree remove %s --force' or 'worktree prune' to clean up.\n", name)
	}
}

// execDirs resolves the member directories after include/exclude
// filtering.
func (m *Manager) execDirs(ctx context.Context, wtDir string, opts ExecOptions) ([]string, error) {
	repos, err := DiscoverRepos(ctx, m.git, wtDir)
	if err != nil {
		return nil, err
	}

	included := func(alias string) bool {
		if len(opts.Include) > 0 {
			found := false
			for _, inc := range opts.Include {
				if inc == alias {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		for _, exc := range opts.Exclude {
			if exc == alias {
				return false
			}
		}
		return true
	}

	var dirs []string
	for _, r := range repos {
		if included(r.Alias) {
			dirs = append(dirs, r.Path)
		}
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no repos selected after include/exclude filtering")
	}
	return dirs, nil
}
