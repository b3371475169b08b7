// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package worktree

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/gizzahub/gzh-cli-metagit/internal/gitcmd"
)

// PRResolver resolves a pull-request spec ("owner/repo#N") to the PR's
// head branch name. Implemented per forge host in pkg/forge.
type PRResolver interface {
	ResolveHeadBranch(ctx context.Context, host, owner, repo string, number int) (string, error)
}

// ExecRunner fans a command out across directories. The default CLI
// runner executes sequentially or in parallel; plugin mode hands the
// directories back to the outer engine as a plan.
type ExecRunner func(ctx context.Context, dirs []string, command []string, parallel bool) error

// Manager dispatches worktree set operations. It is the shared context
// of every operation: workspace location, git plumbing, store handle,
// and output streams.
type Manager struct {
	cwd      string
	git      *gitOps
	store    *Store
	out      io.Writer
	errOut   io.Writer
	verbose  bool
	strict   bool
	resolver PRResolver
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCwd sets the directory operations resolve the workspace from.
func WithCwd(cwd string) ManagerOption {
	return func(m *Manager) { m.cwd = cwd }
}

// WithStore overrides the default store location.
func WithStore(store *Store) ManagerOption {
	return func(m *Manager) { m.store = store }
}

// WithExecutor overrides the git executor.
func WithExecutor(exec *gitcmd.Executor) ManagerOption {
	return func(m *Manager) { m.git = newGitOps(exec) }
}

// WithOutput sets the stdout/stderr streams.
func WithOutput(out, errOut io.Writer) ManagerOption {
	return func(m *Manager) { m.out, m.errOut = out, errOut }
}

// WithVerbose enables progress chatter on stderr.
func WithVerbose(verbose bool) ManagerOption {
	return func(m *Manager) { m.verbose = verbose }
}

// WithStrict promotes warnings to failures.
func WithStrict(strict bool) ManagerOption {
	return func(m *Manager) { m.strict = strict }
}

// WithPRResolver installs the forge client used by --from-pr.
func WithPRResolver(r PRResolver) ManagerOption {
	return func(m *Manager) { m.resolver = r }
}

// NewManager builds a Manager. The store defaults to the user data
// directory; output defaults to stdout/stderr.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m := &Manager{
		cwd:    cwd,
		git:    newGitOps(nil),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		store, err := NewStore()
		if err != nil {
			return nil, err
		}
		m.store = store
	}
	return m, nil
}

// warnOrBail prints a warning, or fails the operation in strict mode.
func (m *Manager) warnOrBail(strict bool, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if strict {
		return fmt.Errorf("%s (strict mode)", msg)
	}
	fmt.Fprintf(m.errOut, "%s %s\n", color.YellowString("warning:"), msg)
	return nil
}

// warnStoreError downgrades store write failures to warnings unless
// strict.
func (m *Manager) warnStoreError(err error, strict bool) error {
	if err == nil {
		return nil
	}
	return m.warnOrBail(strict, "Failed to update store: %v", err)
}

// setRoot returns the on-disk root for a named set.
func (m *Manager) setRoot(metaDir, name string) (string, error) {
	root, err := ResolveWorktreeRoot(metaDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}
