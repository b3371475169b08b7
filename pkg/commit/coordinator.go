// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package commit coordinates commits across the repositories of a
// workspace: one message for all staged repos, or an editor session
// with one section per repo.
package commit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kballard/go-shellquote"

	"github.com/gizzahub/gzh-cli-metagit/internal/gitcmd"
	"github.com/gizzahub/gzh-cli-metagit/pkg/plan"
)

// StagedRepo is a repository with a non-empty staged set.
type StagedRepo struct {
	// Name is the manifest-relative directory ("." for the root).
	Name string

	// Path is the absolute repo directory.
	Path string

	// Files lists the staged paths.
	Files []string
}

// Coordinator detects staged repositories and dispatches commits.
type Coordinator struct {
	exec      *gitcmd.Executor
	workspace string
	out       io.Writer
	errOut    io.Writer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithExecutor overrides the git executor.
func WithExecutor(exec *gitcmd.Executor) Option {
	return func(c *Coordinator) { c.exec = exec }
}

// WithOutput sets the output streams.
func WithOutput(out, errOut io.Writer) Option {
	return func(c *Coordinator) { c.out, c.errOut = out, errOut }
}

// NewCoordinator creates a Coordinator rooted at workspace.
func NewCoordinator(workspace string, opts ...Option) *Coordinator {
	c := &Coordinator{
		exec:      gitcmd.NewExecutor(),
		workspace: workspace,
		out:       os.Stdout,
		errOut:    os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) repoPath(dir string) string {
	if dir == "." {
		return c.workspace
	}
	return filepath.Join(c.workspace, dir)
}

// FindStagedRepos returns the dirs whose index differs from HEAD, in
// input order (manifest order with the root first).
func (c *Coordinator) FindStagedRepos(ctx context.Context, dirs []string) ([]StagedRepo, error) {
	var staged []StagedRepo
	for _, dir := range dirs {
		path := c.repoPath(dir)
		if !c.exec.IsGitRepository(ctx, path) {
			continue
		}
		// Non-zero exit from --quiet means the staged set is non-empty.
		clean, err := c.exec.RunQuiet(ctx, path, "diff", "--cached", "--quiet")
		if err != nil {
			return nil, err
		}
		if clean {
			continue
		}
		files, err := c.exec.RunLines(ctx, path, "diff", "--cached", "--name-only")
		if err != nil {
			return nil, err
		}
		staged = append(staged, StagedRepo{Name: dir, Path: path, Files: files})
	}
	return staged, nil
}

// BulkPlan emits one `git commit -m <msg>` per staged repo as a
// sequential plan for the outer executor. The message is shell-quoted.
func (c *Coordinator) BulkPlan(repos []StagedRepo, message string) *plan.Plan {
	commands := make([]plan.Command, 0, len(repos))
	for _, repo := range repos {
		dir := repo.Path
		if repo.Name == "." {
			dir = "."
		}
		commands = append(commands, plan.Command{
			Dir: dir,
			Cmd: "git commit -m " + shellquote.Join(message),
			Env: plan.GitEnv(),
		})
	}
	return plan.Sequential(commands)
}

// Preview lists staged repos and their file counts.
func (c *Coordinator) Preview(repos []StagedRepo) {
	fmt.Fprintln(c.out, "Repositories with staged changes:")
	for _, repo := range repos {
		fmt.Fprintf(c.out, "  %s (%d files)\n", repo.Name, len(repo.Files))
	}
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "Use --edit to create per-repo commit messages")
	fmt.Fprintln(c.out, `Use -m "message" to apply the same message to all`)
}
