// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gizzahub/gzh-cli-metagit/internal/gitcmd"
	"github.com/gizzahub/gzh-cli-metagit/internal/parser"
)

// Engine performs capture and restore against a workspace.
type Engine struct {
	exec      *gitcmd.Executor
	workspace string
	out       io.Writer
	errOut    io.Writer

	// confirm asks the user before a restore mutates repos. Defaults
	// to the huh prompt in the CLI; tests inject their own.
	confirm func(prompt string) (bool, error)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithExecutor overrides the git executor.
func WithExecutor(exec *gitcmd.Executor) EngineOption {
	return func(e *Engine) { e.exec = exec }
}

// WithOutput sets the output streams.
func WithOutput(out, errOut io.Writer) EngineOption {
	return func(e *Engine) { e.out, e.errOut = out, errOut }
}

// WithConfirm installs the interactive confirmation used by restore.
func WithConfirm(confirm func(string) (bool, error)) EngineOption {
	return func(e *Engine) { e.confirm = confirm }
}

// NewEngine creates an Engine rooted at workspace.
func NewEngine(workspace string, opts ...EngineOption) *Engine {
	e := &Engine{
		exec:      gitcmd.NewExecutor(),
		workspace: workspace,
		out:       os.Stdout,
		errOut:    os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) repoPath(repoDir string) string {
	if repoDir == "." {
		return e.workspace
	}
	return filepath.Join(e.workspace, repoDir)
}

// CaptureRepoState reads one repository's HEAD state.
func (e *Engine) CaptureRepoState(ctx context.Context, path string) (RepoState, error) {
	sha, err := e.exec.RunOutput(ctx, path, "rev-parse", "HEAD")
	if err != nil {
		return RepoState{}, err
	}

	state := RepoState{SHA: sha}

	// Detached HEAD has no symbolic ref; that is not an error.
	if branch, err := e.exec.RunOutput(ctx, path, "symbolic-ref", "--short", "HEAD"); err == nil {
		state.Branch = branch
	}

	result, err := e.exec.Run(ctx, path, "status", "--porcelain")
	if err != nil {
		return state, err
	}
	if result.ExitCode != 0 {
		return state, fmt.Errorf("git status failed in %s: %s", path, strings.TrimSpace(result.Stderr))
	}
	state.Dirty = parser.ParsePorcelainStatus(result.Stdout).Dirty()

	return state, nil
}

// Capture records the state of every git repo among repoDirs in
// parallel. Directories that are not git repos are skipped; an empty
// result refuses to save.
func (e *Engine) Capture(ctx context.Context, name string, repoDirs []string) (*Snapshot, error) {
	type result struct {
		dir   string
		state RepoState
		err   error
		skip  bool
	}

	results := make([]result, len(repoDirs))
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for i, dir := range repoDirs {
		g.Go(func() error {
			path := e.repoPath(dir)
			if !e.exec.IsGitRepository(gctx, path) {
				mu.Lock()
				results[i] = result{dir: dir, skip: true}
				mu.Unlock()
				return nil
			}
			state, err := e.CaptureRepoState(gctx, path)
			mu.Lock()
			results[i] = result{dir: dir, state: state, err: err}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	repos := make(map[string]RepoState)
	dirtyCount := 0
	for _, r := range results {
		switch {
		case r.skip:
			fmt.Fprintf(e.out, "  ! %s (not a git repo, skipping)\n", r.dir)
		case r.err != nil:
			fmt.Fprintf(e.out, "  x %s (error: %v)\n", r.dir, r.err)
		default:
			if r.state.Dirty {
				dirtyCount++
				fmt.Fprintf(e.out, "  o %s (dirty)\n", r.dir)
			} else {
				fmt.Fprintf(e.out, "  + %s\n", r.dir)
			}
			repos[r.dir] = r.state
		}
	}

	if len(repos) == 0 {
		return nil, fmt.Errorf("no repos captured")
	}

	snap := &Snapshot{
		Version: Version,
		Name:    name,
		Created: time.Now().UTC(),
		Repos:   repos,
	}
	if err := Save(e.workspace, snap); err != nil {
		return nil, err
	}

	if dirtyCount > 0 {
		fmt.Fprintf(e.out, "%d repo(s) have uncommitted changes (recorded as dirty)\n", dirtyCount)
	}
	return snap, nil
}

// RestoreOutcome summarizes a restore pass.
type RestoreOutcome struct {
	Restored int
	Failed   int
	Stashed  int
	Skipped  []string
	DryRun   bool
	Aborted  bool
}

// Restore checks every repo in the snapshot back out to its recorded
// SHA. Dirty trees are stashed first; repos recorded on a branch whose
// tip still matches are checked out by branch name to avoid needless
// detachment. Missing repos are tolerated and reported.
func (e *Engine) Restore(ctx context.Context, name string, force, dryRun bool) (*RestoreOutcome, error) {
	snap, err := Load(e.workspace, name)
	if err != nil {
		return nil, err
	}

	type target struct {
		dir   string
		state RepoState
		dirty bool
	}
	var targets []target
	var missing []string

	for _, dir := range snap.SortedRepos() {
		state := snap.Repos[dir]
		path := e.repoPath(dir)
		if !e.exec.IsGitRepository(ctx, path) {
			missing = append(missing, dir)
			continue
		}
		current, err := e.CaptureRepoState(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect %s: %w", dir, err)
		}
		targets = append(targets, target{dir: dir, state: state, dirty: current.Dirty})
	}

	dirtyCount := 0
	for _, t := range targets {
		if t.dirty {
			dirtyCount++
		}
	}

	fmt.Fprintf(e.out, "Restore %d repos to snapshot '%s':\n", len(targets), name)
	fmt.Fprintf(e.out, "  - %d repos will checkout to their recorded SHA\n", len(targets)-dirtyCount)
	if dirtyCount > 0 {
		fmt.Fprintf(e.out, "  - %d repos have uncommitted changes (will be stashed)\n", dirtyCount)
	}
	if len(missing) > 0 {
		fmt.Fprintf(e.out, "  - %d repos missing (will be skipped): %v\n", len(missing), missing)
	}

	if dryRun {
		fmt.Fprintln(e.out, "[DRY RUN] No changes made")
		return &RestoreOutcome{Skipped: missing, DryRun: true}, nil
	}

	if !force {
		if e.confirm == nil {
			return nil, fmt.Errorf("confirmation requires a terminal (use --force)")
		}
		proceed, err := e.confirm("Proceed?")
		if err != nil {
			return nil, err
		}
		if !proceed {
			fmt.Fprintln(e.out, "Aborted.")
			return &RestoreOutcome{Skipped: missing, Aborted: true}, nil
		}
	}

	outcome := &RestoreOutcome{Skipped: missing}
	for _, t := range targets {
		path := e.repoPath(t.dir)
		stashed := false

		if t.dirty {
			msg := fmt.Sprintf("meta snapshot restore %s", name)
			before, _ := e.exec.RunOutput(ctx, path, "rev-parse", "--verify", "-q", "refs/stash")
			if _, err := e.exec.RunOutput(ctx, path, "stash", "push", "-m", msg); err != nil {
				fmt.Fprintf(e.out, "  x %s stash failed: %v\n", t.dir, err)
				outcome.Failed++
				continue
			}
			// An untracked-only tree leaves git nothing to stash; count a
			// stash only when git recorded a new entry.
			if after, _ := e.exec.RunOutput(ctx, path, "rev-parse", "--verify", "-q", "refs/stash"); after != "" && after != before {
				stashed = true
				outcome.Stashed++
			}
		}

		// Prefer the branch when it still points at the recorded SHA:
		// same commit, but HEAD stays attached.
		checkoutRef := t.state.SHA
		if t.state.Branch != "" {
			if tip, err := e.exec.RunOutput(ctx, path, "rev-parse", "--verify", "refs/heads/"+t.state.Branch); err == nil && tip == t.state.SHA {
				checkoutRef = t.state.Branch
			}
		}

		if _, err := e.exec.RunOutput(ctx, path, "checkout", checkoutRef); err != nil {
			fmt.Fprintf(e.out, "  x %s checkout failed: %v\n", t.dir, err)
			outcome.Failed++
			continue
		}

		note := ""
		if stashed {
			note = " (stashed changes)"
		}
		fmt.Fprintf(e.out, "  + %s -> %s%s\n", t.dir, shortSHA(checkoutRef), note)
		outcome.Restored++
	}

	return outcome, nil
}

func shortSHA(ref string) string {
	if len(ref) == 40 {
		return ref[:8]
	}
	return ref
}
