// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package worktree

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gizzahub/gzh-cli-metagit/internal/gitcmd"
	"github.com/gizzahub/gzh-cli-metagit/internal/parser"
)

// gitOps bundles the git worktree plumbing used across operations.
type gitOps struct {
	exec *gitcmd.Executor
}

func newGitOps(exec *gitcmd.Executor) *gitOps {
	if exec == nil {
		exec = gitcmd.NewExecutor()
	}
	return &gitOps{exec: exec}
}

// WorktreeAdd creates a worktree of sourceRepo at dest on branch.
// It first tries to create the branch (-b, from fromRef when given);
// when the branch already exists it checks it out instead. Returns
// whether the branch was newly created.
func (g *gitOps) WorktreeAdd(ctx context.Context, sourceRepo, dest, branch, fromRef string) (createdBranch bool, err error) {
	args := []string{"worktree", "add", dest, "-b", branch}
	if fromRef != "" {
		args = append(args, fromRef)
	}
	result, err := g.exec.Run(ctx, sourceRepo, args...)
	if err != nil {
		return false, err
	}
	if result.ExitCode == 0 {
		return true, nil
	}

	// With an explicit start ref a failure usually means the ref is
	// missing in this repo; let the caller decide skip vs. bail.
	if fromRef != "" {
		return false, &gitcmd.GitError{
			Command:  "git " + strings.Join(args, " "),
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}

	if strings.Contains(result.Stderr, "already exists") {
		result, err = g.exec.Run(ctx, sourceRepo, "worktree", "add", dest, branch)
		if err != nil {
			return false, err
		}
		if result.ExitCode == 0 {
			return false, nil
		}
	}

	return false, &gitcmd.GitError{
		Command:  fmt.Sprintf("git worktree add %s", dest),
		ExitCode: result.ExitCode,
		Stderr:   result.Stderr,
	}
}

// RemoveRepos detaches every member worktree, children first and the
// workspace root last. Failures are collected, not fatal, so cleanup
// is best-effort.
func (g *gitOps) RemoveRepos(ctx context.Context, repos []Repo, force bool) []error {
	ordered := make([]Repo, 0, len(repos))
	var root *Repo
	for i := range repos {
		if repos[i].Alias == "." {
			root = &repos[i]
			continue
		}
		ordered = append(ordered, repos[i])
	}
	if root != nil {
		ordered = append(ordered, *root)
	}

	var errs []error
	for _, repo := range ordered {
		// git refuses to remove the worktree the command runs in, so
		// resolve the primary repo and operate from there.
		runDir := repo.Path
		if commonDir, err := g.exec.RunOutput(ctx, repo.Path, "rev-parse", "--path-format=absolute", "--git-common-dir"); err == nil {
			runDir = filepath.Dir(commonDir)
		}

		args := []string{"worktree", "remove"}
		if force {
			args = append(args, "--force")
		}
		args = append(args, repo.Path)
		result, err := g.exec.Run(ctx, runDir, args...)
		if err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", repo.Alias, err))
			continue
		}
		if result.ExitCode != 0 {
			errs = append(errs, fmt.Errorf("remove %s: %s", repo.Alias, strings.TrimSpace(result.Stderr)))
		}
	}
	return errs
}

// CurrentBranch returns the checked-out branch, or "" when detached.
func (g *gitOps) CurrentBranch(ctx context.Context, path string) (string, error) {
	out, err := g.exec.RunOutput(ctx, path, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if out == "HEAD" {
		return "", nil
	}
	return out, nil
}

// StatusSummary captures porcelain status for one repo.
type StatusSummary struct {
	Dirty          bool
	ModifiedFiles  []string
	UntrackedCount int
}

// Status runs git status --porcelain and classifies the result.
func (g *gitOps) Status(ctx context.Context, path string) (StatusSummary, error) {
	result, err := g.exec.Run(ctx, path, "status", "--porcelain")
	if err != nil {
		return StatusSummary{}, err
	}
	if result.ExitCode != 0 {
		return StatusSummary{}, &gitcmd.GitError{
			Command:  "git status --porcelain",
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	parsed := parser.ParsePorcelainStatus(result.Stdout)
	return StatusSummary{
		Dirty:          parsed.Dirty(),
		ModifiedFiles:  parsed.ModifiedFiles,
		UntrackedCount: parsed.UntrackedCount,
	}, nil
}

// AheadBehind returns the commits ahead of and behind the upstream.
// Repos without an upstream report (0, 0).
func (g *gitOps) AheadBehind(ctx context.Context, path string) (ahead, behind int) {
	out, err := g.exec.RunOutput(ctx, path, "rev-list", "--left-right", "--count", "@{upstream}...HEAD")
	if err != nil {
		return 0, 0
	}
	return parser.ParseAheadBehind(out)
}

// DiffStat aggregates git diff --numstat base..HEAD.
func (g *gitOps) DiffStat(ctx context.Context, path, baseRef string) (filesChanged, insertions, deletions int, files []string) {
	result, err := g.exec.Run(ctx, path, "diff", "--numstat", baseRef+"..HEAD")
	if err != nil || result.ExitCode != 0 {
		return 0, 0, 0, nil
	}
	return parser.ParseNumstat(result.Stdout)
}

// FetchBranch fetches branch from origin into a same-named local
// branch, so a subsequent worktree add can check it out.
func (g *gitOps) FetchBranch(ctx context.Context, path, branch string) error {
	result, err := g.exec.Run(ctx, path, "fetch", "origin", fmt.Sprintf("%s:%s", branch, branch))
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return &gitcmd.GitError{
			Command:  fmt.Sprintf("git fetch origin %s", branch),
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return nil
}

// RemoteURL returns the origin URL for a repo, or "".
func (g *gitOps) RemoteURL(ctx context.Context, path string) string {
	out, err := g.exec.RunOutput(ctx, path, "remote", "get-url", "origin")
	if err != nil {
		return ""
	}
	return out
}
