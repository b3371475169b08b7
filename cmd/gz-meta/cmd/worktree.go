// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-metagit/internal/config"
	"github.com/gizzahub/gzh-cli-metagit/pkg/forge"
	"github.com/gizzahub/gzh-cli-metagit/pkg/plan"
	"github.com/gizzahub/gzh-cli-metagit/pkg/tui"
	"github.com/gizzahub/gzh-cli-metagit/pkg/worktree"
)

func newWorktreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worktree",
		Short: "Manage git worktree sets across repos",
		Long: `A worktree set materializes one branch across several repositories
at once: a named directory holding one git worktree per participating
repo. Sets are tracked in a centralized store with optional TTL and
ephemeral semantics; prune reclaims expired and orphaned sets.

Quick Start:
  gz-meta worktree create feature-x --repo app --repo lib
  gz-meta worktree create hotfix --all --from-ref v1.2.0
  gz-meta worktree exec ci --ephemeral --all -- make test
  gz-meta worktree prune --dry-run`,
	}

	cmd.AddCommand(newWorktreeCreateCmd())
	cmd.AddCommand(newWorktreeAddCmd())
	cmd.AddCommand(newWorktreeRemoveCmd())
	cmd.AddCommand(newWorktreeListCmd())
	cmd.AddCommand(newWorktreeStatusCmd())
	cmd.AddCommand(newWorktreeDiffCmd())
	cmd.AddCommand(newWorktreeExecCmd())
	cmd.AddCommand(newWorktreePruneCmd())
	return cmd
}

func newWorktreeManager() (*worktree.Manager, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadDefault()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return worktree.NewManager(
		worktree.WithCwd(cwd),
		worktree.WithOutput(os.Stdout, os.Stderr),
		worktree.WithVerbose(verbose),
		worktree.WithStrict(strictMode),
		worktree.WithPRResolver(forge.NewResolver(
			forge.WithGitHubToken(cfg.GitHub.Token),
			forge.WithGitLabToken(cfg.GitLab.Token),
		)),
	)
}

func parseRepoSpecs(raw []string) ([]worktree.RepoSpec, error) {
	specs := make([]worktree.RepoSpec, 0, len(raw))
	for _, s := range raw {
		spec, err := worktree.ParseRepoSpec(s)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// worktreeCreateFlags are the create options shared by create and
// ephemeral exec.
type worktreeCreateFlags struct {
	branch    string
	repos     []string
	all       bool
	fromRef   string
	fromPR    string
	ephemeral bool
	ttl       string
	meta      []string
	noDeps    bool
}

func (f *worktreeCreateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.branch, "branch", "", "Override the derived branch name")
	cmd.Flags().StringArrayVar(&f.repos, "repo", nil, "Repo to include (alias or alias:branch), repeatable")
	cmd.Flags().BoolVar(&f.all, "all", false, "Include every manifest project")
	cmd.Flags().StringVar(&f.fromRef, "from-ref", "", "Start worktrees from a tag/SHA")
	cmd.Flags().StringVar(&f.fromPR, "from-pr", "", "Start from a PR's head branch (owner/repo#N)")
	cmd.Flags().BoolVar(&f.ephemeral, "ephemeral", false, "Mark for automatic cleanup")
	cmd.Flags().StringVar(&f.ttl, "ttl", "", "Time-to-live (30s, 5m, 1h, 2d, 1w)")
	cmd.Flags().StringArrayVar(&f.meta, "meta", nil, "Custom metadata (key=value), repeatable")
	cmd.Flags().BoolVar(&f.noDeps, "no-deps", false, "Skip root auto-inclusion and dependency resolution")
}

func (f *worktreeCreateFlags) toOptions() (worktree.CreateOptions, error) {
	specs, err := parseRepoSpecs(f.repos)
	if err != nil {
		return worktree.CreateOptions{}, err
	}
	opts := worktree.CreateOptions{
		Branch:    f.branch,
		Repos:     specs,
		All:       f.all,
		FromRef:   f.fromRef,
		FromPR:    f.fromPR,
		Ephemeral: f.ephemeral,
		Custom:    f.meta,
		NoDeps:    f.noDeps,
	}
	if f.ttl != "" {
		seconds, err := worktree.ParseDuration(f.ttl)
		if err != nil {
			return worktree.CreateOptions{}, err
		}
		opts.TTLSeconds = &seconds
	}
	return opts, nil
}

func newWorktreeCreateCmd() *cobra.Command {
	flags := &worktreeCreateFlags{}

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new worktree set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.toOptions()
			if err != nil {
				return err
			}
			opts.Strict = strictMode

			manager, err := newWorktreeManager()
			if err != nil {
				return err
			}
			result, err := manager.Create(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(result)
			}
			fmt.Printf("Created worktree '%s' at %s\n", result.Name, result.Root)
			for _, r := range result.Repos {
				note := ""
				if r.CreatedBranch {
					note = " (new)"
				}
				fmt.Printf("  %s -> %s%s\n", r.Alias, r.Branch, note)
			}
			if result.Ephemeral {
				fmt.Println("  [ephemeral]")
			}
			if result.TTLSeconds != nil {
				fmt.Printf("  [TTL: %s]\n", worktree.FormatDuration(int64(*result.TTLSeconds)))
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newWorktreeAddCmd() *cobra.Command {
	var repos []string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add repos to an existing worktree set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := parseRepoSpecs(repos)
			if err != nil {
				return err
			}
			manager, err := newWorktreeManager()
			if err != nil {
				return err
			}
			added, err := manager.Add(cmd.Context(), args[0], specs)
			if err != nil {
				return err
			}
			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(added)
			}
			for _, r := range added {
				note := ""
				if r.CreatedBranch {
					note = " (new)"
				}
				fmt.Printf("Added '%s' to worktree '%s' (branch: %s%s)\n", r.Alias, args[0], r.Branch, note)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&repos, "repo", nil, "Repo to add (alias or alias:branch), repeatable")
	cmd.MarkFlagRequired("repo")
	return cmd
}

func newWorktreeRemoveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"destroy"},
		Short:   "Remove a worktree set",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newWorktreeManager()
			if err != nil {
				return err
			}
			result, err := manager.Remove(cmd.Context(), args[0], force)
			if err != nil {
				return err
			}
			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(result)
			}
			fmt.Printf("Destroyed worktree '%s'\n", result.Name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Remove even with uncommitted changes")
	return cmd
}

func newWorktreeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List worktree sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newWorktreeManager()
			if err != nil {
				return err
			}
			entries, err := manager.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(entries)
			}
			tui.FormatWorktreeList(os.Stdout, entries)
			return nil
		},
	}
}

func newWorktreeStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <name>",
		Short: "Show per-repo status of a worktree set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newWorktreeManager()
			if err != nil {
				return err
			}
			statuses, err := manager.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(statuses)
			}
			tui.FormatWorktreeStatus(os.Stdout, args[0], statuses)
			return nil
		},
	}
}

func newWorktreeDiffCmd() *cobra.Command {
	var (
		base string
		stat bool
	)

	cmd := &cobra.Command{
		Use:   "diff <name>",
		Short: "Show cross-repo diff vs a base ref",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newWorktreeManager()
			if err != nil {
				return err
			}
			entries, totals, err := manager.Diff(cmd.Context(), args[0], base)
			if err != nil {
				return err
			}
			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(struct {
					Name   string               `json:"name"`
					Base   string               `json:"base"`
					Repos  []worktree.DiffEntry `json:"repos"`
					Totals worktree.DiffTotals  `json:"totals"`
				}{args[0], base, entries, totals})
			}
			tui.FormatWorktreeDiff(os.Stdout, args[0], base, entries, totals)
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "main", "Base ref for comparison")
	cmd.Flags().BoolVar(&stat, "stat", false, "Show diffstat summary only (output is always the per-repo summary; the flag changes nothing)")
	return cmd
}

func newWorktreeExecCmd() *cobra.Command {
	var (
		include  []string
		exclude  []string
		parallel bool
		flags    = &worktreeCreateFlags{}
	)

	cmd := &cobra.Command{
		Use:   "exec <name> [flags] -- <command>...",
		Short: "Run a command across a worktree set",
		Long: `Run a command in every member of a worktree set. With --ephemeral,
the set is created first and destroyed afterwards — cleanup runs even
when the command fails.

Quick Start:
  gz-meta worktree exec feature-x -- make test
  gz-meta worktree exec ci --ephemeral --all --parallel -- make check`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			command := args[1:]
			if cmd.ArgsLenAtDash() >= 0 {
				command = args[cmd.ArgsLenAtDash():]
				if cmd.ArgsLenAtDash() == 0 {
					return fmt.Errorf("worktree name required before --")
				}
			}

			createOpts, err := flags.toOptions()
			if err != nil {
				return err
			}

			manager, err := newWorktreeManager()
			if err != nil {
				return err
			}
			return manager.Exec(cmd.Context(), name, command, worktree.ExecOptions{
				Include:   include,
				Exclude:   exclude,
				Parallel:  parallel,
				Ephemeral: flags.ephemeral,
				Create:    createOpts,
			}, execViaPlan)
		},
	}

	cmd.Flags().StringSliceVar(&include, "include", nil, "Only run in these repos")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Skip these repos")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Run across repos concurrently")
	flags.register(cmd)
	return cmd
}

// execViaPlan is the local fan-out engine: the command runs via the
// shell in each member directory with the git environment applied.
func execViaPlan(ctx context.Context, dirs []string, command []string, parallel bool) error {
	commands := plan.ForEachDir(dirs, shellquote.Join(command...))
	if parallel {
		return runPlan(ctx, plan.Concurrent(commands))
	}
	return runPlan(ctx, plan.Sequential(commands))
}

func newWorktreePruneCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove expired and orphaned worktree sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newWorktreeManager()
			if err != nil {
				return err
			}
			result, err := manager.Prune(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(result)
			}
			tui.FormatPruneEntries(os.Stdout, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report without removing")
	return cmd
}
