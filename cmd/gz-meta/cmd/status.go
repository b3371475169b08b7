// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"os"
	"path/filepath"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-metagit/pkg/manifest"
	"github.com/gizzahub/gzh-cli-metagit/pkg/plan"
	"github.com/gizzahub/gzh-cli-metagit/pkg/sshsetup"
)

// workspaceDirs returns the fan-out directory list: the workspace root
// first, then project paths from the manifest tree. maxDepth 0 stops
// at first-level projects; recursive passes nil for the full tree.
func workspaceDirs(cwd string, recursive bool) (string, []string, error) {
	root, err := manifest.WorkspaceRoot(cwd)
	if err != nil {
		return "", nil, err
	}
	var maxDepth *int
	if !recursive {
		zero := 0
		maxDepth = &zero
	}
	paths, err := manifest.WalkTree(root, maxDepth)
	if err != nil {
		return "", nil, err
	}
	return root, append([]string{"."}, paths...), nil
}

func newStatusCmd() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Run git status across the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			p, err := statusPlan(cwd, recursive)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printPlanJSON(p)
			}
			return runPlan(cmd.Context(), p)
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Include nested manifest projects")
	return cmd
}

// statusPlan emits git status across the workspace, sequentially so
// output stays readable.
func statusPlan(cwd string, recursive bool) (*plan.Plan, error) {
	root, dirs, err := workspaceDirs(cwd, recursive)
	if err != nil {
		return nil, err
	}
	abs := make([]string, len(dirs))
	for i, d := range dirs {
		if d == "." {
			abs[i] = root
		} else {
			abs[i] = filepath.Join(root, d)
		}
	}
	return plan.Sequential(plan.ForEachDir(abs, "git status")), nil
}

func newGitCmd() *cobra.Command {
	var (
		recursive bool
		parallel  bool
	)

	cmd := &cobra.Command{
		Use:   "git <args>...",
		Short: "Run an arbitrary git command across the workspace",
		Long: `Fan an arbitrary git command out to the workspace root and every
project repository.

Quick Start:
  gz-meta git --parallel fetch
  gz-meta git branch --show-current`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			p, err := passthroughPlan(cwd, args, recursive, parallel)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printPlanJSON(p)
			}
			return runPlan(cmd.Context(), p)
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Include nested manifest projects")
	cmd.Flags().BoolVarP(&parallel, "parallel", "p", false, "Run across repos concurrently")
	// Flags after the first git argument belong to git, not to us.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// passthroughPlan fans "git <verb> ..." out across the workspace.
// Parallel plans open SSH master connections first so N concurrent
// fetches don't race to become the ControlMaster.
func passthroughPlan(cwd string, gitArgs []string, recursive, parallel bool) (*plan.Plan, error) {
	root, dirs, err := workspaceDirs(cwd, recursive)
	if err != nil {
		return nil, err
	}
	abs := make([]string, len(dirs))
	for i, d := range dirs {
		if d == "." {
			abs[i] = root
		} else {
			abs[i] = filepath.Join(root, d)
		}
	}

	cmdLine := "git " + shellquote.Join(gitArgs...)
	commands := plan.ForEachDir(abs, cmdLine)

	if parallel {
		var pre []plan.Command
		if path, format, ok := manifest.FindConfigIn(root); ok {
			if ws, err := manifest.ParseAs(path, format); err == nil {
				pre = sshsetup.PreCommands(sshsetup.DiscoverSSHHosts(ws))
			}
		}
		if len(pre) > 0 {
			commands = append(pre, commands...)
		}
		return plan.Concurrent(commands), nil
	}
	return plan.Sequential(commands), nil
}
