// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-metagit/pkg/commit"
	"github.com/gizzahub/gzh-cli-metagit/pkg/manifest"
)

func newCommitCmd() *cobra.Command {
	var (
		message string
		edit    bool
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "commit [-m MSG | --edit]",
		Short: "Commit staged changes across the workspace",
		Long: `Detect repositories with staged changes and commit them: one shared
message with -m, or an editor session with one section per repo using
--edit. Without either, list the staged repos.

Quick Start:
  gz-meta commit
  gz-meta commit -m "fix: align protocol versions"
  gz-meta commit --edit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if edit && message != "" {
				return fmt.Errorf("--edit and -m are mutually exclusive")
			}

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			root, err := manifest.WorkspaceRoot(cwd)
			if err != nil {
				return err
			}
			_, dirs, err := workspaceDirs(cwd, false)
			if err != nil {
				return err
			}

			coordinator := commit.NewCoordinator(root, commit.WithOutput(os.Stdout, os.Stderr))
			staged, err := coordinator.FindStagedRepos(cmd.Context(), dirs)
			if err != nil {
				return err
			}
			if len(staged) == 0 {
				fmt.Println("No staged changes found in any repository.")
				return nil
			}

			switch {
			case edit:
				result, err := coordinator.EditorCommit(cmd.Context(), staged)
				if err != nil {
					return err
				}
				if result.Failed > 0 {
					return fmt.Errorf("%d commit(s) failed", result.Failed)
				}
				return nil

			case message != "":
				p := coordinator.BulkPlan(staged, message)
				if jsonOutput {
					return printPlanJSON(p)
				}
				if dryRun {
					for _, c := range p.Commands {
						fmt.Printf("%s> %s\n", c.Dir, c.Cmd)
					}
					return nil
				}
				return runPlan(cmd.Context(), p)

			default:
				coordinator.Preview(staged)
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message applied to every staged repo")
	cmd.Flags().BoolVarP(&edit, "edit", "e", false, "Open an editor with one section per staged repo")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the planned commits without running them")

	return cmd
}
