// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-metagit/pkg/clone"
)

func newUpdateCmd() *cobra.Command {
	var (
		recursive bool
		parallel  int
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Clone manifest repositories that are missing locally",
		Long: `Scan the workspace manifest (recursively with --recursive) and
clone every declared repository that does not exist on disk yet.
Directories that look like repos but are not declared are reported as
orphans; update never deletes anything.

Quick Start:
  gz-meta update
  gz-meta update --recursive
  gz-meta update --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			sink := &clone.ConsoleSink{Out: os.Stderr, Verbose: verbose}
			return clone.Update(cmd.Context(), cwd, nil, clone.UpdateOptions{
				Recursive: recursive,
				DryRun:    dryRun,
				Parallel:  parallel,
			}, os.Stdout, sink)
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Follow nested .meta manifests")
	cmd.Flags().IntVar(&parallel, "parallel", clone.DefaultParallelism, "Concurrent clone workers")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview missing clones without running them")

	return cmd
}
