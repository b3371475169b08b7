// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-metagit/internal/config"
	"github.com/gizzahub/gzh-cli-metagit/pkg/clone"
)

func newCloneCmd() *cobra.Command {
	var (
		recursive bool
		parallel  int
		gitDepth  int
		metaDepth int
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "clone <url> [dir]",
		Short: "Clone a meta repository and all of its child repositories",
		Long: `Clone a meta repository, then every child repository its .meta
manifest declares. With --recursive, manifests found inside freshly
cloned children are followed too.

Quick Start:
  gz-meta clone git@github.com:org/meta.git
  gz-meta clone --recursive --parallel 8 git@github.com:org/meta.git
  gz-meta clone --depth 1 --meta-depth 2 git@github.com:org/meta.git`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			opts := clone.CloneOptions{
				URL:       args[0],
				Recursive: recursive,
				Parallel:  parallel,
				GitDepth:  gitDepth,
				DryRun:    dryRun,
			}
			if len(args) == 2 {
				opts.Dir = args[1]
			}
			if cmd.Flags().Changed("meta-depth") {
				opts.MetaDepth = &metaDepth
			}
			if !cmd.Flags().Changed("parallel") {
				if cfg, err := config.LoadDefault(); err == nil && cfg.Clone.Parallel > 0 {
					opts.Parallel = cfg.Clone.Parallel
				}
			}

			sink := &clone.ConsoleSink{Out: os.Stderr, Verbose: verbose}
			_, err = clone.CloneMeta(cmd.Context(), cwd, opts, os.Stdout, sink)
			return err
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Follow nested .meta manifests")
	cmd.Flags().IntVar(&parallel, "parallel", clone.DefaultParallelism, "Concurrent clone workers")
	cmd.Flags().IntVar(&gitDepth, "depth", 0, "Shallow clone depth (0 = full)")
	cmd.Flags().IntVar(&metaDepth, "meta-depth", 0, "Max nested manifest recursion (unset = unlimited)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the clone command without running it")

	return cmd
}
