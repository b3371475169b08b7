// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package cmd implements the CLI commands for gz-meta.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// appVersion is set by main.go
	appVersion string

	// Global flags
	verbose    bool
	jsonOutput bool
	strictMode bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gz-meta",
	Short: "Multi-repository coordinator for meta workspaces",
	Long: `gz-meta coordinates workspaces composed of a meta repository and the
child repositories declared in its .meta manifest.

Quick Start:
  # Clone a meta repo and all of its children
  gz-meta clone git@github.com:org/meta.git --recursive

  # Clone anything the manifest declares that is missing locally
  gz-meta update

  # Work on a branch across several repos at once
  gz-meta worktree create feature-x --repo app --repo lib

  # Freeze and restore the whole workspace state
  gz-meta snapshot create before-upgrade
  gz-meta snapshot restore before-upgrade`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
// Called once from main.main().
func Execute(version string) {
	appVersion = version
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	rootCmd.PersistentFlags().BoolVar(&strictMode, "strict", false, "Promote warnings to failures")

	rootCmd.AddCommand(newCloneCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newGitCmd())
	rootCmd.AddCommand(newCommitCmd())
	rootCmd.AddCommand(newSetupSSHCmd())
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newWorktreeCmd())
}
