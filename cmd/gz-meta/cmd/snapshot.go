// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-metagit/pkg/manifest"
	"github.com/gizzahub/gzh-cli-metagit/pkg/snapshot"
	"github.com/gizzahub/gzh-cli-metagit/pkg/tui"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture and restore workspace state",
		Long: `Snapshots freeze every repository's HEAD (SHA, branch, dirty flag)
into a JSON file under .meta-snapshots, and restore rewinds the
workspace to that state, stashing dirty trees first.

The snapshot file format is experimental and may change.

Quick Start:
  gz-meta snapshot create before-upgrade
  gz-meta snapshot list
  gz-meta snapshot restore before-upgrade --dry-run
  gz-meta snapshot restore before-upgrade --force`,
	}

	cmd.AddCommand(newSnapshotCreateCmd())
	cmd.AddCommand(newSnapshotListCmd())
	cmd.AddCommand(newSnapshotShowCmd())
	cmd.AddCommand(newSnapshotRestoreCmd())
	cmd.AddCommand(newSnapshotDeleteCmd())
	return cmd
}

// snapshotEngine builds an Engine rooted at the enclosing workspace.
func snapshotEngine() (*snapshot.Engine, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	root, err := manifest.WorkspaceRoot(cwd)
	if err != nil {
		return nil, "", err
	}
	opts := []snapshot.EngineOption{snapshot.WithOutput(os.Stdout, os.Stderr)}
	if stdinIsTerminal() {
		opts = append(opts, snapshot.WithConfirm(confirmPrompt))
	}
	return snapshot.NewEngine(root, opts...), root, nil
}

// snapshotRepoDirs lists "." plus the full manifest tree; snapshots
// are recursive by default.
func snapshotRepoDirs(root string) ([]string, error) {
	paths, err := manifest.WalkTree(root, nil)
	if err != nil {
		return nil, err
	}
	return append([]string{"."}, paths...), nil
}

func newSnapshotCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Capture the current state of every repo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, root, err := snapshotEngine()
			if err != nil {
				return err
			}
			dirs, err := snapshotRepoDirs(root)
			if err != nil {
				return err
			}

			fmt.Printf("Creating snapshot '%s' of %d repos...\n", args[0], len(dirs))
			snap, err := engine.Capture(cmd.Context(), args[0], dirs)
			if err != nil {
				return err
			}
			fmt.Printf("Captured state of %d repos\n", len(snap.Repos))
			fmt.Printf("Snapshot saved: %s/%s.json\n", snapshot.DirName, snap.Name)
			return nil
		},
	}
}

func newSnapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, err := snapshotEngine()
			if err != nil {
				return err
			}
			infos, err := snapshot.List(root)
			if err != nil {
				return err
			}
			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(infos)
			}
			tui.FormatSnapshotList(os.Stdout, infos)
			return nil
		},
	}
}

func newSnapshotShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show one snapshot's recorded repo states",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, err := snapshotEngine()
			if err != nil {
				return err
			}
			snap, err := snapshot.Load(root, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(snap)
			}
			tui.FormatSnapshotShow(os.Stdout, snap)
			return nil
		},
	}
}

func newSnapshotRestoreCmd() *cobra.Command {
	var (
		force  bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "restore <name>",
		Short: "Rewind every repo to a snapshot's state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := snapshotEngine()
			if err != nil {
				return err
			}
			outcome, err := engine.Restore(cmd.Context(), args[0], force, dryRun)
			if err != nil {
				return err
			}
			if outcome.DryRun || outcome.Aborted {
				return nil
			}
			if outcome.Failed > 0 {
				return fmt.Errorf("restored %d repo(s), %d failed", outcome.Restored, outcome.Failed)
			}
			fmt.Printf("Restored %d repo(s)\n", outcome.Restored)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview without changing anything")
	return cmd
}

func newSnapshotDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, err := snapshotEngine()
			if err != nil {
				return err
			}
			if err := snapshot.Delete(root, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted snapshot '%s'\n", args[0])
			return nil
		},
	}
}
