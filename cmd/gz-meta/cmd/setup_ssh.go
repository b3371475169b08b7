// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-metagit/pkg/sshsetup"
)

func newSetupSSHCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup-ssh",
		Short: "Reconcile remotes with the manifest and configure SSH multiplexing",
		Long: `Compare each cloned repository's origin URL against the manifest and
offer to fix mismatches, then check whether SSH connection
multiplexing is configured for the manifest's hosts and offer to
install a config block. Multiplexing keeps parallel clone and fetch
fan-outs from opening one SSH connection per repo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			opts := []sshsetup.Option{
				sshsetup.WithOutput(os.Stdout, os.Stderr),
			}
			if stdinIsTerminal() {
				opts = append(opts, sshsetup.WithConfirm(confirmPrompt))
			}
			return sshsetup.NewPreflight(opts...).Run(cmd.Context(), cwd)
		},
	}
}
