// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package sshsetup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/gizzahub/gzh-cli-metagit/internal/gitcmd"
	"github.com/gizzahub/gzh-cli-metagit/pkg/giturl"
	"github.com/gizzahub/gzh-cli-metagit/pkg/manifest"
)

// RemoteMismatch is a child repo whose origin URL differs from the
// manifest.
type RemoteMismatch struct {
	Name     string
	Path     string
	Expected string
	Actual   string
}

// Preflight runs the setup-ssh checks: remote reconciliation and
// multiplexing configuration.
type Preflight struct {
	exec   *gitcmd.Executor
	out    io.Writer
	errOut io.Writer

	// confirm asks a yes/no question; nil means never fix.
	confirm func(prompt string) (bool, error)
}

// Option configures a Preflight.
type Option func(*Preflight)

// WithExecutor overrides the git executor.
func WithExecutor(exec *gitcmd.Executor) Option {
	return func(p *Preflight) { p.exec = exec }
}

// WithOutput sets the output streams.
func WithOutput(out, errOut io.Writer) Option {
	return func(p *Preflight) { p.out, p.errOut = out, errOut }
}

// WithConfirm installs the interactive confirmation.
func WithConfirm(confirm func(string) (bool, error)) Option {
	return func(p *Preflight) { p.confirm = confirm }
}

// NewPreflight creates a Preflight.
func NewPreflight(opts ...Option) *Preflight {
	p := &Preflight{
		exec:   gitcmd.NewExecutor(),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FindMismatches compares each cloned project's origin URL against the
// manifest, using the SSH-form-insensitive equivalence.
func (p *Preflight) FindMismatches(ctx context.Context, metaDir string, ws *manifest.Workspace) []RemoteMismatch {
	var mismatches []RemoteMismatch
	for _, project := range ws.Projects {
		if project.RepoURL == "" {
			continue
		}
		repoPath := filepath.Join(metaDir, project.Path)
		if !p.exec.IsGitRepository(ctx, repoPath) {
			continue
		}
		actual, err := p.exec.RunOutput(ctx, repoPath, "remote", "get-url", "origin")
		if err != nil || actual == "" {
			continue
		}
		if !giturl.Equivalent(actual, project.RepoURL) {
			mismatches = append(mismatches, RemoteMismatch{
				Name:     project.Name,
				Path:     repoPath,
				Expected: project.RepoURL,
				Actual:   actual,
			})
		}
	}
	return mismatches
}

// FixMismatches rewrites origin for each mismatch.
func (p *Preflight) FixMismatches(ctx context.Context, mismatches []RemoteMismatch) {
	for _, m := range mismatches {
		result, err := p.exec.Run(ctx, m.Path, "remote", "set-url", "origin", m.Expected)
		if err != nil || result.ExitCode != 0 {
			detail := ""
			if result != nil {
				detail = result.Stderr
			}
			fmt.Fprintf(p.out, "  %s %s failed: %v %s\n", color.RedString("x"), m.Name, err, detail)
			continue
		}
		fmt.Fprintf(p.out, "  %s %s -> %s\n", color.GreenString("+"), m.Name, m.Expected)
	}
}

// Run executes the full preflight: reconcile remotes (with a prompt),
// then offer to configure multiplexing for the manifest's SSH hosts.
func (p *Preflight) Run(ctx context.Context, cwd string) error {
	metaDir, err := manifest.WorkspaceRoot(cwd)
	if err != nil {
		return err
	}
	path, format, _ := manifest.FindConfigIn(metaDir)
	ws, err := manifest.ParseAs(path, format)
	if err != nil {
		return err
	}

	// Step 1: remote URL reconciliation.
	mismatches := p.FindMismatches(ctx, metaDir, ws)
	if len(mismatches) == 0 {
		fmt.Fprintf(p.out, "%s All remote URLs match .meta config.\n", color.GreenString("+"))
	} else {
		plural := ""
		if len(mismatches) > 1 {
			plural = "es"
		}
		fmt.Fprintf(p.out, "%s Found %d remote URL mismatch%s:\n", color.YellowString("!"), len(mismatches), plural)
		for _, m := range mismatches {
			fmt.Fprintf(p.out, "  %s\n", m.Name)
			fmt.Fprintf(p.out, "    actual:   %s\n", color.RedString(m.Actual))
			fmt.Fprintf(p.out, "    expected: %s\n", color.GreenString(m.Expected))
		}

		fix := false
		if p.confirm != nil {
			fix, err = p.confirm("Fix these remotes to match .meta?")
			if err != nil {
				return err
			}
		}
		if fix {
			p.FixMismatches(ctx, mismatches)
		} else {
			fmt.Fprintln(p.out, "Skipped. You can fix remotes manually with:")
			for _, m := range mismatches {
				fmt.Fprintf(p.out, "  git -C %s remote set-url origin %s\n", m.Name, m.Expected)
			}
		}
	}

	// Step 2: multiplexing setup.
	hosts := DiscoverSSHHosts(ws)
	if IsMultiplexingConfigured(hosts) {
		fmt.Fprintf(p.out, "%s SSH multiplexing is already configured.\n", color.GreenString("+"))
		fmt.Fprintln(p.out, "  Your parallel git operations should work efficiently.")
		return nil
	}

	controlPersist := 0
	if ws.SSH != nil {
		controlPersist = ws.SSH.ControlPersistSeconds
	}

	fmt.Fprintf(p.out, "SSH multiplexing is not configured for: %v\n", hosts)
	fmt.Fprintln(p.out, "Proposed ~/.ssh/config addition:")
	fmt.Fprintln(p.out, ConfigBlock(hosts, controlPersist))

	install := false
	if p.confirm != nil {
		install, err = p.confirm("Install this SSH config block?")
		if err != nil {
			return err
		}
	}
	if !install {
		fmt.Fprintln(p.out, "Skipped SSH multiplexing setup.")
		return nil
	}
	if err := InstallConfigBlock(hosts, controlPersist); err != nil {
		return fmt.Errorf("failed to set up SSH multiplexing: %w", err)
	}
	fmt.Fprintf(p.out, "%s SSH multiplexing configured.\n", color.GreenString("+"))
	fmt.Fprintln(p.out, "You can now run 'gz-meta update' without SSH rate limiting issues.")
	return nil
}
