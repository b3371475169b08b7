// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/gizzahub/gzh-cli-metagit/pkg/plan"
)

// maxParallelPlan caps concurrent plan commands when the plan allows
// fan-out.
const maxParallelPlan = 8

// runPlan executes a plan locally when gz-meta runs standalone (the
// outer fan-out engine executes it in plugin mode). Per-command
// failures are counted, not fatal.
func runPlan(ctx context.Context, p *plan.Plan) error {
	if p == nil || len(p.Commands) == 0 {
		return nil
	}

	parallel := p.Parallel != nil && *p.Parallel

	runOne := func(c plan.Command) error {
		cmd := exec.CommandContext(ctx, "sh", "-c", c.Cmd)
		cmd.Dir = c.Dir
		cmd.Env = os.Environ()
		for k, v := range c.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		fmt.Fprintf(os.Stdout, "%s> %s\n", c.Dir, c.Cmd)
		return cmd.Run()
	}

	failures := 0
	if parallel {
		var g errgroup.Group
		g.SetLimit(maxParallelPlan)
		results := make([]error, len(p.Commands))
		for i, c := range p.Commands {
			g.Go(func() error {
				results[i] = runOne(c)
				return nil
			})
		}
		_ = g.Wait()
		for _, err := range results {
			if err != nil {
				failures++
			}
		}
	} else {
		for _, c := range p.Commands {
			if err := runOne(c); err != nil {
				failures++
			}
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d command(s) failed", failures)
	}
	return nil
}

// printPlanJSON renders a plan without executing it.
func printPlanJSON(p *plan.Plan) error {
	return json.NewEncoder(os.Stdout).Encode(p)
}

// confirmPrompt asks a yes/no question on the terminal. Callers must
// not reach this without a TTY.
func confirmPrompt(prompt string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(prompt).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	).WithTheme(huh.ThemeCharm())
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

// stdinIsTerminal reports whether interactive prompts are possible.
func stdinIsTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}
