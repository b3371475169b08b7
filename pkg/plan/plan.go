// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package plan builds command plans handed back to the outer fan-out
// executor. A plan is the passive form of a bulk operation: a list of
// (dir, cmd, env) records the caller runs, sequentially or in parallel.
package plan

import (
	"github.com/gizzahub/gzh-cli-metagit/internal/gitcmd"
)

// Command is one planned invocation.
type Command struct {
	Dir string            `json:"dir"`
	Cmd string            `json:"cmd"`
	Env map[string]string `json:"env,omitempty"`
}

// Plan is an ordered list of commands plus an optional parallelism hint.
// Order is preserved from input; nil Parallel leaves the choice to the
// executor.
type Plan struct {
	Commands []Command `json:"commands"`
	Parallel *bool     `json:"parallel,omitempty"`
}

// Sequential wraps commands into a plan that must run in input order.
func Sequential(commands []Command) *Plan {
	p := false
	return &Plan{Commands: commands, Parallel: &p}
}

// Concurrent wraps commands into a plan the executor may fan out.
func Concurrent(commands []Command) *Plan {
	p := true
	return &Plan{Commands: commands, Parallel: &p}
}

// ForEachDir plans the same shell command across dirs, preserving
// input order, with the non-interactive git environment attached.
func ForEachDir(dirs []string, cmd string) []Command {
	commands := make([]Command, 0, len(dirs))
	for _, dir := range dirs {
		commands = append(commands, Command{
			Dir: dir,
			Cmd: cmd,
			Env: gitcmd.GitEnv(),
		})
	}
	return commands
}

// GitEnv re-exports the non-interactive git environment for callers
// assembling their own commands.
func GitEnv() map[string]string {
	return gitcmd.GitEnv()
}

// GitEnvWithSSH is GitEnv plus GIT_SSH_COMMAND when set.
func GitEnvWithSSH(sshCommand string) map[string]string {
	return gitcmd.GitEnvWithSSH(sshCommand)
}
