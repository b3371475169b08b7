// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package gitcmd

import (
	"fmt"
	"sort"
)

// GitEnv returns the environment variables that make git safe to drive
// from a non-interactive coordinator:
//
//   - GIT_PAGER=cat           disable the pager
//   - GIT_TERMINAL_PROMPT=0   fail instead of prompting for credentials
//   - GIT_CONFIG_*            force color output
//
// Color vars are always set because the caller may be a subprocess with
// piped stdout; TTY detection happens in the outer executor.
func GitEnv() map[string]string {
	return map[string]string{
		"GIT_PAGER":           "cat",
		"GIT_TERMINAL_PROMPT": "0",
		"GIT_CONFIG_COUNT":    "1",
		"GIT_CONFIG_KEY_0":    "color.ui",
		"GIT_CONFIG_VALUE_0":  "always",
	}
}

// GitEnvWithSSH returns GitEnv plus GIT_SSH_COMMAND when sshCommand is
// non-empty. Used when the manifest's ssh section configures options.
func GitEnvWithSSH(sshCommand string) map[string]string {
	env := GitEnv()
	if sshCommand != "" {
		env["GIT_SSH_COMMAND"] = sshCommand
	}
	return env
}

// EnvSlice renders GitEnv as KEY=VALUE pairs for exec.Cmd, in stable order.
func EnvSlice() []string {
	env := GitEnv()
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, env[k]))
	}
	return out
}
