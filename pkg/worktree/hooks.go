// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package worktree

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
)

// HooksDirName holds optional lifecycle scripts under the workspace
// root: post_create, post_destroy, post_prune.
const HooksDirName = ".meta-hooks"

const hookTimeout = 30 * time.Second

// fireHook runs <metaDir>/.meta-hooks/<name> with entry fields in the
// environment. Missing scripts are a no-op; failures are warnings —
// hooks never fail the operation that fired them.
func fireHook(ctx context.Context, metaDir, name string, env map[string]string, errOut io.Writer) {
	if metaDir == "" {
		return
	}
	script := filepath.Join(metaDir, HooksDirName, name)
	info, err := os.Stat(script)
	if err != nil || info.IsDir() {
		return
	}

	hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
	defer cancel()

	cmd := exec.CommandContext(hookCtx, script)
	cmd.Dir = metaDir
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		fmt.Fprintf(errOut, "%s hook %s failed: %v (output: %s)\n",
			color.YellowString("warning:"), name, err, strings.TrimSpace(string(output)))
	}
}

// hookEnvForEntry renders a store entry as META_WT_* variables.
func hookEnvForEntry(name, root string, entry StoreEntry) map[string]string {
	env := map[string]string{
		"META_WT_NAME":      name,
		"META_WT_ROOT":      root,
		"META_WT_EPHEMERAL": fmt.Sprintf("%t", entry.Ephemeral),
	}
	if entry.TTLSeconds != nil {
		env["META_WT_TTL"] = fmt.Sprintf("%d", *entry.TTLSeconds)
	}
	var repos []string
	for _, r := range entry.Repos {
		repos = append(repos, r.Alias+"="+r.Branch)
	}
	env["META_WT_REPOS"] = strings.Join(repos, ",")
	for k, v := range entry.Custom {
		env["META_WT_CUSTOM_"+strings.ToUpper(k)] = v
	}
	return env
}
