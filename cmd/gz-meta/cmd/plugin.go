// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gizzahub/gzh-cli-metagit/pkg/clone"
	commitpkg "github.com/gizzahub/gzh-cli-metagit/pkg/commit"
	"github.com/gizzahub/gzh-cli-metagit/pkg/plugin"
)

// pluginInfo describes this binary to the outer meta CLI.
func pluginInfo(version string) plugin.Info {
	return plugin.Info{
		Name:        "git",
		Version:     version,
		Description: "Git operations for meta repositories",
		Commands: []string{
			"git clone",
			"git update",
			"git status",
			"git commit",
			"git setup-ssh",
			"git snapshot",
			"git worktree",
		},
		Help: plugin.Help{
			Usage: "meta git <command> [args]",
			Commands: strings.Join([]string{
				"clone <url>      Clone a meta repo and its children",
				"update           Clone missing repos from the manifest",
				"status           git status across the workspace",
				"commit           Commit staged changes across repos",
				"setup-ssh        Reconcile remotes, configure multiplexing",
				"snapshot <cmd>   Capture/restore workspace state",
				"worktree <cmd>   Cross-repo worktree sets",
			}, "\n"),
			Examples: strings.Join([]string{
				"meta git clone --recursive git@github.com:org/meta.git",
				"meta git worktree create f1 --repo app",
				"meta git snapshot create before-upgrade",
			}, "\n"),
			Note: "Unrecognized git verbs are planned across all repos.",
		},
	}
}

// RunPlugin drives one plugin-protocol invocation. Returns the
// process exit code.
//
// stdout must carry exactly one JSON response, so the process-wide
// stdout is pointed at stderr for the duration of the handler; only
// the protocol writer keeps the real stream.
func RunPlugin(mode, version string) int {
	appVersion = version
	realStdout := os.Stdout
	os.Stdout = os.Stderr
	defer func() { os.Stdout = realStdout }()

	return plugin.Run(context.Background(), mode, pluginInfo(version),
		handlePluginRequest, os.Stdin, realStdout, os.Stderr)
}

// handlePluginRequest dispatches a plugin request onto the same core
// the CLI uses. Human progress goes to stderr; stdout carries only the
// JSON response.
func handlePluginRequest(ctx context.Context, req *plugin.Request) plugin.Response {
	cwd, err := os.Getwd()
	if err != nil {
		return plugin.Errorf("cannot determine working directory: %v", err)
	}

	command := strings.TrimSpace(strings.TrimPrefix(req.Command, "git "))
	verb, _, _ := strings.Cut(command, " ")

	switch verb {
	case "clone":
		return pluginClone(ctx, cwd, req)
	case "update":
		sink := &clone.ConsoleSink{Out: os.Stderr, Verbose: req.Options.Verbose}
		if err := clone.Update(ctx, cwd, req.Projects, clone.UpdateOptions{
			Recursive: req.Options.Recursive,
			DryRun:    req.Options.DryRun,
		}, os.Stderr, sink); err != nil {
			return plugin.Errorf("%v", err)
		}
		return plugin.Message("")
	case "status":
		p, err := statusPlan(cwd, req.Options.Recursive)
		if err != nil {
			return plugin.Errorf("%v", err)
		}
		return plugin.PlanResponse(p)
	case "commit":
		return pluginCommit(ctx, cwd, req)
	case "setup-ssh", "snapshot", "worktree":
		rest := strings.TrimSpace(strings.TrimPrefix(command, verb))
		var cliArgs []string
		if verb != "setup-ssh" && rest != "" {
			cliArgs = append(cliArgs, strings.Fields(rest)...)
		}
		return runPluginSubcommand(verb, append(cliArgs, req.Args...), req.Options)
	case "":
		help := pluginInfo(appVersion).Help.Commands
		return plugin.ShowHelp(&help)
	default:
		// Pass-through: plan "git <verb> ..." across all repos.
		args := append([]string{verb}, req.Args...)
		p, err := passthroughPlan(cwd, args, req.Options.Recursive, req.Options.Parallel)
		if err != nil {
			return plugin.Errorf("%v", err)
		}
		return plugin.PlanResponse(p)
	}
}

// runPluginSubcommand re-enters the cobra tree for subcommand families
// whose behavior is identical in both modes. Human output is already
// redirected to stderr by RunPlugin.
func runPluginSubcommand(verb string, args []string, opts plugin.RequestOptions) plugin.Response {
	verbose = opts.Verbose
	jsonOutput = opts.JSONOutput
	strictMode = opts.Strict
	if opts.DryRun && (verb == "worktree" || verb == "snapshot") {
		args = append(args, "--dry-run")
	}

	rootCmd.SetArgs(append([]string{verb}, args...))
	if err := rootCmd.Execute(); err != nil {
		return plugin.Errorf("%v", err)
	}
	return plugin.Message("")
}

// pluginCommit mirrors the commit command, but bulk mode hands the
// plan back to the outer executor instead of running it.
func pluginCommit(ctx context.Context, cwd string, req *plugin.Request) plugin.Response {
	var message string
	edit := false
	args := req.Args
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--edit", "-e":
			edit = true
		case "-m", "--message":
			if i+1 < len(args) {
				i++
				message = args[i]
			}
		}
	}

	root, dirs, err := workspaceDirs(cwd, req.Options.Recursive)
	if err != nil {
		return plugin.Errorf("%v", err)
	}
	coordinator := commitpkg.NewCoordinator(root, commitpkg.WithOutput(os.Stderr, os.Stderr))
	staged, err := coordinator.FindStagedRepos(ctx, dirs)
	if err != nil {
		return plugin.Errorf("%v", err)
	}
	if len(staged) == 0 {
		return plugin.Message("No staged changes found in any repository.")
	}

	switch {
	case edit:
		result, err := coordinator.EditorCommit(ctx, staged)
		if err != nil {
			return plugin.Errorf("%v", err)
		}
		if result.Failed > 0 {
			return plugin.Errorf("%d commit(s) failed", result.Failed)
		}
		return plugin.Message("")
	case message != "":
		return plugin.PlanResponse(coordinator.BulkPlan(staged, message))
	default:
		coordinator.Preview(staged)
		return plugin.Message("")
	}
}

// pluginClone parses clone args in the plugin's flag style and runs
// the clone engine.
func pluginClone(ctx context.Context, cwd string, req *plugin.Request) plugin.Response {
	opts := clone.CloneOptions{
		Recursive: req.Options.Recursive,
		DryRun:    req.Options.DryRun,
	}
	if req.Options.Depth != nil {
		opts.GitDepth = *req.Options.Depth
	}

	args := req.Args
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--recursive", "-r":
			opts.Recursive = true
		case "--parallel":
			if i+1 < len(args) {
				i++
				if n, err := strconv.Atoi(args[i]); err == nil {
					opts.Parallel = n
				}
			}
		case "--depth":
			if i+1 < len(args) {
				i++
				if n, err := strconv.Atoi(args[i]); err == nil {
					opts.GitDepth = n
				}
			}
		case "--meta-depth":
			if i+1 < len(args) {
				i++
				if n, err := strconv.Atoi(args[i]); err == nil {
					opts.MetaDepth = &n
				}
			}
		default:
			if strings.HasPrefix(args[i], "-") {
				continue // unknown option, skip
			}
			if opts.URL == "" {
				opts.URL = args[i]
			} else if opts.Dir == "" {
				opts.Dir = args[i]
			}
		}
	}

	if opts.URL == "" {
		return plugin.Errorf("no repository URL provided")
	}

	sink := &clone.ConsoleSink{Out: os.Stderr, Verbose: req.Options.Verbose}
	if _, err := clone.CloneMeta(ctx, cwd, opts, os.Stderr, sink); err != nil {
		return plugin.Errorf("%v", err)
	}
	return plugin.Message(fmt.Sprintf("Cloned %s", opts.URL))
}
