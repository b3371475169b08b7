// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package clone

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/gizzahub/gzh-cli-metagit/internal/gitcmd"
	"github.com/gizzahub/gzh-cli-metagit/pkg/manifest"
)

// UpdateOptions configures the update planner.
type UpdateOptions struct {
	// Recursive removes the manifest recursion bound; otherwise only
	// first-level projects are considered.
	Recursive bool

	// DryRun prints the pending clones without running them.
	DryRun bool

	// Parallel overrides the worker count (default 4).
	Parallel int
}

// Update scans the workspace for missing repositories and clones them.
// projectDirs, when non-empty, is the recursive-mode directory list
// supplied by the outer CLI; otherwise the local manifest is read.
// Orphaned directories are reported, never removed.
func Update(ctx context.Context, cwd string, projectDirs []string, opts UpdateOptions, out io.Writer, sink Sink) error {
	recursive := opts.Recursive || len(projectDirs) > 0

	var dirsToCheck []string
	if len(projectDirs) > 0 {
		for _, p := range projectDirs {
			dir := cwd
			if p != "." {
				dir = filepath.Join(cwd, p)
			}
			if _, _, ok := manifest.FindConfigIn(dir); ok {
				dirsToCheck = append(dirsToCheck, dir)
			}
		}
	} else {
		dirsToCheck = []string{cwd}
	}

	warnOrphans(cwd, dirsToCheck, out)

	var metaDepth *int
	if !recursive {
		zero := 0
		metaDepth = &zero
	}
	queue := NewQueue(0, metaDepth)

	for _, dir := range dirsToCheck {
		depthLevel := 0
		if dir != cwd {
			depthLevel = 1
		}
		if _, err := queue.PushFromManifest(dir, depthLevel); err != nil {
			return err
		}
	}

	_, initialCount := queue.Counts()
	if initialCount == 0 {
		fmt.Fprintln(out, "All repositories are already cloned.")
		return nil
	}

	if opts.DryRun {
		fmt.Fprintf(out, "%s Would clone %d missing repositories:\n", color.CyanString("[DRY RUN]"), initialCount)
		for _, task := range queue.DrainAll() {
			fmt.Fprintf(out, "  git clone %s %s\n", task.URL, task.TargetPath)
		}
		return nil
	}

	mode := ""
	if recursive {
		mode = " (recursive mode)"
	}
	fmt.Fprintf(out, "Cloning %d missing repositories%s\n", initialCount, mode)

	NewPool(queue, opts.Parallel, sink).Run(ctx)

	reportCompletion(out, queue, initialCount, "Update completed")
	return nil
}

// warnOrphans reports directories that look like repos but are not in
// the manifest. Reporting only; update never deletes.
func warnOrphans(cwd string, dirsToCheck []string, out io.Writer) {
	for _, dir := range dirsToCheck {
		path, format, ok := manifest.FindConfigIn(dir)
		if !ok {
			continue
		}
		ws, err := manifest.ParseAs(path, format)
		if err != nil {
			continue
		}

		declared := make(map[string]bool, len(ws.Projects))
		for _, p := range ws.Projects {
			declared[p.Path] = true
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			name := entry.Name()
			if strings.HasPrefix(name, ".") || declared[name] {
				continue
			}
			if _, err := os.Stat(filepath.Join(dir, name, ".git")); err != nil {
				continue
			}
			rel := name
			if dir != cwd {
				rel = filepath.Join(dir, name)
			}
			fmt.Fprintf(out, "%s %s exists locally but is not in .meta. To remove: rm -rf %s\n",
				color.YellowString("warning:"), rel, rel)
		}
	}
}

// CloneOptions configures the meta-repo clone command.
type CloneOptions struct {
	// URL is the meta repository to clone.
	URL string

	// Dir overrides the destination; defaults to the repo name.
	Dir string

	// Recursive follows nested manifests without bound.
	Recursive bool

	// Parallel overrides the worker count (default 4).
	Parallel int

	// GitDepth, when positive, shallow-clones every repository.
	GitDepth int

	// MetaDepth caps manifest recursion in recursive mode.
	MetaDepth *int

	// DryRun prints the meta clone command and stops.
	DryRun bool
}

// CloneMeta clones the meta repository, then its children by seeding a
// queue from the fresh manifest. Returns the destination directory.
func CloneMeta(ctx context.Context, cwd string, opts CloneOptions, out io.Writer, sink Sink) (string, error) {
	if opts.URL == "" {
		return "", fmt.Errorf("no repository URL provided")
	}
	if err := gitcmd.SanitizeURL(opts.URL); err != nil {
		return "", err
	}

	dir := opts.Dir
	if dir == "" {
		dir = repoNameFromURL(opts.URL)
	}

	args := []string{"clone"}
	if opts.GitDepth > 0 {
		args = append(args, "--depth", strconv.Itoa(opts.GitDepth))
	}
	args = append(args, opts.URL, dir)

	if opts.DryRun {
		fmt.Fprintf(out, "%s Would clone meta repository:\n", color.CyanString("[DRY RUN]"))
		fmt.Fprintf(out, "  git %s\n", strings.Join(args, " "))
		return dir, nil
	}

	fmt.Fprintf(out, "Cloning meta repository: %s\n", opts.URL)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), gitcmd.EnvSlice()...)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to clone meta repository: %w", err)
	}

	cloneDirPath := filepath.Join(cwd, dir)
	if _, _, ok := manifest.FindConfigIn(cloneDirPath); !ok {
		fmt.Fprintln(out, "No .meta config found in cloned repository")
		return dir, nil
	}

	metaDepth := opts.MetaDepth
	if !opts.Recursive {
		zero := 0
		metaDepth = &zero
	}
	queue := NewQueue(opts.GitDepth, metaDepth)

	initialCount, err := queue.PushFromManifest(cloneDirPath, 0)
	if err != nil {
		return dir, err
	}
	if initialCount == 0 {
		fmt.Fprintln(out, "No child repositories to clone")
		return dir, nil
	}

	mode := ""
	if opts.Recursive {
		mode = " (recursive mode)"
	}
	fmt.Fprintf(out, "Cloning %d child repositories%s\n", initialCount, mode)

	NewPool(queue, opts.Parallel, sink).Run(ctx)

	reportCompletion(out, queue, initialCount, "Meta-repo clone completed")
	return dir, nil
}

func reportCompletion(out io.Writer, queue *Queue, initialCount int, verb string) {
	completed, total := queue.Counts()
	failed := len(queue.Failed())
	cloned := completed - failed
	if total > initialCount {
		fmt.Fprintf(out, "%s (%d repos cloned, %d discovered via nested .meta files)\n",
			verb, cloned, total-initialCount)
	} else {
		fmt.Fprintf(out, "%s (%d repos cloned)\n", verb, cloned)
	}
	if failed > 0 {
		fmt.Fprintf(out, "%s %d repos failed to clone\n", color.RedString("error:"), failed)
	}
}

func repoNameFromURL(url string) string {
	name := strings.TrimSuffix(url, ".git")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		return "meta"
	}
	return name
}
