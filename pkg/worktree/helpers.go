// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package worktree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gizzahub/gzh-cli-metagit/pkg/manifest"
)

// WorktreesDirName is the directory under the workspace root that
// holds set roots.
const WorktreesDirName = ".worktrees"

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateName restricts set names to a portable filename-safe set.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q (allowed: letters, digits, '.', '_', '-', not leading)", ErrInvalidName, name)
	}
	return nil
}

// ResolveBranch picks the branch for one repo: the per-repo spec wins,
// then the global --branch flag, then the derived wt/<set-name>.
func ResolveBranch(setName, globalBranch, perRepoBranch string) string {
	if perRepoBranch != "" {
		return perRepoBranch
	}
	if globalBranch != "" {
		return globalBranch
	}
	return "wt/" + setName
}

var durationPattern = regexp.MustCompile(`^(\d+)([smhdw])$`)

// ParseDuration parses TTL strings like 30s, 5m, 1h, 2d, 1w into
// seconds.
func ParseDuration(s string) (uint64, error) {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q (expected forms: 30s, 5m, 1h, 2d, 1w)", s)
	}
	n, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	switch m[2] {
	case "s":
		return n, nil
	case "m":
		return n * 60, nil
	case "h":
		return n * 3600, nil
	case "d":
		return n * 86400, nil
	default:
		return n * 604800, nil
	}
}

// FormatDuration renders seconds compactly with at most two units,
// e.g. "1w2d", "2h30m", "45s".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = -seconds
	}
	units := []struct {
		secs  int64
		label string
	}{
		{604800, "w"}, {86400, "d"}, {3600, "h"}, {60, "m"}, {1, "s"},
	}
	var parts []string
	for _, u := range units {
		if seconds >= u.secs {
			parts = append(parts, fmt.Sprintf("%d%s", seconds/u.secs, u.label))
			seconds %= u.secs
			if len(parts) == 2 {
				break
			}
		}
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, "")
}

// FindMetaDir locates the workspace root governing cwd, or "" when
// there is none.
func FindMetaDir(cwd string) string {
	root, err := manifest.WorkspaceRoot(cwd)
	if err != nil {
		return ""
	}
	return root
}

// RequireMetaDir is FindMetaDir that fails when no manifest governs cwd.
func RequireMetaDir(cwd string) (string, error) {
	root := FindMetaDir(cwd)
	if root == "" {
		return "", manifest.ErrNotFound
	}
	return root, nil
}

// ResolveWorktreeRoot returns the directory holding set roots for the
// workspace. Falls back to cwd-relative when no workspace is found.
func ResolveWorktreeRoot(metaDir string) (string, error) {
	if metaDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		metaDir = cwd
	}
	return filepath.Join(metaDir, WorktreesDirName), nil
}

// LoadProjects parses the workspace manifest.
func LoadProjects(metaDir string) (*manifest.Workspace, error) {
	path, format, ok := manifest.FindConfigIn(metaDir)
	if !ok {
		return nil, manifest.ErrNotFound
	}
	return manifest.ParseAs(path, format)
}

// LookupProject finds a project by alias (its path or name).
func LookupProject(ws *manifest.Workspace, alias string) (*manifest.Project, error) {
	for i := range ws.Projects {
		if ws.Projects[i].Path == alias || ws.Projects[i].Name == alias {
			return &ws.Projects[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, alias)
}

// LookupNestedProject resolves an alias to a source directory,
// following nested manifests for slash-separated aliases like
// "vendor/nested-lib".
func LookupNestedProject(metaDir, alias string) (string, *manifest.Project, error) {
	ws, err := LoadProjects(metaDir)
	if err != nil {
		return "", nil, err
	}
	if p, err := LookupProject(ws, alias); err == nil {
		return filepath.Join(metaDir, p.Path), p, nil
	}

	// Walk path segments through nested manifests.
	segments := strings.Split(alias, "/")
	dir := metaDir
	var project *manifest.Project
	for i, seg := range segments {
		sub := strings.Join(segments[:i+1], "/")
		ws, err := LoadProjects(dir)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %s", ErrProjectNotFound, alias)
		}
		p, lookupErr := LookupProject(ws, seg)
		if lookupErr != nil {
			return "", nil, fmt.Errorf("%w: %s (no entry for %q)", ErrProjectNotFound, alias, sub)
		}
		project = p
		dir = filepath.Join(dir, p.Path)
	}
	return dir, project, nil
}

// DiscoverRepos enumerates the members of a set root on disk: the root
// itself when it is a git worktree (alias "."), then each child
// directory that is one, sorted by alias.
func DiscoverRepos(ctx context.Context, g *gitOps, setRoot string) ([]Repo, error) {
	var repos []Repo

	if isGitWorktree(setRoot) {
		branch, _ := g.CurrentBranch(ctx, setRoot)
		repos = append(repos, Repo{Alias: ".", Path: setRoot, Branch: branch})
	}

	entries, err := os.ReadDir(setRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, setRoot)
		}
		return nil, err
	}

	var children []Repo
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(setRoot, entry.Name())
		if !isGitWorktree(path) {
			continue
		}
		branch, _ := g.CurrentBranch(ctx, path)
		children = append(children, Repo{Alias: entry.Name(), Path: path, Branch: branch})
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Alias < children[j].Alias })

	return append(repos, children...), nil
}

// isGitWorktree reports whether path contains .git (a directory for a
// primary clone, a file for a linked worktree).
func isGitWorktree(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}

// EnsureGitignore appends dirname to the workspace .gitignore when it
// is not yet ignored.
func EnsureGitignore(metaDir, dirname string) (added bool, err error) {
	gitignore := filepath.Join(metaDir, ".gitignore")
	want := dirname + "/"

	data, err := os.ReadFile(gitignore)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == want || line == dirname {
			return false, nil
		}
	}

	f, err := os.OpenFile(gitignore, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return false, err
	}
	defer f.Close()
	prefix := ""
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		prefix = "\n"
	}
	if _, err := fmt.Fprintf(f, "%s%s\n", prefix, want); err != nil {
		return false, err
	}
	return true, nil
}

// ParseCustomMeta parses repeated key=value flags. Entries without '='
// are returned separately so the caller can warn or bail.
func ParseCustomMeta(pairs []string) (map[string]string, []string) {
	custom := make(map[string]string)
	var invalid []string
	for _, s := range pairs {
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			invalid = append(invalid, s)
			continue
		}
		custom[key] = value
	}
	return custom, invalid
}
