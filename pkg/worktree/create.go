// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package worktree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gizzahub/gzh-cli-metagit/pkg/depgraph"
	"github.com/gizzahub/gzh-cli-metagit/pkg/giturl"
	"github.com/gizzahub/gzh-cli-metagit/pkg/manifest"
)

// CreateOptions configures Create.
type CreateOptions struct {
	// Branch overrides the derived wt/<name> branch for every repo.
	Branch string

	// Repos selects members explicitly (alias or alias:branch).
	Repos []RepoSpec

	// All selects every manifest project, plus the workspace root
	// when it is itself a git repository.
	All bool

	// FromRef starts each worktree from a tag/SHA instead of HEAD.
	FromRef string

	// FromPR ("owner/repo#N") starts the matching repo from the PR's
	// head branch. Mutually exclusive with FromRef.
	FromPR string

	// Ephemeral marks the set for automatic cleanup.
	Ephemeral bool

	// TTLSeconds sets an expiry consumed by prune. nil never expires.
	TTLSeconds *uint64

	// Custom holds raw key=value metadata pairs.
	Custom []string

	// Strict promotes skip-with-warning situations to failures.
	Strict bool

	// NoDeps disables root auto-inclusion and dependency resolution.
	NoDeps bool
}

// CreateResult describes a created set.
type CreateResult struct {
	Name       string            `json:"name"`
	Root       string            `json:"root"`
	Repos      []Repo            `json:"repos"`
	Ephemeral  bool              `json:"ephemeral"`
	TTLSeconds *uint64           `json:"ttl_seconds,omitempty"`
	Custom     map[string]string `json:"custom,omitempty"`
}

// repoPlan is one member scheduled for creation.
type repoPlan struct {
	alias  string
	source string
	branch string
}

// Create materializes a new worktree set: one git worktree per
// selected repo, all on the resolved branch, registered in the store.
func (m *Manager) Create(ctx context.Context, name string, opts CreateOptions) (*CreateResult, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	strict := opts.Strict || m.strict

	custom, invalid := ParseCustomMeta(opts.Custom)
	for _, s := range invalid {
		if err := m.warnOrBail(strict, "--meta value '%s' missing '=' separator (expected key=value), skipping", s); err != nil {
			return nil, err
		}
	}

	if opts.FromRef != "" && opts.FromPR != "" {
		return nil, fmt.Errorf("%w: --from-ref and --from-pr are mutually exclusive", ErrConflictingOptions)
	}
	if len(opts.Repos) == 0 && !opts.All {
		return nil, fmt.Errorf("specify repos with --repo <alias> or use --all")
	}

	metaDir, err := RequireMetaDir(m.cwd)
	if err != nil {
		return nil, err
	}
	wtDir, err := m.setRoot(metaDir, name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(wtDir); err == nil {
		return nil, fmt.Errorf("%w: '%s' at %s (remove it first)", ErrAlreadyExists, name, wtDir)
	}

	ws, err := LoadProjects(metaDir)
	if err != nil {
		return nil, err
	}

	plans, err := m.selectRepos(metaDir, ws, name, opts)
	if err != nil {
		return nil, err
	}

	if opts.FromPR != "" {
		if err := m.applyFromPR(ctx, plans, opts.FromPR, strict); err != nil {
			return nil, err
		}
	}

	var created []Repo

	// When "." participates, the set root IS the root worktree: git
	// worktree add creates the leaf directory itself, so it must run
	// before anything else touches wtDir.
	dotCreated := false
	for _, plan := range plans {
		if plan.alias != "." {
			continue
		}
		if m.verbose {
			fmt.Fprintf(m.errOut, "Creating meta repo worktree at %s (branch: %s)\n", wtDir, plan.branch)
		}
		if err := os.MkdirAll(filepath.Dir(wtDir), 0o755); err != nil {
			return nil, err
		}
		createdBranch, addErr := m.git.WorktreeAdd(ctx, plan.source, wtDir, plan.branch, opts.FromRef)
		if addErr != nil {
			if opts.FromRef == "" {
				return nil, addErr
			}
			if err := m.warnOrBail(strict, "Skipping '.': %v", addErr); err != nil {
				return nil, err
			}
			break
		}
		created = append(created, Repo{Alias: ".", Path: wtDir, Branch: plan.branch, CreatedBranch: createdBranch})
		dotCreated = true
		break
	}

	if !dotCreated {
		if err := os.MkdirAll(wtDir, 0o755); err != nil {
			return nil, err
		}
	}

	for _, plan := range plans {
		if plan.alias == "." {
			continue
		}
		// vendor/nested-lib materializes as nested-lib.
		destName := plan.alias
		if idx := strings.LastIndex(destName, "/"); idx >= 0 {
			destName = destName[idx+1:]
		}
		dest := filepath.Join(wtDir, destName)

		if m.verbose {
			fmt.Fprintf(m.errOut, "Creating worktree for '%s' at %s (branch: %s)\n", plan.alias, dest, plan.branch)
		}

		createdBranch, addErr := m.git.WorktreeAdd(ctx, plan.source, dest, plan.branch, opts.FromRef)
		if addErr != nil {
			if opts.FromRef == "" {
				return nil, addErr
			}
			if err := m.warnOrBail(strict, "Skipping '%s': %v", plan.alias, addErr); err != nil {
				return nil, err
			}
			continue
		}
		created = append(created, Repo{Alias: plan.alias, Path: dest, Branch: plan.branch, CreatedBranch: createdBranch})
	}

	if _, err := EnsureGitignore(metaDir, WorktreesDirName); err != nil {
		if err := m.warnOrBail(strict, "Failed to update .gitignore: %v", err); err != nil {
			return nil, err
		}
	}

	entry := StoreEntry{
		Name:       name,
		Project:    metaDir,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Ephemeral:  opts.Ephemeral,
		TTLSeconds: opts.TTLSeconds,
		Custom:     custom,
	}
	for _, r := range created {
		entry.Repos = append(entry.Repos, StoreRepo{Alias: r.Alias, Branch: r.Branch, CreatedBranch: r.CreatedBranch})
	}
	if err := m.warnStoreError(m.store.Add(wtDir, entry), strict); err != nil {
		return nil, err
	}

	fireHook(ctx, metaDir, "post_create", hookEnvForEntry(name, wtDir, entry), m.errOut)

	return &CreateResult{
		Name:       name,
		Root:       wtDir,
		Repos:      created,
		Ephemeral:  opts.Ephemeral,
		TTLSeconds: opts.TTLSeconds,
		Custom:     custom,
	}, nil
}

// selectRepos determines the member list and per-repo branches.
func (m *Manager) selectRepos(metaDir string, ws *manifest.Workspace, name string, opts CreateOptions) ([]repoPlan, error) {
	perRepoBranch := func(alias string) string {
		for _, spec := range opts.Repos {
			if spec.Alias == alias {
				return spec.Branch
			}
		}
		return ""
	}

	if opts.All {
		var plans []repoPlan
		if isGitWorktree(metaDir) {
			plans = append(plans, repoPlan{
				alias:  ".",
				source: metaDir,
				branch: ResolveBranch(name, opts.Branch, perRepoBranch(".")),
			})
		}
		for _, p := range ws.Projects {
			plans = append(plans, repoPlan{
				alias:  p.Name,
				source: filepath.Join(metaDir, p.Path),
				branch: ResolveBranch(name, opts.Branch, perRepoBranch(p.Name)),
			})
		}
		return plans, nil
	}

	if opts.NoDeps {
		var plans []repoPlan
		for _, spec := range opts.Repos {
			if spec.Alias == "." {
				plans = append(plans, repoPlan{alias: ".", source: metaDir,
					branch: ResolveBranch(name, opts.Branch, spec.Branch)})
				continue
			}
			source, _, err := LookupNestedProject(metaDir, spec.Alias)
			if err != nil {
				return nil, err
			}
			plans = append(plans, repoPlan{alias: spec.Alias, source: source,
				branch: ResolveBranch(name, opts.Branch, spec.Branch)})
		}
		return plans, nil
	}

	// Default: auto-include the workspace root and each explicit
	// repo's transitive depends_on closure.
	graph := depgraph.Build(ws.Projects)

	include := make(map[string]bool)
	if isGitWorktree(metaDir) {
		include["."] = true
	}
	for _, spec := range opts.Repos {
		include[spec.Alias] = true
		if spec.Alias == "." {
			continue
		}
		for _, dep := range graph.AllDependencies(aliasToName(ws, spec.Alias)) {
			if !include[dep] {
				include[dep] = true
				if m.verbose {
					fmt.Fprintf(m.errOut, "  Including '%s' (dependency of '%s')\n", dep, spec.Alias)
				}
			}
		}
	}

	var plans []repoPlan
	if include["."] {
		plans = append(plans, repoPlan{alias: ".", source: metaDir,
			branch: ResolveBranch(name, opts.Branch, perRepoBranch("."))})
	}
	// Deterministic member order: explicit specs first, then resolved
	// dependencies sorted by alias.
	ordered := make([]string, 0, len(include))
	for _, spec := range opts.Repos {
		if spec.Alias != "." && include[spec.Alias] {
			ordered = append(ordered, spec.Alias)
			delete(include, spec.Alias)
		}
	}
	delete(include, ".")
	rest := make([]string, 0, len(include))
	for alias := range include {
		rest = append(rest, alias)
	}
	sort.Strings(rest)
	ordered = append(ordered, rest...)

	for _, alias := range ordered {
		source, _, err := LookupNestedProject(metaDir, alias)
		if err != nil {
			return nil, err
		}
		plans = append(plans, repoPlan{alias: alias, source: source,
			branch: ResolveBranch(name, opts.Branch, perRepoBranch(alias))})
	}
	return plans, nil
}

// aliasToName maps a path alias to the project's graph name.
func aliasToName(ws *manifest.Workspace, alias string) string {
	for _, p := range ws.Projects {
		if p.Path == alias || p.Name == alias {
			return p.Name
		}
	}
	return alias
}

// applyFromPR resolves owner/repo#N to a head branch, fetches it into
// the matching member, and pins that member's branch.
func (m *Manager) applyFromPR(ctx context.Context, plans []repoPlan, spec string, strict bool) error {
	ownerRepo, number, err := parsePRSpec(spec)
	if err != nil {
		return err
	}
	if m.resolver == nil {
		return fmt.Errorf("--from-pr requires a configured forge client")
	}

	matched := false
	for i := range plans {
		if plans[i].alias == "." {
			continue
		}
		remote := m.git.RemoteURL(ctx, plans[i].source)
		if remote == "" || !strings.EqualFold(giturl.OwnerRepo(remote), ownerRepo) {
			continue
		}

		owner, repo, _ := strings.Cut(ownerRepo, "/")
		branch, err := m.resolver.ResolveHeadBranch(ctx, giturl.Host(remote), owner, repo, number)
		if err != nil {
			return fmt.Errorf("failed to resolve PR %s: %w", spec, err)
		}
		if err := m.git.FetchBranch(ctx, plans[i].source, branch); err != nil {
			if err := m.warnOrBail(strict, "Failed to fetch PR branch '%s': %v", branch, err); err != nil {
				return err
			}
		}
		plans[i].branch = branch
		matched = true
		break
	}

	if !matched {
		return m.warnOrBail(strict, "No repo matches '%s'. PR branch not applied.", ownerRepo)
	}
	return nil
}

// parsePRSpec parses "owner/repo#N".
func parsePRSpec(spec string) (ownerRepo string, number int, err error) {
	ownerRepo, num, ok := strings.Cut(spec, "#")
	if !ok || !strings.Contains(ownerRepo, "/") {
		return "", 0, fmt.Errorf("invalid PR spec %q (expected owner/repo#N)", spec)
	}
	number, err = strconv.Atoi(num)
	if err != nil || number <= 0 {
		return "", 0, fmt.Errorf("invalid PR number in %q", spec)
	}
	return ownerRepo, number, nil
}
