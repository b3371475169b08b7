// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package forge resolves pull-request references against the hosting
// service: GitHub pull requests and GitLab merge requests.
package forge

import (
	"context"
	"fmt"
	"strings"
)

// Resolver maps a PR spec to its head branch, dispatching on the
// remote host.
type Resolver struct {
	githubToken string
	gitlabToken string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGitHubToken sets the GitHub API token.
func WithGitHubToken(token string) Option {
	return func(r *Resolver) { r.githubToken = token }
}

// WithGitLabToken sets the GitLab API token.
func WithGitLabToken(token string) Option {
	return func(r *Resolver) { r.gitlabToken = token }
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveHeadBranch returns the head branch of PR/MR number in
// host/owner/repo. GitHub hosts use the pull request API; anything
// with "gitlab" in the hostname uses the merge request API.
func (r *Resolver) ResolveHeadBranch(ctx context.Context, host, owner, repo string, number int) (string, error) {
	switch {
	case host == "" || host == "github.com":
		return r.githubHeadBranch(ctx, owner, repo, number)
	case strings.Contains(host, "gitlab"):
		return r.gitlabHeadBranch(ctx, host, owner, repo, number)
	default:
		return "", fmt.Errorf("unsupported forge host %q for PR resolution", host)
	}
}
