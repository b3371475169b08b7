// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package forge

import (
	"context"
	"fmt"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

func (r *Resolver) githubClient(ctx context.Context) *github.Client {
	if r.githubToken == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: r.githubToken})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

func (r *Resolver) githubHeadBranch(ctx context.Context, owner, repo string, number int) (string, error) {
	pr, _, err := r.githubClient(ctx).PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s/%s#%d: %w", owner, repo, number, err)
	}
	if pr.Head == nil || pr.Head.Ref == nil || *pr.Head.Ref == "" {
		return "", fmt.Errorf("%s/%s#%d has no head branch", owner, repo, number)
	}
	return *pr.Head.Ref, nil
}
