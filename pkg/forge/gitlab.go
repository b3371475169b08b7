// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package forge

import (
	"context"
	"fmt"

	gitlab "github.com/xanzy/go-gitlab"
)

func (r *Resolver) gitlabHeadBranch(ctx context.Context, host, owner, repo string, number int) (string, error) {
	client, err := gitlab.NewClient(r.gitlabToken, gitlab.WithBaseURL("https://"+host))
	if err != nil {
		return "", fmt.Errorf("failed to create gitlab client for %s: %w", host, err)
	}

	project := owner + "/" + repo
	mr, _, err := client.MergeRequests.GetMergeRequest(project, number, nil, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s!%d on %s: %w", project, number, host, err)
	}
	if mr.SourceBranch == "" {
		return "", fmt.Errorf("%s!%d has no source branch", project, number)
	}
	return mr.SourceBranch, nil
}
