// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package sshsetup reconciles on-disk remotes with the manifest and
// prepares SSH connection multiplexing for parallel git operations.
package sshsetup

import (
	"sort"

	"github.com/gizzahub/gzh-cli-metagit/pkg/giturl"
	"github.com/gizzahub/gzh-cli-metagit/pkg/manifest"
)

// DefaultHost is assumed when the manifest references no SSH URLs.
const DefaultHost = "github.com"

// DiscoverSSHHosts extracts the unique SSH hosts referenced by the
// manifest, sorted. Non-SSH URLs are ignored; an empty result falls
// back to DefaultHost.
func DiscoverSSHHosts(ws *manifest.Workspace) []string {
	seen := make(map[string]bool)
	for _, p := range ws.Projects {
		if p.RepoURL == "" || !giturl.IsSSH(p.RepoURL) {
			continue
		}
		if host := giturl.Host(p.RepoURL); host != "" {
			seen[host] = true
		}
	}
	if len(seen) == 0 {
		return []string{DefaultHost}
	}
	hosts := make([]string, 0, len(seen))
	for h := range seen {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}
