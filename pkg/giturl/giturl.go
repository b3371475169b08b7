// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package giturl normalizes and compares git remote URLs across their
// scp-like SSH, ssh://, and https forms.
package giturl

import (
	"strings"
)

// Host extracts the hostname from any supported URL form, or "".
func Host(url string) string {
	url = strings.TrimSpace(url)

	if rest, ok := strings.CutPrefix(url, "ssh://"); ok {
		if at := strings.Index(rest, "@"); at >= 0 {
			rest = rest[at+1:]
		}
		if idx := strings.IndexAny(rest, "/:"); idx >= 0 {
			rest = rest[:idx]
		}
		return rest
	}

	for _, scheme := range []string{"https://", "http://", "git://"} {
		if rest, ok := strings.CutPrefix(url, scheme); ok {
			if idx := strings.Index(rest, "/"); idx >= 0 {
				rest = rest[:idx]
			}
			return rest
		}
	}

	// scp-like: git@host:owner/repo
	if at := strings.Index(url, "@"); at >= 0 {
		rest := url[at+1:]
		if colon := strings.Index(rest, ":"); colon >= 0 {
			return rest[:colon]
		}
	}

	return ""
}

// IsSSH reports whether the URL uses SSH transport (scp-like or ssh://).
func IsSSH(url string) bool {
	url = strings.TrimSpace(url)
	if strings.HasPrefix(url, "ssh://") {
		return true
	}
	// scp-like form: user@host:path, but not a scheme URL.
	return !strings.Contains(url, "://") && strings.Contains(url, "@") && strings.Contains(url, ":")
}

// OwnerRepo extracts "owner/repo" from a remote URL, or "".
func OwnerRepo(url string) string {
	path := ownerRepoPath(url)
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1]
}

func ownerRepoPath(url string) string {
	url = strings.TrimSuffix(strings.TrimSpace(url), ".git")
	url = strings.TrimSuffix(url, "/")

	if rest, ok := strings.CutPrefix(url, "ssh://"); ok {
		if at := strings.Index(rest, "@"); at >= 0 {
			rest = rest[at+1:]
		}
		if idx := strings.Index(rest, "/"); idx >= 0 {
			return rest[idx+1:]
		}
		return ""
	}

	for _, scheme := range []string{"https://", "http://", "git://"} {
		if rest, ok := strings.CutPrefix(url, scheme); ok {
			if idx := strings.Index(rest, "/"); idx >= 0 {
				return rest[idx+1:]
			}
			return ""
		}
	}

	if at := strings.Index(url, "@"); at >= 0 {
		rest := url[at+1:]
		if colon := strings.Index(rest, ":"); colon >= 0 {
			return rest[colon+1:]
		}
	}

	return url
}

// Equivalent reports whether two remote URLs address the same
// repository over the same transport: `git@host:owner/repo[.git]`
// equals `ssh://git@host/owner/repo[.git]`, and a trailing .git never
// matters. An https URL is not equivalent to an ssh one — that is
// exactly the mismatch setup-ssh exists to fix.
func Equivalent(a, b string) bool {
	ca, cb := canonical(a), canonical(b)
	return ca != "" && ca == cb
}

func canonical(url string) string {
	host := Host(url)
	path := ownerRepoPath(url)
	if host == "" || path == "" {
		return ""
	}
	scheme := "https"
	switch {
	case IsSSH(url):
		scheme = "ssh"
	case strings.HasPrefix(url, "git://"):
		scheme = "git"
	case strings.HasPrefix(url, "http://"):
		scheme = "http"
	}
	return scheme + "://" + host + "/" + path
}
