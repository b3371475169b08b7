// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package gitcmd

import (
	"fmt"
	"regexp"
	"strings"
)

// Patterns that could enable command injection when an argument later
// reaches a shell (hook scripts, emitted plans).
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile("[;&|<>`]"), // separators, redirection, backticks
	regexp.MustCompile(`\$\(`),     // command substitution
	regexp.MustCompile(`\x00`),     // null bytes
	regexp.MustCompile(`\r|\n`),    // newlines break downstream parsing
}

// Long flags this coordinator is allowed to pass to git. Anything not
// listed (and not a single-letter short flag) is rejected.
var safeGitFlags = map[string]bool{
	"--quiet":             true,
	"--verbose":           true,
	"--porcelain":         true,
	"--short":             true,
	"--branch":            true,
	"--depth":             true,
	"--detach":            true,
	"--force":             true,
	"--cached":            true,
	"--staged":            true,
	"--name-only":         true,
	"--stat":              true,
	"--numstat":           true,
	"--shortstat":         true,
	"--count":             true,
	"--left-right":        true,
	"--abbrev-ref":        true,
	"--git-common-dir":    true,
	"--path-format":       true,
	"--show-current":      true,
	"--show-toplevel":     true,
	"--verify":            true,
	"--message":           true,
	"--track":             true,
	"--prune":             true,
	"--tags":              true,
	"--no-tags":           true,
	"--dry-run":           true,
	"--format":            true,
	"--pretty":            true,
	"--include-untracked": true,
}

// SanitizeArgs validates git command arguments, rejecting anything
// that carries shell metacharacters or unvetted long flags.
func SanitizeArgs(args []string) ([]string, error) {
	if len(args) == 0 {
		return args, nil
	}

	sanitized := make([]string, 0, len(args))
	for i, arg := range args {
		// --format=/--pretty= values legitimately carry %-placeholders
		// and pipes; git parses them itself.
		isFormatValue := strings.HasPrefix(arg, "--format=") || strings.HasPrefix(arg, "--pretty=")

		if !isFormatValue {
			for _, pattern := range dangerousPatterns {
				if pattern.MatchString(arg) {
					return nil, fmt.Errorf("argument %d contains dangerous pattern: %s", i, arg)
				}
			}
		}

		if strings.HasPrefix(arg, "-") {
			if err := validateFlag(arg); err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
		}

		sanitized = append(sanitized, strings.TrimSpace(arg))
	}

	return sanitized, nil
}

func validateFlag(flag string) error {
	// '--' separates flags from paths.
	if flag == "--" {
		return nil
	}

	flagName := flag
	if idx := strings.Index(flag, "="); idx != -1 {
		flagName = flag[:idx]
	}

	if !safeGitFlags[flagName] {
		// Single-letter short flags (-b, -m, -C, ...) pass through.
		if len(flagName) == 2 && flagName[0] == '-' && flagName[1] != '-' {
			return nil
		}
		return fmt.Errorf("unknown or unsafe git flag: %s", flagName)
	}

	return nil
}

// SanitizeURL validates a repository URL before it is handed to git clone.
func SanitizeURL(url string) error {
	if url == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(url) {
			return fmt.Errorf("URL contains dangerous pattern")
		}
	}

	validSchemes := []string{
		"https://", "http://", "ssh://", "git://", "git@", "file://", "/", "./",
	}
	for _, scheme := range validSchemes {
		if strings.HasPrefix(url, scheme) {
			return nil
		}
	}
	return fmt.Errorf("unsupported URL scheme: %s", url)
}
