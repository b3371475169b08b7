// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package commit

import (
	"fmt"
	"strings"
)

// sectionMarker frames each repo header in the editor template.
const sectionMarker = "=========="

// RepoMessage pairs a repo with its parsed commit message.
type RepoMessage struct {
	Repo    string
	Message string
}

// BuildTemplate renders the multi-commit editor template: a comment
// preamble, then one section per staged repo with its file list as a
// comment and an empty editable region. Parsing the unmodified
// template yields no commits.
func BuildTemplate(repos []StagedRepo) string {
	var b strings.Builder
	b.WriteString("# Meta Multi-Commit\n")
	b.WriteString("# Each section represents one repository.\n")
	b.WriteString("# Edit the message below each header.\n")
	b.WriteString("# Delete a section entirely or leave message empty to skip that repo.\n")
	b.WriteString("#\n\n")

	for _, repo := range repos {
		fmt.Fprintf(&b, "%s %s %s\n", sectionMarker, repo.Name, sectionMarker)
		fmt.Fprintf(&b, "# %d file(s) staged: %s\n", len(repo.Files), strings.Join(repo.Files, ", "))
		b.WriteString("\n")
		b.WriteString("# Enter commit message above this line\n\n")
	}

	return b.String()
}

// ParseTemplate extracts (repo, message) pairs from an edited
// template. A section runs from its header to the next header; comment
// lines are dropped, surrounding whitespace is trimmed, and sections
// with empty bodies are skipped. Section order is preserved.
func ParseTemplate(content string) []RepoMessage {
	var commits []RepoMessage
	var currentRepo string
	haveRepo := false
	var body strings.Builder

	flush := func() {
		if !haveRepo {
			return
		}
		msg := strings.TrimSpace(body.String())
		if msg != "" {
			commits = append(commits, RepoMessage{Repo: currentRepo, Message: msg})
		}
		body.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, sectionMarker) && strings.HasSuffix(line, sectionMarker) && len(line) > 2*len(sectionMarker) {
			flush()
			currentRepo = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, sectionMarker), sectionMarker))
			haveRepo = true
			continue
		}
		if strings.HasPrefix(line, "#") || !haveRepo {
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	return commits
}
