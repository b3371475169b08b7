// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package commit

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// templateFileName is the editor scratch file under the temp dir.
const templateFileName = "META_COMMIT_EDITMSG"

// editor returns the user's editor command, preferring $EDITOR over
// $VISUAL, falling back to vi.
func editor() string {
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	if e := os.Getenv("VISUAL"); e != "" {
		return e
	}
	return "vi"
}

// EditorResult summarizes an editor-driven commit pass.
type EditorResult struct {
	Committed int
	Failed    int
}

// EditorCommit opens the user's editor on a multi-section template and
// commits each repo whose section was given a message, sequentially in
// section order.
func (c *Coordinator) EditorCommit(ctx context.Context, repos []StagedRepo) (*EditorResult, error) {
	templatePath := filepath.Join(os.TempDir(), templateFileName)
	if err := os.WriteFile(templatePath, []byte(BuildTemplate(repos)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write commit template: %w", err)
	}
	defer os.Remove(templatePath)

	cmd := exec.CommandContext(ctx, editor(), templatePath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("editor exited with error: %w", err)
	}

	content, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, err
	}
	commits := ParseTemplate(string(content))

	if len(commits) == 0 {
		fmt.Fprintln(c.out, "No commits to make (all messages were empty or deleted).")
		return &EditorResult{}, nil
	}

	result := &EditorResult{}
	for _, rm := range commits {
		path := rm.Repo
		for _, repo := range repos {
			if repo.Name == rm.Repo {
				path = repo.Path
				break
			}
		}

		fmt.Fprintf(c.out, "Committing %s...\n", rm.Repo)

		// Messages are arbitrary user text; pass them as argv directly
		// rather than through the sanitizing executor.
		gitCmd := exec.CommandContext(ctx, "git", "-C", path, "commit", "-m", rm.Message)
		gitCmd.Env = os.Environ()
		if output, err := gitCmd.CombinedOutput(); err != nil {
			fmt.Fprintf(c.out, "  %s Failed to commit: %s\n", color.RedString("x"), strings.TrimSpace(string(output)))
			result.Failed++
			continue
		}

		firstLine, _, _ := strings.Cut(rm.Message, "\n")
		fmt.Fprintf(c.out, "  %s %s\n", color.GreenString("+"), firstLine)
		result.Committed++
	}

	if result.Failed > 0 {
		fmt.Fprintf(c.out, "Committed %d repo(s), %d failed\n", result.Committed, result.Failed)
	} else {
		fmt.Fprintf(c.out, "Committed %d repo(s)\n", result.Committed)
	}
	return result, nil
}
