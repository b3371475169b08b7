// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package gitcmd wraps the git CLI for the meta-repo coordinator.
// All git interaction in this module shells out through an Executor,
// which captures output, enforces timeouts, and applies the
// non-interactive environment (no pager, no credential prompts).
package gitcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Executor runs git commands and captures their output.
type Executor struct {
	// gitBinary is the git executable; defaults to "git" on PATH.
	gitBinary string

	// env holds extra environment variables appended to the inherited
	// environment. Populated with EnvSlice() by default.
	env []string

	// timeout bounds each command; zero disables the bound.
	timeout time.Duration
}

// Result is the outcome of one git invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	Error    error
}

// Option configures an Executor.
type Option func(*Executor)

// WithGitBinary sets a custom git binary path.
func WithGitBinary(path string) Option {
	return func(e *Executor) { e.gitBinary = path }
}

// WithEnv replaces the extra environment variables.
func WithEnv(env []string) Option {
	return func(e *Executor) { e.env = env }
}

// WithTimeout sets the per-command timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Executor) { e.timeout = timeout }
}

// NewExecutor creates an Executor with the non-interactive git
// environment and a 5 minute default timeout.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		gitBinary: "git",
		env:       EnvSlice(),
		timeout:   5 * time.Minute,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes a git command in dir. Arguments are sanitized first.
// A non-zero exit is not an error at this level; inspect the Result.
func (e *Executor) Run(ctx context.Context, dir string, args ...string) (*Result, error) {
	start := time.Now()

	sanitized, err := SanitizeArgs(args)
	if err != nil {
		return &Result{Error: err, ExitCode: -1}, fmt.Errorf("argument sanitization failed: %w", err)
	}

	cmdCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, e.gitBinary, sanitized...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), e.env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	execErr := cmd.Run()

	exitCode := 0
	if execErr != nil {
		var exitError *exec.ExitError
		if errors.As(execErr, &exitError) {
			exitCode = exitError.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Duration: time.Since(start),
		Error:    execErr,
	}, nil
}

// RunQuiet executes a git command and reports only success or failure.
func (e *Executor) RunQuiet(ctx context.Context, dir string, args ...string) (bool, error) {
	result, err := e.Run(ctx, dir, args...)
	if err != nil {
		return false, err
	}
	return result.ExitCode == 0, nil
}

// RunOutput executes a git command and returns trimmed stdout.
// A non-zero exit becomes a *GitError.
func (e *Executor) RunOutput(ctx context.Context, dir string, args ...string) (string, error) {
	result, err := e.Run(ctx, dir, args...)
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		return "", &GitError{
			Command:  "git " + strings.Join(args, " "),
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return strings.TrimSpace(result.Stdout), nil
}

// RunLines executes a git command and returns stdout as non-empty lines.
func (e *Executor) RunLines(ctx context.Context, dir string, args ...string) ([]string, error) {
	output, err := e.RunOutput(ctx, dir, args...)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return []string{}, nil
	}
	lines := strings.Split(output, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			filtered = append(filtered, line)
		}
	}
	return filtered, nil
}

// IsGitRepository reports whether dir is itself a repository root
// (contains .git), not merely inside one.
func (e *Executor) IsGitRepository(_ context.Context, dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// GitError represents a failed git invocation.
type GitError struct {
	Command  string
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *GitError) Error() string {
	msg := fmt.Sprintf("git command failed: %s (exit code %d)", e.Command, e.ExitCode)
	if e.Stderr != "" {
		msg += "\n" + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func (e *GitError) Unwrap() error { return e.Cause }

// Is reports whether target is a *GitError, so callers can match the
// class with errors.Is.
func (e *GitError) Is(target error) bool {
	_, ok := target.(*GitError)
	return ok
}
