// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package clone implements the recursive parallel clone engine: a
// thread-safe task queue with dynamic discovery through nested
// manifests, and a bounded worker pool that drains it.
package clone

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gizzahub/gzh-cli-metagit/pkg/manifest"
)

// Task is a single repository to clone. Identity is TargetPath.
type Task struct {
	// Name is the display name for progress output.
	Name string

	// URL is the clone source.
	URL string

	// TargetPath is the absolute destination directory.
	TargetPath string

	// DepthLevel counts manifest nesting levels below the seed.
	DepthLevel int
}

// Queue is a thread-safe LIFO work queue with completion and failure
// tracking and manifest-driven discovery.
type Queue struct {
	mu      sync.Mutex
	pending []Task

	completedMu sync.Mutex
	completed   map[string]bool

	failedMu sync.Mutex
	failed   map[string]bool

	discovered atomic.Int64
	done       atomic.Int64

	// gitDepth, when positive, is passed as --depth to every clone.
	gitDepth int

	// metaDepth caps manifest recursion. nil = unlimited, 0 = only the
	// first level.
	metaDepth *int
}

// NewQueue creates an empty queue. gitDepth <= 0 disables shallow
// cloning; metaDepth nil removes the recursion bound.
func NewQueue(gitDepth int, metaDepth *int) *Queue {
	return &Queue{
		completed: make(map[string]bool),
		failed:    make(map[string]bool),
		gitDepth:  gitDepth,
		metaDepth: metaDepth,
	}
}

// GitDepth returns the shallow-clone depth, 0 when full clones.
func (q *Queue) GitDepth() int { return q.gitDepth }

// Push adds a task unless its target path was already completed or is
// pending. Returns true iff the task was added.
func (q *Queue) Push(task Task) bool {
	q.completedMu.Lock()
	done := q.completed[task.TargetPath]
	q.completedMu.Unlock()
	if done {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.pending {
		if t.TargetPath == task.TargetPath {
			return false
		}
	}
	q.pending = append(q.pending, task)
	q.discovered.Add(1)
	return true
}

// PushFromManifest reads the manifest in baseDir (if any) and enqueues
// a task per project whose target does not yet exist on disk. Targets
// that already exist are not enqueued, but their trees are still
// descended for grandchildren. Recursion is bounded by the queue's
// meta depth. Returns the number of tasks added.
func (q *Queue) PushFromManifest(baseDir string, depthLevel int) (int, error) {
	if q.metaDepth != nil && depthLevel > *q.metaDepth {
		return 0, nil
	}

	path, format, ok := manifest.FindConfigIn(baseDir)
	if !ok {
		return 0, nil
	}
	ws, err := manifest.ParseAs(path, format)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, project := range ws.Projects {
		target := filepath.Join(baseDir, project.Path)

		if _, statErr := os.Stat(target); statErr == nil {
			// Already on disk: don't re-clone, but a nested manifest
			// may still declare grandchildren to discover.
			if _, _, hasNested := manifest.FindConfigIn(target); hasNested {
				n, err := q.PushFromManifest(target, depthLevel+1)
				if err != nil {
					return added, err
				}
				added += n
			}
			continue
		}

		if project.RepoURL == "" {
			continue
		}

		if q.Push(Task{
			Name:       project.Name,
			URL:        project.RepoURL,
			TargetPath: target,
			DepthLevel: depthLevel,
		}) {
			added++
		}
	}

	return added, nil
}

// TakeOne pops the most recently pushed task. Non-blocking; the second
// return is false when nothing is pending.
func (q *Queue) TakeOne() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return Task{}, false
	}
	task := q.pending[len(q.pending)-1]
	q.pending = q.pending[:len(q.pending)-1]
	return task, true
}

// PendingEmpty reports whether no tasks are waiting.
func (q *Queue) PendingEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) == 0
}

// MarkCompleted records a finished task and descends into its tree to
// discover nested children. Returns the number of newly added tasks.
func (q *Queue) MarkCompleted(task Task) (int, error) {
	q.done.Add(1)

	q.completedMu.Lock()
	q.completed[task.TargetPath] = true
	q.completedMu.Unlock()

	return q.PushFromManifest(task.TargetPath, task.DepthLevel+1)
}

// MarkFailed records a failed task.
func (q *Queue) MarkFailed(task Task) {
	q.done.Add(1)

	q.failedMu.Lock()
	q.failed[task.TargetPath] = true
	q.failedMu.Unlock()
}

// Counts returns (done, discovered). done counts both completions and
// failures; discovered only ever grows.
func (q *Queue) Counts() (done, discovered int) {
	return int(q.done.Load()), int(q.discovered.Load())
}

// Failed returns the target paths that failed, for reporting.
func (q *Queue) Failed() []string {
	q.failedMu.Lock()
	defer q.failedMu.Unlock()
	out := make([]string, 0, len(q.failed))
	for p := range q.failed {
		out = append(out, p)
	}
	return out
}

// DrainAll removes and returns every pending task (dry-run preview).
func (q *Queue) DrainAll() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	tasks := q.pending
	q.pending = nil
	return tasks
}
