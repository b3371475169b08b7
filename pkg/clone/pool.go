// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package clone

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gizzahub/gzh-cli-metagit/internal/gitcmd"
)

// DefaultParallelism bounds concurrent clones. Four keeps SSH servers
// from seeing a connection storm when many repos share a host.
const DefaultParallelism = 4

// workerPollInterval bounds the idle wait so workers periodically
// re-check the termination predicate even without a signal.
const workerPollInterval = 50 * time.Millisecond

// Pool drains a Queue with a fixed number of workers. New tasks
// discovered while cloning (nested manifests) are picked up until the
// queue is empty and every worker is idle.
type Pool struct {
	queue       *Queue
	parallelism int
	sink        Sink

	active atomic.Int64

	// signal wakes idle workers when a task completes (work may have
	// been discovered, or the pool may be done).
	signal chan struct{}
}

// NewPool creates a pool over queue. parallelism <= 0 selects
// DefaultParallelism; a nil sink discards progress.
func NewPool(queue *Queue, parallelism int, sink Sink) *Pool {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &Pool{
		queue:       queue,
		parallelism: parallelism,
		sink:        sink,
		signal:      make(chan struct{}, 1),
	}
}

// Run blocks until the queue is drained: no pending tasks and no
// active workers. Individual clone failures are recorded in the queue,
// never returned.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx)
		}()
	}
	wg.Wait()
}

func (p *Pool) worker(ctx context.Context) {
	for {
		// Become active before the pop. If the counter were raised
		// after TakeOne, another worker could observe an empty queue
		// and zero active workers while this one holds the last task,
		// and exit early.
		p.active.Add(1)

		task, ok := p.queue.TakeOne()
		if ok {
			p.cloneOne(ctx, task)
			p.active.Add(-1)
			p.wake()
			continue
		}

		p.active.Add(-1)

		if ctx.Err() != nil {
			return
		}
		if p.queue.PendingEmpty() && p.active.Load() == 0 {
			p.wake() // let siblings re-check and exit
			return
		}

		select {
		case <-p.signal:
		case <-time.After(workerPollInterval):
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) wake() {
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

// cloneOne runs a single task: skip-if-present, otherwise spawn
// git clone with stderr piped for progress (stdout is discarded), then
// record the outcome.
func (p *Pool) cloneOne(ctx context.Context, task Task) {
	done, discovered := p.queue.Counts()
	prefix := fmt.Sprintf("[%d/%d]", done+1, discovered)
	progress := p.sink.Start(prefix, fmt.Sprintf("Cloning %s", task.Name))

	// A non-empty target means someone already cloned it; treat as a
	// skipped success so nested discovery still happens.
	if dirExistsNonEmpty(task.TargetPath) {
		added, err := p.queue.MarkCompleted(task)
		switch {
		case err != nil:
			progress.FinishOK(fmt.Sprintf("Skipped %s (exists; manifest parse error: %v)", task.Name, err))
		case added > 0:
			progress.FinishOK(fmt.Sprintf("Skipped %s (exists, +%d nested)", task.Name, added))
		default:
			progress.FinishOK(fmt.Sprintf("Skipped %s (exists)", task.Name))
		}
		return
	}

	args := []string{"clone", task.URL, task.TargetPath}
	if depth := p.queue.GitDepth(); depth > 0 {
		args = append(args, "--depth", strconv.Itoa(depth))
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = append(os.Environ(), gitcmd.EnvSlice()...)
	cmd.Stdout = nil
	stderr, err := cmd.StderrPipe()
	if err == nil {
		err = cmd.Start()
	}
	if err != nil {
		p.queue.MarkFailed(task)
		progress.FinishErr(fmt.Sprintf("Failed to spawn git for %s: %v", task.Name, err))
		return
	}

	// git reports clone progress on stderr; forward it live.
	var forward sync.WaitGroup
	forward.Add(1)
	go func() {
		defer forward.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			progress.Update(fmt.Sprintf("%s: %s", task.Name, scanner.Text()))
		}
	}()

	forward.Wait()
	if err := cmd.Wait(); err != nil {
		p.queue.MarkFailed(task)
		progress.FinishErr(fmt.Sprintf("Failed to clone %s", task.Name))
		return
	}

	added, err := p.queue.MarkCompleted(task)
	switch {
	case err != nil:
		progress.FinishOK(fmt.Sprintf("Cloned %s (manifest parse error: %v)", task.Name, err))
	case added > 0:
		progress.FinishOK(fmt.Sprintf("Cloned %s (+%d nested)", task.Name, added))
	default:
		progress.FinishOK(fmt.Sprintf("Cloned %s", task.Name))
	}
}

func dirExistsNonEmpty(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}
