// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package clone

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gizzahub/gzh-cli-metagit/internal/testutil"
)

func task(name string) Task {
	return Task{Name: name, URL: "url-" + name, TargetPath: "/tmp/clone-test/" + name}
}

func TestPushRejectsDuplicates(t *testing.T) {
	q := NewQueue(0, nil)

	if !q.Push(task("a")) {
		t.Fatal("first push must succeed")
	}
	if q.Push(task("a")) {
		t.Error("duplicate pending push must be rejected")
	}

	popped, ok := q.TakeOne()
	if !ok || popped.Name != "a" {
		t.Fatalf("TakeOne failed: %v %v", popped, ok)
	}
	if _, err := q.MarkCompleted(popped); err != nil {
		t.Fatal(err)
	}
	if q.Push(task("a")) {
		t.Error("push of completed path must be rejected")
	}
}

func TestCountsConservation(t *testing.T) {
	q := NewQueue(0, nil)
	q.Push(task("a"))
	q.Push(task("b"))
	q.Push(task("c"))

	done, discovered := q.Counts()
	if done != 0 || discovered != 3 {
		t.Fatalf("counts = (%d, %d), want (0, 3)", done, discovered)
	}

	a, _ := q.TakeOne()
	b, _ := q.TakeOne()
	q.MarkCompleted(a)
	q.MarkFailed(b)

	done, discovered = q.Counts()
	if done != 2 {
		t.Errorf("done = %d, want 2 (completed + failed)", done)
	}
	if discovered < done {
		t.Errorf("discovered (%d) must never lag done (%d)", discovered, done)
	}
	if len(q.Failed()) != 1 {
		t.Errorf("failed set = %v", q.Failed())
	}
}

func TestTakeOneIsLIFO(t *testing.T) {
	q := NewQueue(0, nil)
	q.Push(task("first"))
	q.Push(task("second"))

	got, _ := q.TakeOne()
	if got.Name != "second" {
		t.Errorf("expected LIFO pop, got %q", got.Name)
	}
}

func TestDrainAllEmptiesQueue(t *testing.T) {
	q := NewQueue(0, nil)
	q.Push(task("a"))
	q.Push(task("b"))

	drained := q.DrainAll()
	if len(drained) != 2 {
		t.Fatalf("drained %d tasks, want 2", len(drained))
	}
	if !q.PendingEmpty() {
		t.Error("queue must be empty after drain")
	}
}

func TestPushFromManifestSkipsExistingButRecurses(t *testing.T) {
	// Workspace layout: manifest declares a and b; b already exists on
	// disk and contains its own manifest declaring c (absent).
	root := t.TempDir()
	testutil.WriteJSONManifest(t, root, map[string]string{
		"a": "url-a",
		"b": "url-b",
	})
	bDir := filepath.Join(root, "b")
	if err := os.MkdirAll(bDir, 0o755); err != nil {
		t.Fatal(err)
	}
	testutil.WriteJSONManifest(t, bDir, map[string]string{"c": "url-c"})

	q := NewQueue(0, nil)
	added, err := q.PushFromManifest(root, 0)
	if err != nil {
		t.Fatal(err)
	}

	// a enqueued at level 0; b skipped (exists) but its child c
	// enqueued at level 1.
	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}
	var names []string
	depths := map[string]int{}
	for {
		tk, ok := q.TakeOne()
		if !ok {
			break
		}
		names = append(names, tk.Name)
		depths[tk.Name] = tk.DepthLevel
	}
	if len(names) != 2 {
		t.Fatalf("pending = %v", names)
	}
	if depths["a"] != 0 || depths["c"] != 1 {
		t.Errorf("depth levels wrong: %v", depths)
	}
}

func TestPushFromManifestHonorsDepthBudget(t *testing.T) {
	root := t.TempDir()
	testutil.WriteJSONManifest(t, root, map[string]string{"b": "url-b"})
	bDir := filepath.Join(root, "b")
	if err := os.MkdirAll(bDir, 0o755); err != nil {
		t.Fatal(err)
	}
	testutil.WriteJSONManifest(t, bDir, map[string]string{"c": "url-c"})

	zero := 0
	q := NewQueue(0, &zero)
	added, err := q.PushFromManifest(root, 0)
	if err != nil {
		t.Fatal(err)
	}

	// Budget 0: b already exists on disk, so it is skipped, and
	// recursion into it would be level 1 > budget.
	if added != 0 {
		t.Errorf("added = %d, want 0 under budget 0", added)
	}

	// Every enqueued task respects the budget.
	for {
		tk, ok := q.TakeOne()
		if !ok {
			break
		}
		if tk.DepthLevel > zero {
			t.Errorf("task %s at depth %d exceeds budget %d", tk.Name, tk.DepthLevel, zero)
		}
	}
}

func TestQueueConcurrentPushUniqueness(t *testing.T) {
	q := NewQueue(0, nil)

	const workers = 16
	const perWorker = 50
	var wg sync.WaitGroup
	accepted := make([]int, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				// All workers contend on the same task names.
				if q.Push(task(fmt.Sprintf("t%d", i))) {
					accepted[w]++
				}
			}
		}(w)
	}
	wg.Wait()

	total := 0
	for _, n := range accepted {
		total += n
	}
	if total != perWorker {
		t.Errorf("accepted %d pushes, want exactly %d unique", total, perWorker)
	}
	_, discovered := q.Counts()
	if discovered != perWorker {
		t.Errorf("discovered = %d, want %d", discovered, perWorker)
	}

	seen := map[string]bool{}
	for {
		tk, ok := q.TakeOne()
		if !ok {
			break
		}
		if seen[tk.TargetPath] {
			t.Errorf("path %s appears twice in pending", tk.TargetPath)
		}
		seen[tk.TargetPath] = true
	}
}
