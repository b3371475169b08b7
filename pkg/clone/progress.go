// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package clone

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Sink receives clone progress. Start is called once per task and
// returns the handle the worker reports through.
type Sink interface {
	Start(prefix, msg string) TaskProgress
}

// TaskProgress reports one task's lifecycle.
type TaskProgress interface {
	// Update replaces the task's live status line.
	Update(msg string)

	// FinishOK marks the task finished successfully.
	FinishOK(msg string)

	// FinishErr marks the task failed.
	FinishErr(msg string)
}

// NopSink discards all progress. Used in tests and JSON mode.
type NopSink struct{}

func (NopSink) Start(string, string) TaskProgress { return nopTask{} }

type nopTask struct{}

func (nopTask) Update(string)    {}
func (nopTask) FinishOK(string)  {}
func (nopTask) FinishErr(string) {}

// ConsoleSink prints one line per task transition. Intermediate
// updates are suppressed unless verbose.
type ConsoleSink struct {
	Out     io.Writer
	Verbose bool

	mu sync.Mutex
}

func (s *ConsoleSink) Start(prefix, msg string) TaskProgress {
	if s.Verbose {
		s.println(fmt.Sprintf("%s %s", color.New(color.Faint).Sprint(prefix), msg))
	}
	return &consoleTask{sink: s, prefix: prefix}
}

func (s *ConsoleSink) println(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.Out, line)
}

type consoleTask struct {
	sink   *ConsoleSink
	prefix string
}

func (t *consoleTask) Update(msg string) {
	if t.sink.Verbose {
		t.sink.println(fmt.Sprintf("%s %s", color.New(color.Faint).Sprint(t.prefix), msg))
	}
}

func (t *consoleTask) FinishOK(msg string) {
	t.sink.println(fmt.Sprintf("%s %s", color.New(color.Faint).Sprint(t.prefix), color.GreenString(msg)))
}

func (t *consoleTask) FinishErr(msg string) {
	t.sink.println(fmt.Sprintf("%s %s", color.New(color.Faint).Sprint(t.prefix), color.RedString(msg)))
}
