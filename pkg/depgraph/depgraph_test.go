// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package depgraph

import (
	"reflect"
	"testing"

	"github.com/gizzahub/gzh-cli-metagit/pkg/manifest"
)

func project(name string, provides, dependsOn []string) manifest.Project {
	return manifest.Project{Name: name, Path: name, Provides: provides, DependsOn: dependsOn}
}

func TestAllDependenciesLinearChain(t *testing.T) {
	g := Build([]manifest.Project{
		project("app", nil, []string{"libcore"}),
		project("lib", []string{"libcore"}, []string{"util-sym"}),
		project("util", []string{"util-sym"}, nil),
	})

	deps := g.AllDependencies("app")
	want := []string{"lib", "util"}
	if !reflect.DeepEqual(deps, want) {
		t.Errorf("got %v, want %v", deps, want)
	}
}

func TestAllDependenciesCycleTerminates(t *testing.T) {
	g := Build([]manifest.Project{
		project("a", []string{"sym-a"}, []string{"sym-b"}),
		project("b", []string{"sym-b"}, []string{"sym-a"}),
	})

	deps := g.AllDependencies("a")
	if !reflect.DeepEqual(deps, []string{"b"}) {
		t.Errorf("cycle resolution wrong: %v", deps)
	}

	// The start node never includes itself even when the cycle loops
	// back to it.
	deps = g.AllDependencies("b")
	if !reflect.DeepEqual(deps, []string{"a"}) {
		t.Errorf("reverse cycle resolution wrong: %v", deps)
	}
}

func TestAllDependenciesDiamond(t *testing.T) {
	g := Build([]manifest.Project{
		project("top", nil, []string{"left-sym", "right-sym"}),
		project("left", []string{"left-sym"}, []string{"base-sym"}),
		project("right", []string{"right-sym"}, []string{"base-sym"}),
		project("base", []string{"base-sym"}, nil),
	})

	deps := g.AllDependencies("top")
	want := []string{"base", "left", "right"}
	if !reflect.DeepEqual(deps, want) {
		t.Errorf("diamond resolution wrong: %v", deps)
	}
}

type recordingLogger struct {
	entries []string
}

func (l *recordingLogger) Debug(msg string, _ ...interface{}) {
	l.entries = append(l.entries, msg)
}

func TestMultiProviderResolvesToUnion(t *testing.T) {
	g := Build([]manifest.Project{
		project("consumer", nil, []string{"shared"}),
		project("impl-a", []string{"shared"}, nil),
		project("impl-b", []string{"shared"}, nil),
	})
	logger := &recordingLogger{}
	g.SetLogger(logger)

	deps := g.AllDependencies("consumer")
	want := []string{"impl-a", "impl-b"}
	if !reflect.DeepEqual(deps, want) {
		t.Errorf("multi-provider should include all providers: %v", deps)
	}
	if len(logger.entries) == 0 {
		t.Error("ambiguity should be reported at debug level")
	}
}

func TestUnprovidedSymbolSkippedSilently(t *testing.T) {
	g := Build([]manifest.Project{
		project("app", nil, []string{"no-such-symbol", "real"}),
		project("lib", []string{"real"}, nil),
	})

	deps := g.AllDependencies("app")
	if !reflect.DeepEqual(deps, []string{"lib"}) {
		t.Errorf("unprovided symbols must be skipped: %v", deps)
	}
}

func TestUnknownProjectIsTotal(t *testing.T) {
	g := Build(nil)
	if deps := g.AllDependencies("ghost"); len(deps) != 0 {
		t.Errorf("unknown project should resolve to empty set, got %v", deps)
	}
}

func TestProvidersIndex(t *testing.T) {
	g := Build([]manifest.Project{
		project("x", []string{"sym"}, nil),
		project("y", []string{"sym"}, nil),
	})
	if got := g.Providers("sym"); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("providers index wrong: %v", got)
	}
	if got := g.Providers("none"); got != nil {
		t.Errorf("missing symbol should yield nil, got %v", got)
	}
}
