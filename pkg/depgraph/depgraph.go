// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package depgraph resolves the provides/depends_on relation declared
// in YAML manifests into transitive project sets.
package depgraph

import (
	"sort"

	"github.com/gizzahub/gzh-cli-metagit/pkg/manifest"
)

// Logger receives debug entries about ambiguous resolutions.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}

// Graph is a derived view over a manifest's projects: an index from
// provided symbol to the names of the projects providing it, plus each
// project's depends_on edges.
type Graph struct {
	providers map[string][]string // symbol -> provider project names
	dependsOn map[string][]string // project name -> required symbols
	logger    Logger
}

// Build indexes the given projects. Multiple projects may provide the
// same symbol; all are retained.
func Build(projects []manifest.Project) *Graph {
	g := &Graph{
		providers: make(map[string][]string),
		dependsOn: make(map[string][]string),
		logger:    noopLogger{},
	}
	for _, p := range projects {
		for _, sym := range p.Provides {
			g.providers[sym] = append(g.providers[sym], p.Name)
		}
		g.dependsOn[p.Name] = append([]string(nil), p.DependsOn...)
	}
	return g
}

// SetLogger installs a debug logger for ambiguity reporting.
func (g *Graph) SetLogger(l Logger) {
	if l != nil {
		g.logger = l
	}
}

// Providers returns the project names providing symbol, or nil.
func (g *Graph) Providers(symbol string) []string {
	return g.providers[symbol]
}

// AllDependencies returns the transitive closure of projects required
// by name, excluding name itself. Resolution is total: cycles are cut
// by a visited set, symbols with several providers resolve to the
// union (reported at debug level), and unprovided symbols are skipped.
func (g *Graph) AllDependencies(name string) []string {
	visited := map[string]bool{name: true}
	var result []string

	queue := []string{name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, sym := range g.dependsOn[current] {
			providers := g.providers[sym]
			if len(providers) == 0 {
				// No provider in this workspace; the consumer will
				// surface the gap at build time, not here.
				continue
			}
			if len(providers) > 1 {
				g.logger.Debug("symbol has multiple providers, including all",
					"symbol", sym, "providers", providers)
			}
			for _, p := range providers {
				if visited[p] {
					continue
				}
				visited[p] = true
				result = append(result, p)
				queue = append(queue, p)
			}
		}
	}

	sort.Strings(result)
	return result
}
