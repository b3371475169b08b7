// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package main is the entry point for the gz-meta CLI, a coordinator
// for workspaces built from a meta repository and its child repos.
package main

import (
	"os"
	"strings"

	gzhclimetagit "github.com/gizzahub/gzh-cli-metagit"
	"github.com/gizzahub/gzh-cli-metagit/cmd/gz-meta/cmd"
)

// version is set during build time via ldflags; defaults to the
// library version.
var version = ""

func main() {
	if version == "" {
		version = gzhclimetagit.ShortVersion()
	}
	// Plugin-protocol invocations bypass cobra: stdout must carry
	// exactly one JSON response.
	if len(os.Args) > 1 && strings.HasPrefix(os.Args[1], "--meta-plugin-") {
		os.Exit(cmd.RunPlugin(os.Args[1], version))
	}
	cmd.Execute(version)
}
