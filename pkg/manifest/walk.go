// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package manifest

import (
	"path/filepath"
	"sort"
)

// WalkTree follows nested manifests starting at root and returns the
// flat, sorted list of project paths relative to root. Duplicate paths
// are collapsed. maxDepth bounds recursion into nested manifests:
// 0 means only root's own projects, nil means unlimited.
func WalkTree(root string, maxDepth *int) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	var walk func(dir, rel string, depth int) error
	walk = func(dir, rel string, depth int) error {
		path, format, ok := FindConfigIn(dir)
		if !ok {
			return nil
		}
		ws, err := ParseAs(path, format)
		if err != nil {
			return err
		}
		for _, p := range ws.Projects {
			childRel := p.Path
			if rel != "" {
				childRel = filepath.ToSlash(filepath.Join(rel, p.Path))
			}
			if !seen[childRel] {
				seen[childRel] = true
				out = append(out, childRel)
			}
			if maxDepth != nil && depth+1 > *maxDepth {
				continue
			}
			if err := walk(filepath.Join(dir, p.Path), childRel, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, "", 0); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
