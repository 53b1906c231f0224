// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
)

// DiscoverPackages asks the go tool for the packages matching patterns
// under root and registers one module per package variant. Unlike
// Discover it honors build tags and go.work files, at the cost of running
// `go list`.
//
// Files the go tool places outside root (generated test mains, cgo output)
// are not registered.
func DiscoverPackages(ctx context.Context, root string, patterns []string, tests bool) (*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving directory: %w", err)
	}
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	cfg := &packages.Config{
		Context: ctx,
		Dir:     absRoot,
		Mode:    packages.NeedName | packages.NeedFiles,
		Tests:   tests,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	ws := New(absRoot)
	for _, pkg := range pkgs {
		if strings.HasSuffix(pkg.ID, ".test") {
			continue // synthesized test main
		}

		var files []string
		for _, f := range pkg.GoFiles {
			if within(absRoot, f) {
				files = append(files, f)
			}
		}
		if len(files) == 0 {
			continue
		}

		m := Module{
			Name:       pkg.ID,
			ImportPath: pkg.PkgPath,
			Test:       pkg.ID != pkg.PkgPath,
			Dir:        filepath.Dir(files[0]),
		}
		if err := ws.AddModule(m, files); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
