// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package workspace

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"golang.org/x/mod/modfile"
)

// skipDirs contains directory names that Discover never descends into.
var skipDirs = map[string]bool{
	"vendor":       true,
	".git":         true,
	"testdata":     true,
	"node_modules": true,
}

// ScanOptions controls directory discovery.
type ScanOptions struct {
	Concurrency  int  // Parallel package-clause readers; <= 0 means runtime.NumCPU()
	IncludeTests bool // Register test variants as extra modules
}

// ScanError records a file whose package clause could not be read.
type ScanError struct {
	FilePath string
	Err      error
}

func (e ScanError) Error() string {
	return fmt.Sprintf("%s: %v", e.FilePath, e.Err)
}

// fileInfo is the package clause of one scanned file.
type fileInfo struct {
	path    string
	pkgName string
	test    bool
}

// Discover walks the tree rooted at root and registers one module per Go
// package directory. Files matched by .gitignore are skipped. With
// IncludeTests, a package with tests also gets its in-package test variant
// (sharing every non-test file with the package) and, if present, its
// external _test package, mirroring how the go tool compiles them.
//
// Files whose package clause cannot be parsed are returned in the error
// list but do not abort discovery.
func Discover(ctx context.Context, root string, opts ScanOptions) (*Workspace, []ScanError, error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving directory: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s is not a directory", absRoot)
	}

	ignore := loadIgnoreMatcher(absRoot)

	var paths []string
	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, relErr := filepath.Rel(absRoot, p)
		if relErr != nil {
			rel = p
		}
		if d.IsDir() {
			if p == absRoot {
				return nil
			}
			if skipDirs[d.Name()] || ignore.Match(splitPath(rel), true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".go") || ignore.Match(splitPath(rel), false) {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking directory: %w", err)
	}

	infos, scanErrs := readPackageClauses(ctx, paths, concurrency)
	if err := ctx.Err(); err != nil {
		return nil, scanErrs, err
	}

	ws := New(absRoot)
	if err := registerPackages(ws, readModulePath(absRoot), infos, opts.IncludeTests); err != nil {
		return nil, scanErrs, err
	}
	return ws, scanErrs, nil
}

// readPackageClauses parses only the package clause of every file using a
// bounded worker pool.
func readPackageClauses(ctx context.Context, paths []string, concurrency int) ([]fileInfo, []ScanError) {
	if len(paths) == 0 {
		return nil, nil
	}

	type parseResult struct {
		info fileInfo
		err  error
	}

	jobs := make(chan string, len(paths))
	results := make(chan parseResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fset := token.NewFileSet()
			for p := range jobs {
				if ctx.Err() != nil {
					results <- parseResult{info: fileInfo{path: p}, err: ctx.Err()}
					continue
				}
				f, err := parser.ParseFile(fset, p, nil, parser.PackageClauseOnly)
				if err != nil || f == nil || f.Name == nil {
					results <- parseResult{info: fileInfo{path: p}, err: err}
					continue
				}
				results <- parseResult{info: fileInfo{
					path:    p,
					pkgName: f.Name.Name,
					test:    strings.HasSuffix(p, "_test.go"),
				}}
			}
		}()
	}

	for _, p := range paths {
		jobs <- p
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var infos []fileInfo
	var errs []ScanError
	for pr := range results {
		if pr.err != nil {
			errs = append(errs, ScanError{FilePath: pr.info.path, Err: pr.err})
			continue
		}
		infos = append(infos, pr.info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].path < infos[j].path })
	return infos, errs
}

// registerPackages groups scanned files by directory and package name and
// adds the resulting modules to ws in a deterministic order.
func registerPackages(ws *Workspace, modulePath string, infos []fileInfo, includeTests bool) error {
	byDir := make(map[string][]fileInfo)
	for _, fi := range infos {
		dir := filepath.Dir(fi.path)
		byDir[dir] = append(byDir[dir], fi)
	}

	dirs := make([]string, 0, len(byDir))
	for d := range byDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		var lib, inTests, extTests []string
		for _, fi := range byDir[dir] {
			switch {
			case fi.test && strings.HasSuffix(fi.pkgName, "_test"):
				extTests = append(extTests, fi.path)
			case fi.test:
				inTests = append(inTests, fi.path)
			default:
				lib = append(lib, fi.path)
			}
		}

		importPath := importPathFor(ws.Root(), modulePath, dir)
		if len(lib) > 0 {
			if err := ws.AddModule(Module{Name: importPath, ImportPath: importPath, Dir: dir}, lib); err != nil {
				return err
			}
		}
		if !includeTests || len(inTests)+len(extTests) == 0 {
			continue
		}
		if len(inTests) > 0 {
			variant := append(append([]string{}, lib...), inTests...)
			err := ws.AddModule(Module{
				Name:       importPath + " [" + importPath + ".test]",
				ImportPath: importPath,
				Dir:        dir,
				Test:       true,
			}, variant)
			if err != nil {
				return err
			}
		}
		if len(extTests) > 0 {
			err := ws.AddModule(Module{
				Name:       importPath + "_test [" + importPath + ".test]",
				ImportPath: importPath + "_test",
				Dir:        dir,
				Test:       true,
			}, extTests)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// importPathFor derives the import path of dir from the go.mod module path,
// falling back to the slash-separated path relative to root.
func importPathFor(root, modulePath, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		rel = dir
	}
	rel = filepath.ToSlash(rel)
	if modulePath == "" {
		return rel
	}
	if rel == "." {
		return modulePath
	}
	return path.Join(modulePath, rel)
}

// readModulePath returns the module path declared by root/go.mod, or "".
func readModulePath(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}

// loadIgnoreMatcher reads every .gitignore below root. When none can be
// read the matcher matches nothing.
func loadIgnoreMatcher(root string) gitignore.Matcher {
	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		patterns = nil
	}
	return gitignore.NewMatcher(patterns)
}

func splitPath(rel string) []string {
	return strings.Split(filepath.ToSlash(rel), "/")
}
