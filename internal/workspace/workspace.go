// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package workspace models a multi-module source workspace: which files
// are compiled into which modules, and what their current text is.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/petar-djukic/go-finder/pkg/types"
)

// ErrUnknownModule is returned when a lookup names a module that was never
// registered.
var ErrUnknownModule = errors.New("unknown module")

// ErrNoArtifact is returned when a path is not part of any module.
var ErrNoArtifact = errors.New("file is not part of any module")

// Module is a compilation unit of the workspace. For Go workspaces a module
// is one package variant: a package, its in-package test variant, or its
// external test package.
type Module struct {
	Name       string // Unique name within the workspace
	ImportPath string // Import path other modules use to reach this one
	Dir        string // Absolute directory of the package
	Test       bool   // Test variants are never resolved as imports
}

// Workspace holds every artifact of every module in an arena, indexed by
// file path and by module. One path may belong to several modules.
//
// The module graph is fixed once loading completes; only overlays change
// afterwards, so lookups need no locking.
type Workspace struct {
	root      string
	modules   []Module
	byName    map[string]int
	artifacts []types.ArtifactRef
	byPath    map[string][]int
	byModule  map[string][]int

	mu       sync.RWMutex
	overlays map[string]string
}

// New creates an empty workspace rooted at root.
func New(root string) *Workspace {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = filepath.Clean(root)
	}
	return &Workspace{
		root:     abs,
		byName:   make(map[string]int),
		byPath:   make(map[string][]int),
		byModule: make(map[string][]int),
		overlays: make(map[string]string),
	}
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// AddModule registers a module and its files. Relative file paths are
// resolved against the workspace root. A file listed twice for the same
// module is registered once.
func (w *Workspace) AddModule(m Module, files []string) error {
	if m.Name == "" {
		return fmt.Errorf("module name is required")
	}
	if _, dup := w.byName[m.Name]; dup {
		return fmt.Errorf("module %q registered twice", m.Name)
	}
	if m.Dir != "" {
		m.Dir = w.abs(m.Dir)
	}

	w.byName[m.Name] = len(w.modules)
	w.modules = append(w.modules, m)

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		path := w.abs(f)
		if seen[path] {
			continue
		}
		seen[path] = true

		idx := len(w.artifacts)
		w.artifacts = append(w.artifacts, types.ArtifactRef{ID: idx, Path: path, Module: m.Name})
		w.byPath[path] = append(w.byPath[path], idx)
		w.byModule[m.Name] = append(w.byModule[m.Name], idx)
	}
	return nil
}

// Modules returns every registered module in registration order.
func (w *Workspace) Modules() []Module {
	result := make([]Module, len(w.modules))
	copy(result, w.modules)
	return result
}

// Module returns the module with the given name.
func (w *Workspace) Module(name string) (Module, error) {
	idx, ok := w.byName[name]
	if !ok {
		return Module{}, fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}
	return w.modules[idx], nil
}

// ModuleArtifacts returns the artifacts compiled into the named module.
func (w *Workspace) ModuleArtifacts(name string) []types.ArtifactRef {
	return w.lookup(w.byModule[name])
}

// ArtifactsForPath returns every module-scoped artifact backed by path.
// The result follows module registration order.
func (w *Workspace) ArtifactsForPath(path string) []types.ArtifactRef {
	return w.lookup(w.byPath[w.abs(path)])
}

// ArtifactFor returns the artifact for path within the named module.
func (w *Workspace) ArtifactFor(path, module string) (types.ArtifactRef, bool) {
	for _, a := range w.ArtifactsForPath(path) {
		if a.Module == module {
			return a, true
		}
	}
	return types.ArtifactRef{}, false
}

// PrimaryArtifact picks the artifact to analyse for a file opened without
// module context: the first non-test module that contains it, else the
// first module at all.
func (w *Workspace) PrimaryArtifact(path string) (types.ArtifactRef, error) {
	arts := w.ArtifactsForPath(path)
	if len(arts) == 0 {
		return types.ArtifactRef{}, fmt.Errorf("%w: %s", ErrNoArtifact, path)
	}
	for _, a := range arts {
		if !w.modules[w.byName[a.Module]].Test {
			return a, nil
		}
	}
	return arts[0], nil
}

// Paths returns every distinct file path in the workspace, sorted.
func (w *Workspace) Paths() []string {
	paths := make([]string, 0, len(w.byPath))
	for p := range w.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of artifacts.
func (w *Workspace) Len() int {
	return len(w.artifacts)
}

// Text returns the current text of an artifact: the overlay if one is set,
// otherwise the file contents on disk.
func (w *Workspace) Text(ctx context.Context, ref types.ArtifactRef) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	w.mu.RLock()
	text, ok := w.overlays[ref.Path]
	w.mu.RUnlock()
	if ok {
		return text, nil
	}

	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", ref.Path, err)
	}
	return string(data), nil
}

// SetOverlay replaces the text of path with an unsaved buffer.
func (w *Workspace) SetOverlay(path, text string) {
	w.mu.Lock()
	w.overlays[w.abs(path)] = text
	w.mu.Unlock()
}

// ClearOverlay drops the unsaved buffer for path.
func (w *Workspace) ClearOverlay(path string) {
	w.mu.Lock()
	delete(w.overlays, w.abs(path))
	w.mu.Unlock()
}

func (w *Workspace) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(w.root, path)
}

func (w *Workspace) lookup(indices []int) []types.ArtifactRef {
	if len(indices) == 0 {
		return nil
	}
	result := make([]types.ArtifactRef, len(indices))
	for i, idx := range indices {
		result[i] = w.artifacts[idx]
	}
	return result
}
