// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest declares the modules of a workspace explicitly. It is the way to
// describe layouts where one file is compiled into several modules.
type Manifest struct {
	Root    string           `yaml:"root"`
	Modules []ManifestModule `yaml:"modules"`
}

// ManifestModule is one module entry of a Manifest. Files are glob patterns
// relative to Dir; an empty list means every .go file directly in Dir.
type ManifestModule struct {
	Name       string   `yaml:"name"`
	ImportPath string   `yaml:"import_path"`
	Dir        string   `yaml:"dir"`
	Files      []string `yaml:"files"`
	Test       bool     `yaml:"test"`
}

// Load reads a YAML manifest and builds the workspace it describes. Paths
// in the manifest are relative to the manifest's directory.
func Load(manifestPath string) (*Workspace, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", manifestPath, err)
	}

	base, err := filepath.Abs(filepath.Dir(manifestPath))
	if err != nil {
		return nil, fmt.Errorf("resolving manifest directory: %w", err)
	}
	return FromManifest(base, m)
}

// FromManifest builds a workspace from an already decoded manifest. base
// anchors the relative paths.
func FromManifest(base string, m Manifest) (*Workspace, error) {
	root := base
	if m.Root != "" {
		root = joinAbs(base, m.Root)
	}

	ws := New(root)
	if len(m.Modules) == 0 {
		return nil, fmt.Errorf("manifest declares no modules")
	}

	for _, mm := range m.Modules {
		dir := joinAbs(root, mm.Dir)
		files, err := expandFiles(dir, mm.Files)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", mm.Name, err)
		}
		err = ws.AddModule(Module{
			Name:       mm.Name,
			ImportPath: mm.ImportPath,
			Dir:        dir,
			Test:       mm.Test,
		}, files)
		if err != nil {
			return nil, err
		}
	}
	return ws, nil
}

// expandFiles resolves glob patterns relative to dir into absolute paths.
func expandFiles(dir string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.go"}
	}

	var files []string
	for _, p := range patterns {
		matches, err := filepath.Glob(joinAbs(dir, p))
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		for _, match := range matches {
			if !strings.HasSuffix(match, ".go") {
				continue
			}
			files = append(files, match)
		}
	}
	sort.Strings(files)
	return files, nil
}

func joinAbs(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
