// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package workspace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Manifest(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "src/lib.go", "package lib\n")
	writeFixture(t, root, "src/lib_test.go", "package lib\n")
	writeFixture(t, root, "src/README.md", "# lib\n")
	writeFixture(t, root, "shared/common.go", "package lib\n")
	manifest := writeFixture(t, root, "go-finder.yaml", `modules:
  - name: lib
    import_path: example.com/lib
    dir: src
    files: ["*.go", "../shared/common.go"]
  - name: lib-test
    import_path: example.com/lib
    dir: src
    test: true
`)

	ws, err := Load(manifest)
	require.NoError(t, err)
	assert.Equal(t, root, ws.Root())

	mods := ws.Modules()
	require.Len(t, mods, 2)
	assert.Equal(t, "lib", mods[0].Name)
	assert.Equal(t, "example.com/lib", mods[0].ImportPath)
	assert.Equal(t, filepath.Join(root, "src"), mods[0].Dir)
	assert.True(t, mods[1].Test)

	// The explicit list pulls in a file from another directory.
	assert.Len(t, ws.ModuleArtifacts("lib"), 3)
	// The default pattern takes every .go file of the directory.
	assert.Len(t, ws.ModuleArtifacts("lib-test"), 2)
	assert.Len(t, ws.ArtifactsForPath(filepath.Join(root, "src/lib.go")), 2)
	assert.Len(t, ws.ArtifactsForPath(filepath.Join(root, "shared/common.go")), 1)
}

func TestLoad_ManifestRoot(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "code/a/a.go", "package a\n")
	manifest := writeFixture(t, root, "config/ws.yaml", `root: ../code
modules:
  - name: a
    dir: a
`)

	ws, err := Load(manifest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "code"), ws.Root())
	assert.Len(t, ws.ModuleArtifacts("a"), 1)
}

func TestLoad_ManifestErrors(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"no modules", "modules: []\n"},
		{"bad yaml", "modules: [\n"},
		{"duplicate module", "modules:\n  - name: a\n  - name: a\n"},
		{"unnamed module", "modules:\n  - dir: .\n"},
		{"bad glob", "modules:\n  - name: a\n    files: [\"[\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manifest := writeFixture(t, root, tt.name+".yaml", tt.content)
			_, err := Load(manifest)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(root, "missing.yaml"))
	assert.Error(t, err)
}
