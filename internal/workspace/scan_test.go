// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package workspace

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTree creates a small module with a library package, in-package and
// external tests, an ignored directory, and a broken file.
func setupTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFixture(t, root, "go.mod", "module example.com/demo\n\ngo 1.22\n")
	writeFixture(t, root, ".gitignore", "generated/\n*_gen.go\n")
	writeFixture(t, root, "main.go", `package main

import "example.com/demo/lib"

func main() { lib.Hello() }
`)
	writeFixture(t, root, "lib/lib.go", `package lib

func Hello() string { return "hello" }
`)
	writeFixture(t, root, "lib/lib_internal_test.go", `package lib

import "testing"

func TestHello(t *testing.T) { Hello() }
`)
	writeFixture(t, root, "lib/lib_test.go", `package lib_test

import (
	"testing"

	"example.com/demo/lib"
)

func TestHelloExternal(t *testing.T) { lib.Hello() }
`)
	writeFixture(t, root, "lib/table_gen.go", "package lib\n")
	writeFixture(t, root, "generated/gen.go", "package generated\n")
	writeFixture(t, root, "vendor/dep/dep.go", "package dep\n")
	writeFixture(t, root, "broken/broken.go", "this is not go\n")
	return root
}

func moduleNames(ws *Workspace) []string {
	var names []string
	for _, m := range ws.Modules() {
		names = append(names, m.Name)
	}
	return names
}

func TestDiscover(t *testing.T) {
	root := setupTree(t)

	ws, scanErrs, err := Discover(context.Background(), root, ScanOptions{Concurrency: 2})
	require.NoError(t, err)

	require.Len(t, scanErrs, 1)
	assert.Equal(t, filepath.Join(root, "broken/broken.go"), scanErrs[0].FilePath)

	assert.Equal(t, []string{"example.com/demo", "example.com/demo/lib"}, moduleNames(ws))
	lib, err := ws.Module("example.com/demo/lib")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "lib"), lib.Dir)
	assert.False(t, lib.Test)

	// Ignored and test files are left out.
	arts := ws.ModuleArtifacts("example.com/demo/lib")
	require.Len(t, arts, 1)
	assert.Equal(t, filepath.Join(root, "lib/lib.go"), arts[0].Path)
	assert.Empty(t, ws.ArtifactsForPath(filepath.Join(root, "generated/gen.go")))
	assert.Empty(t, ws.ArtifactsForPath(filepath.Join(root, "vendor/dep/dep.go")))
}

func TestDiscover_IncludeTests(t *testing.T) {
	root := setupTree(t)

	ws, _, err := Discover(context.Background(), root, ScanOptions{IncludeTests: true})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"example.com/demo",
		"example.com/demo/lib",
		"example.com/demo/lib [example.com/demo/lib.test]",
		"example.com/demo/lib_test [example.com/demo/lib.test]",
	}, moduleNames(ws))

	// The library file is compiled into both the package and its in-package
	// test variant.
	libFile := filepath.Join(root, "lib/lib.go")
	arts := ws.ArtifactsForPath(libFile)
	require.Len(t, arts, 2)
	assert.Equal(t, "example.com/demo/lib", arts[0].Module)
	assert.Equal(t, "example.com/demo/lib [example.com/demo/lib.test]", arts[1].Module)

	ext, err := ws.Module("example.com/demo/lib_test [example.com/demo/lib.test]")
	require.NoError(t, err)
	assert.True(t, ext.Test)
	assert.Equal(t, "example.com/demo/lib_test", ext.ImportPath)
	assert.Len(t, ws.ModuleArtifacts(ext.Name), 1)

	primary, err := ws.PrimaryArtifact(libFile)
	require.NoError(t, err)
	assert.Equal(t, "example.com/demo/lib", primary.Module)
}

func TestDiscover_WithoutGoMod(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a/a.go", "package a\n")
	writeFixture(t, root, "b/c/c.go", "package c\n")

	ws, _, err := Discover(context.Background(), root, ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b/c"}, moduleNames(ws))
}

func TestDiscover_Errors(t *testing.T) {
	root := t.TempDir()
	file := writeFixture(t, root, "a.go", "package a\n")

	_, _, err := Discover(context.Background(), filepath.Join(root, "missing"), ScanOptions{})
	assert.Error(t, err)

	_, _, err = Discover(context.Background(), file, ScanOptions{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = Discover(ctx, root, ScanOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscoverPackages(t *testing.T) {
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go tool not available")
	}
	root := setupTree(t)
	// The go tool refuses to load a tree with an unparsable file.
	writeFixture(t, root, "broken/broken.go", "package broken\n")

	ws, err := DiscoverPackages(context.Background(), root, []string{"./..."}, true)
	require.NoError(t, err)

	names := moduleNames(ws)
	assert.Contains(t, names, "example.com/demo/lib")
	assert.Contains(t, names, "example.com/demo/lib [example.com/demo/lib.test]")
	assert.Contains(t, names, "example.com/demo/lib_test [example.com/demo/lib.test]")

	ext, err := ws.Module("example.com/demo/lib_test [example.com/demo/lib.test]")
	require.NoError(t, err)
	assert.True(t, ext.Test)
	assert.Len(t, ws.ArtifactsForPath(filepath.Join(root, "lib/lib.go")), 2)
}
