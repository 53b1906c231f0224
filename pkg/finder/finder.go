// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package finder is the public interface of go-finder: find every usage of
// the Go symbol under a cursor across a multi-module workspace.
package finder

import (
	"context"
	"errors"
	"log/slog"

	"github.com/petar-djukic/go-finder/pkg/types"
)

// Error types for the Finder API.
var (
	ErrInvalidConfig  = errors.New("invalid config")
	ErrNotInWorkspace = errors.New("file is not part of the workspace")
)

// Discovery selects how the workspace's modules are found.
type Discovery string

const (
	DiscoverDirs     Discovery = "dirs"     // One module per package directory, scanned directly
	DiscoverPackages Discovery = "packages" // Ask the go tool (go list)
)

// Config configures a Finder instance.
type Config struct {
	WorkDir      string       // Workspace root (required unless Manifest is set)
	Manifest     string       // YAML manifest declaring modules; overrides discovery
	Discovery    Discovery    // Default DiscoverDirs
	Patterns     []string     // Package patterns for DiscoverPackages (default ./...)
	IncludeTests bool         // Register test variants as modules
	Concurrency  int          // Fan-out limit (default runtime.NumCPU())
	Logger       *slog.Logger // Optional
}

// Result holds the outcome of one find-usages invocation.
type Result struct {
	Outcome     string          `json:"outcome"`
	Symbol      types.SymbolUse `json:"symbol"`
	Definitions int             `json:"definitions"`
	References  int             `json:"references"`
	Faults      int             `json:"faults"`
	Skipped     int             `json:"skipped"`
}

// Finder answers find-usages queries over one workspace.
type Finder interface {
	// FindReferences reports the definitions of the symbol at the byte
	// offset of file, then every reference to it.
	FindReferences(ctx context.Context, file string, offset int, r types.Reporter) (*Result, error)
	// FindImplementations reports only the definitions.
	FindImplementations(ctx context.Context, file string, offset int, r types.Reporter) (*Result, error)
	// Offset converts a 1-based line and 1-based byte column of file into a
	// byte offset of its current text.
	Offset(ctx context.Context, file string, line, column int) (int, error)
	// SetOverlay replaces a file's text with an unsaved buffer.
	SetOverlay(file, text string)
	// ClearOverlay drops the unsaved buffer of a file.
	ClearOverlay(file string)
	// Root returns the absolute workspace root.
	Root() string
	// ReadText returns the current text of file, overlay included.
	ReadText(file string) (string, bool)
}
