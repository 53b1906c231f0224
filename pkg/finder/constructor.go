// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package finder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/petar-djukic/go-finder/internal/analysis"
	"github.com/petar-djukic/go-finder/internal/findusages"
	"github.com/petar-djukic/go-finder/internal/lexer"
	"github.com/petar-djukic/go-finder/internal/workspace"
	"github.com/petar-djukic/go-finder/pkg/types"
)

// New validates the config, loads the workspace, and returns a ready-to-use
// Finder. Modules are type-checked lazily on the first query that needs
// them.
func New(ctx context.Context, cfg Config) (Finder, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	applyDefaults(&cfg)

	ws, err := loadWorkspace(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Info("workspace loaded", "root", ws.Root(), "modules", len(ws.Modules()), "artifacts", ws.Len())

	engine := analysis.New(ws, analysis.Options{
		Concurrency: cfg.Concurrency,
		Logger:      cfg.Logger,
	})
	core := findusages.New(findusages.Deps{
		Workspace:   ws,
		Tokenizer:   lexer.New(),
		Analyzer:    engine,
		Snapshots:   engine,
		Concurrency: cfg.Concurrency,
		Logger:      cfg.Logger,
	})

	return &finderAdapter{ws: ws, core: core}, nil
}

func loadWorkspace(ctx context.Context, cfg Config) (*workspace.Workspace, error) {
	if cfg.Manifest != "" {
		ws, err := workspace.Load(cfg.Manifest)
		if err != nil {
			return nil, fmt.Errorf("loading manifest: %w", err)
		}
		return ws, nil
	}

	if cfg.Discovery == DiscoverPackages {
		ws, err := workspace.DiscoverPackages(ctx, cfg.WorkDir, cfg.Patterns, cfg.IncludeTests)
		if err != nil {
			return nil, fmt.Errorf("loading packages: %w", err)
		}
		return ws, nil
	}

	ws, scanErrs, err := workspace.Discover(ctx, cfg.WorkDir, workspace.ScanOptions{
		Concurrency:  cfg.Concurrency,
		IncludeTests: cfg.IncludeTests,
	})
	if err != nil {
		return nil, fmt.Errorf("scanning workspace: %w", err)
	}
	for _, se := range scanErrs {
		cfg.Logger.Warn("skipped unreadable file", "path", se.FilePath, "error", se.Err)
	}
	return ws, nil
}

// finderAdapter adapts internal/findusages.Finder to the public Finder
// interface, resolving host paths to workspace artifacts.
type finderAdapter struct {
	ws   *workspace.Workspace
	core *findusages.Finder
}

func (a *finderAdapter) FindReferences(ctx context.Context, file string, offset int, r types.Reporter) (*Result, error) {
	ref, err := a.artifact(file)
	if err != nil {
		return nil, err
	}
	ir, err := a.core.FindReferences(ctx, ref, offset, r)
	return toResult(ir), err
}

func (a *finderAdapter) FindImplementations(ctx context.Context, file string, offset int, r types.Reporter) (*Result, error) {
	ref, err := a.artifact(file)
	if err != nil {
		return nil, err
	}
	ir, err := a.core.FindImplementations(ctx, ref, offset, r)
	return toResult(ir), err
}

func (a *finderAdapter) Offset(ctx context.Context, file string, line, column int) (int, error) {
	ref, err := a.artifact(file)
	if err != nil {
		return 0, err
	}
	text, err := a.ws.Text(ctx, ref)
	if err != nil {
		return 0, err
	}
	return LineColumnOffset(text, line, column)
}

func (a *finderAdapter) SetOverlay(file, text string) { a.ws.SetOverlay(file, text) }

func (a *finderAdapter) ClearOverlay(file string) { a.ws.ClearOverlay(file) }

func (a *finderAdapter) Root() string { return a.ws.Root() }

func (a *finderAdapter) ReadText(file string) (string, bool) {
	ref, err := a.ws.PrimaryArtifact(file)
	if err != nil {
		return "", false
	}
	text, err := a.ws.Text(context.Background(), ref)
	if err != nil {
		return "", false
	}
	return text, true
}

func (a *finderAdapter) artifact(file string) (types.ArtifactRef, error) {
	ref, err := a.ws.PrimaryArtifact(file)
	if errors.Is(err, workspace.ErrNoArtifact) {
		return types.ArtifactRef{}, fmt.Errorf("%w: %s", ErrNotInWorkspace, file)
	}
	return ref, err
}

func toResult(ir *findusages.Result) *Result {
	if ir == nil {
		return &Result{}
	}
	return &Result{
		Outcome:     ir.Outcome.String(),
		Symbol:      ir.Symbol,
		Definitions: ir.Definitions,
		References:  ir.Stream.Reported,
		Faults:      ir.Stream.Faults,
		Skipped:     ir.Stream.Skipped,
	}
}

// LineColumnOffset converts a 1-based line and 1-based byte column into a
// byte offset of text. A column past the end of the line is clamped to it.
func LineColumnOffset(text string, line, column int) (int, error) {
	if line < 1 || column < 1 {
		return 0, fmt.Errorf("line and column are 1-based, got %d:%d", line, column)
	}
	offset := 0
	for i := 1; i < line; i++ {
		nl := strings.IndexByte(text[offset:], '\n')
		if nl < 0 {
			return 0, fmt.Errorf("line %d is past the end of the file", line)
		}
		offset += nl + 1
	}
	lineLen := strings.IndexByte(text[offset:], '\n')
	if lineLen < 0 {
		lineLen = len(text) - offset
	}
	return offset + min(column-1, lineLen), nil
}

// validateConfig checks that required fields are present.
func validateConfig(cfg Config) error {
	if cfg.Manifest != "" {
		if _, err := os.Stat(cfg.Manifest); err != nil {
			return fmt.Errorf("Manifest %q is not readable", cfg.Manifest)
		}
		return nil
	}
	if cfg.WorkDir == "" {
		return fmt.Errorf("WorkDir is required")
	}
	if info, err := os.Stat(cfg.WorkDir); err != nil || !info.IsDir() {
		return fmt.Errorf("WorkDir %q does not exist or is not a directory", cfg.WorkDir)
	}
	switch cfg.Discovery {
	case "", DiscoverDirs, DiscoverPackages:
	default:
		return fmt.Errorf("unknown Discovery %q", cfg.Discovery)
	}
	if cfg.Concurrency < 0 {
		return fmt.Errorf("Concurrency must not be negative")
	}
	return nil
}

// applyDefaults fills in zero-value fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Discovery == "" {
		cfg.Discovery = DiscoverDirs
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{"./..."}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}
