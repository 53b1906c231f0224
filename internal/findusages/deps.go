// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package findusages resolves the symbol under a cursor, classifies its
// declaration, and streams every occurrence of it across a multi-module
// workspace to a Reporter.
package findusages

import (
	"context"
	"errors"

	"github.com/petar-djukic/go-finder/pkg/types"
)

// Error kinds of a find-usages invocation.
var (
	ErrNoSymbolAtPosition = errors.New("no symbol at position")
	ErrUnresolvableSymbol = errors.New("symbol cannot be resolved")
	ErrDefinitionReport   = errors.New("reporting definition failed")
)

// Workspace is the document model: which artifacts back a path, and what
// an artifact's current text is.
type Workspace interface {
	ArtifactsForPath(path string) []types.ArtifactRef
	Text(ctx context.Context, ref types.ArtifactRef) (string, error)
}

// Tokenizer finds the identifier at a byte offset using greedy boundaries.
type Tokenizer interface {
	IdentifierAt(ctx context.Context, text string, pos int) (types.Token, bool)
}

// Analysis is the parse and check result of one artifact.
type Analysis interface {
	// SymbolUseAt resolves the identifier ending at (line, col). island is
	// the dotted identifier chain ending with that identifier.
	SymbolUseAt(line, col int, lineText string, island []string) (types.SymbolUse, bool)
	// DeclarationOf returns where the same identifier's symbol is declared.
	DeclarationOf(line, col int, lineText string, island []string) (types.Declaration, error)
}

// Analyzer is the analysis engine.
type Analyzer interface {
	Check(ctx context.Context, ref types.ArtifactRef) (Analysis, error)
	// EnumerateUses pushes every occurrence of use across the workspace to
	// fn. A non-nil error from fn stops the enumeration and is returned.
	EnumerateUses(ctx context.Context, use types.SymbolUse, ref types.ArtifactRef, a Analysis, fn func(types.Occurrence) error) error
}

// SnapshotSource reports the text a path had when it was last analysed.
// Ranges produced by the analyzer are relative to that text.
type SnapshotSource interface {
	SnapshotText(ref types.ArtifactRef) (string, bool)
}
