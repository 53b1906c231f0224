// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package findusages

import (
	"context"
	"fmt"
	"strings"

	"github.com/petar-djukic/go-finder/pkg/types"
)

// Located is a resolved cursor: the token under it, the symbol it binds
// to, the symbol's declaration, and the analysis that produced them.
type Located struct {
	Artifact types.ArtifactRef
	Token    types.Token
	Use      types.SymbolUse
	Decl     types.Declaration
	Analysis Analysis
}

// Locator resolves the symbol at a cursor position.
type Locator struct {
	deps Deps
}

// NewLocator creates a Locator.
func NewLocator(deps Deps) *Locator {
	return &Locator{deps: deps.withDefaults()}
}

// Locate finds the identifier at the byte offset position of the
// artifact's current text, analyses the artifact, and resolves the
// identifier's symbol and declaration.
//
// It fails with ErrNoSymbolAtPosition when no identifier covers position
// and with ErrUnresolvableSymbol when the analysis cannot bind it.
func (l *Locator) Locate(ctx context.Context, ref types.ArtifactRef, position int) (*Located, error) {
	text, err := l.deps.Workspace.Text(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ref.Path, err)
	}

	tok, ok := l.deps.Tokenizer.IdentifierAt(ctx, text, position)
	if !ok {
		return nil, fmt.Errorf("%w: %s offset %d", ErrNoSymbolAtPosition, ref.Path, position)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, err := l.deps.Analyzer.Check(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("analysing %s: %w", ref.Path, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	use, ok := a.SymbolUseAt(tok.Line, tok.EndColumn, tok.LineText, tok.Island)
	if !ok {
		return nil, fmt.Errorf("%w: %s at %s:%d:%d", ErrUnresolvableSymbol,
			strings.Join(tok.Island, "."), ref.Path, tok.Line, tok.StartColumn)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	decl, err := a.DeclarationOf(tok.Line, tok.EndColumn, tok.LineText, tok.Island)
	if err != nil {
		return nil, fmt.Errorf("declaration of %s: %w", use.Name, err)
	}

	return &Located{
		Artifact: ref,
		Token:    tok,
		Use:      use,
		Decl:     decl,
		Analysis: a,
	}, nil
}
