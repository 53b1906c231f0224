// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package findusages

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/petar-djukic/go-finder/pkg/types"
)

// Mapper converts analysis ranges into navigable spans, once per artifact
// registered under the range's path.
type Mapper struct {
	deps Deps
}

// NewMapper creates a Mapper.
func NewMapper(deps Deps) *Mapper {
	return &Mapper{deps: deps.withDefaults()}
}

// MapRangeToSpans maps r against every artifact backed by r.Path. A
// degenerate range maps to nothing. Artifacts whose text cannot be read or
// no longer holds an identifier at the range are left out. The only error
// is cancellation.
func (m *Mapper) MapRangeToSpans(ctx context.Context, r types.TextRange) ([]types.NavigableSpan, error) {
	if r.IsDegenerate() {
		return nil, nil
	}
	arts := m.deps.Workspace.ArtifactsForPath(r.Path)
	if len(arts) == 0 {
		return nil, nil
	}

	mapped := make([]*types.NavigableSpan, len(arts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.deps.Concurrency)
	for i, a := range arts {
		g.Go(func() error {
			text, err := m.deps.Workspace.Text(gctx, a)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				m.deps.Logger.Debug("skipping unreadable artifact", "path", a.Path, "module", a.Module, "error", err)
				return nil
			}
			if span, ok := m.mapOne(gctx, a, text, r); ok {
				mapped[i] = &span
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var spans []types.NavigableSpan
	for _, s := range mapped {
		if s != nil {
			spans = append(spans, *s)
		}
	}
	return spans, nil
}

// mapOne converts r into a span of one artifact's current text. When the
// analysis ran against different text, the range is located in that
// snapshot and carried over to the current text.
func (m *Mapper) mapOne(ctx context.Context, a types.ArtifactRef, text string, r types.TextRange) (types.NavigableSpan, bool) {
	base := text
	if m.deps.Snapshots != nil {
		if snap, ok := m.deps.Snapshots.SnapshotText(a); ok {
			base = snap
		}
	}

	start, okStart := offsetOf(base, r.Start)
	end, okEnd := offsetOf(base, r.End)
	if !okStart || !okEnd || end < start {
		return types.NavigableSpan{}, false
	}

	var want string
	if base != text {
		before, ok := m.fixup(ctx, base, start, end)
		if !ok {
			return types.NavigableSpan{}, false
		}
		want = before.Text
		start, end, ok = translateSpan(base, text, start, end)
		if !ok {
			return types.NavigableSpan{}, false
		}
	}

	tok, ok := m.fixup(ctx, text, start, end)
	if !ok || (want != "" && tok.Text != want) {
		m.deps.Logger.Debug("stale range", "range", r.String(), "module", a.Module)
		return types.NavigableSpan{}, false
	}

	return types.NavigableSpan{
		Artifact: a,
		Start:    tok.Start,
		End:      tok.End,
		Range: types.TextRange{
			Path:  a.Path,
			Start: types.Position{Line: tok.Line, Column: tok.StartColumn},
			End:   types.Position{Line: tok.Line, Column: tok.EndColumn},
		},
	}, true
}

// fixup snaps [start, end) to the identifier token it touches, absorbing
// off-by-one and trivia differences between analysis and lexer
// coordinates.
func (m *Mapper) fixup(ctx context.Context, text string, start, end int) (types.Token, bool) {
	var touching *types.Token
	for _, pos := range []int{start, end - 1, end} {
		if pos < 0 || pos > len(text) {
			continue
		}
		tok, ok := m.deps.Tokenizer.IdentifierAt(ctx, text, pos)
		if !ok {
			continue
		}
		if tok.Start < end && tok.End > start {
			return tok, true
		}
		if touching == nil && tok.Start <= end && tok.End >= start {
			touching = &tok
		}
	}
	if touching != nil {
		return *touching, true
	}
	return types.Token{}, false
}

// offsetOf converts a line/column position into a byte offset. It fails
// when the line does not exist or the column lies past the end of it.
func offsetOf(text string, p types.Position) (int, bool) {
	if p.Line < 1 || p.Column < 0 {
		return 0, false
	}
	lineStart := 0
	for line := 1; line < p.Line; line++ {
		nl := strings.IndexByte(text[lineStart:], '\n')
		if nl < 0 {
			return 0, false
		}
		lineStart += nl + 1
	}
	lineEnd := strings.IndexByte(text[lineStart:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text)
	} else {
		lineEnd += lineStart
	}
	if lineStart+p.Column > lineEnd {
		return 0, false
	}
	return lineStart + p.Column, true
}
