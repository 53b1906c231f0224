// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package findusages

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/petar-djukic/go-finder/pkg/types"
)

// Mode selects what an invocation reports.
type Mode int

const (
	ModeReferences      Mode = iota // Definitions and every reference
	ModeImplementations             // Definitions only
)

func (m Mode) String() string {
	if m == ModeImplementations {
		return "implementations"
	}
	return "references"
}

// StreamRequest is the input of one reference enumeration.
type StreamRequest struct {
	Located     *Located
	Definitions []types.DefinitionDescriptor
	Reporter    types.Reporter
}

// StreamStats counts what happened to the enumerated occurrences.
type StreamStats struct {
	Occurrences int // Occurrences delivered by the analyzer
	Reported    int // References accepted by the reporter
	Faults      int // References the reporter failed on
	Skipped     int // Declaration occurrences and unmappable ranges
	Duplicates  int // Spans already reported through another occurrence
}

// Streamer enumerates every occurrence of a symbol and reports each one
// against its definition.
type Streamer struct {
	deps   Deps
	mapper *Mapper
}

// NewStreamer creates a Streamer that maps occurrences with mapper.
func NewStreamer(deps Deps, mapper *Mapper) *Streamer {
	return &Streamer{deps: deps.withDefaults(), mapper: mapper}
}

// streamState is shared by the occurrence workers of one Stream call.
// mu serializes reporter calls together with the bookkeeping they update.
type streamState struct {
	req      StreamRequest
	selector *selector

	mu    sync.Mutex
	seen  map[spanKey]bool
	stats StreamStats
}

type spanKey struct {
	artifact   int
	start, end int
}

// Stream drives the analyzer's usage enumeration. Occurrences are mapped
// concurrently; reporter calls are serialized. A reporter failure on one
// reference is logged and counted, and enumeration continues. Cancellation
// stops enumeration and reporting and is returned as the context's error.
func (s *Streamer) Stream(ctx context.Context, req StreamRequest) (StreamStats, error) {
	st := &streamState{
		req:      req,
		selector: newSelector(req.Definitions, req.Located.Use),
		seen:     make(map[spanKey]bool),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.deps.Concurrency)

	loc := req.Located
	enumErr := s.deps.Analyzer.EnumerateUses(gctx, loc.Use, loc.Artifact, loc.Analysis, func(occ types.Occurrence) error {
		if err := gctx.Err(); err != nil {
			return err
		}
		st.mu.Lock()
		st.stats.Occurrences++
		st.mu.Unlock()

		g.Go(func() error {
			return s.handle(gctx, st, occ)
		})
		return nil
	})
	waitErr := g.Wait()

	st.mu.Lock()
	stats := st.stats
	st.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if waitErr != nil {
		return stats, waitErr
	}
	if enumErr != nil {
		return stats, fmt.Errorf("enumerating uses of %s: %w", loc.Use.Name, enumErr)
	}
	return stats, nil
}

// handle maps one occurrence and reports every span it yields.
func (s *Streamer) handle(ctx context.Context, st *streamState, occ types.Occurrence) error {
	decl := st.req.Located.Decl
	if decl.Found && occ.Range == decl.Range {
		st.skip()
		return nil
	}

	spans, err := s.mapper.MapRangeToSpans(ctx, occ.Range)
	if err != nil {
		return err
	}
	spans = ownSpans(spans, occ.Artifact)
	if len(spans) == 0 {
		s.deps.Logger.Debug("skipping unmappable occurrence", "range", occ.Range.String(), "module", occ.Artifact.Module)
		st.skip()
		return nil
	}

	for _, span := range spans {
		ref := types.ReportedReference{
			Definition: st.selector.pick(span.Artifact.Module),
			Span:       span,
		}
		if err := s.emit(ctx, st, ref); err != nil {
			return err
		}
	}
	return nil
}

// emit hands ref to the reporter unless it was already reported.
func (s *Streamer) emit(ctx context.Context, st *streamState, ref types.ReportedReference) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	k := spanKey{artifact: ref.Span.Artifact.ID, start: ref.Span.Start, end: ref.Span.End}
	if st.seen[k] {
		st.stats.Duplicates++
		return nil
	}
	st.seen[k] = true

	if err := safeReport(ctx, st.req.Reporter, ref); err != nil {
		st.stats.Faults++
		s.deps.Logger.Warn("reporter rejected reference",
			"path", ref.Span.Artifact.Path, "module", ref.Span.Artifact.Module, "error", err)
		return nil
	}
	st.stats.Reported++
	return nil
}

func (st *streamState) skip() {
	st.mu.Lock()
	st.stats.Skipped++
	st.mu.Unlock()
}

// safeReport calls OnReferenceFound, turning a panic into an error.
func safeReport(ctx context.Context, r types.Reporter, ref types.ReportedReference) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("reporter panicked: %v", p)
		}
	}()
	return r.OnReferenceFound(ctx, ref)
}

// ownSpans keeps the spans that belong to the occurrence's own artifact.
// The analyzer reports a file shared by several modules once per module,
// so each copy only needs its own span. If the artifact is not among the
// mapped spans, all of them are kept.
func ownSpans(spans []types.NavigableSpan, art types.ArtifactRef) []types.NavigableSpan {
	for _, s := range spans {
		if s.Artifact.ID == art.ID && s.Artifact.Path == art.Path {
			return []types.NavigableSpan{s}
		}
	}
	return spans
}

// selector picks the definition a reference is attributed to.
type selector struct {
	external *types.DefinitionDescriptor
	byModule map[string]types.DefinitionDescriptor
	fallback types.DefinitionDescriptor
}

func newSelector(defs []types.DefinitionDescriptor, use types.SymbolUse) *selector {
	sel := &selector{
		byModule: make(map[string]types.DefinitionDescriptor, len(defs)),
		fallback: nonNavigable(use),
	}
	if len(defs) == 1 && !defs[0].Navigable {
		sel.external = &defs[0]
		return sel
	}
	for _, d := range defs {
		if d.Navigable {
			sel.byModule[d.OwningModule()] = d
		}
	}
	return sel
}

// pick returns the single non-navigable descriptor for external symbols,
// otherwise the descriptor owned by module, falling back to a
// non-navigable descriptor when module compiled no declaration.
func (s *selector) pick(module string) types.DefinitionDescriptor {
	if s.external != nil {
		return *s.external
	}
	if d, ok := s.byModule[module]; ok {
		return d
	}
	return s.fallback
}
