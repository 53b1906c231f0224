// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package findusages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/petar-djukic/go-finder/pkg/types"
)

// Deps holds the collaborators of the find-usages core.
type Deps struct {
	Workspace   Workspace
	Tokenizer   Tokenizer
	Analyzer    Analyzer
	Snapshots   SnapshotSource // Optional
	Concurrency int            // Fan-out limit; <= 0 means runtime.NumCPU()
	Logger      *slog.Logger   // Optional; discards by default
}

func (d Deps) withDefaults() Deps {
	if d.Concurrency <= 0 {
		d.Concurrency = runtime.NumCPU()
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d
}

// Outcome summarizes how an invocation ended.
type Outcome int

const (
	Completed    Outcome = iota // Everything found was reported
	NoSymbol                    // No identifier under the cursor
	Unresolvable                // The identifier could not be bound to a symbol
	Cancelled                   // The context ended the invocation early
	Incomplete                  // The usage scan failed part way
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case NoSymbol:
		return "no-symbol"
	case Unresolvable:
		return "unresolvable"
	case Cancelled:
		return "cancelled"
	case Incomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// Result holds the outcome of one invocation.
type Result struct {
	Outcome     Outcome
	Mode        Mode
	Symbol      types.SymbolUse
	Definitions int
	Stream      StreamStats
}

// Finder runs find-usages invocations.
type Finder struct {
	deps       Deps
	locator    *Locator
	classifier *Classifier
	streamer   *Streamer
}

// New wires the core components around deps.
func New(deps Deps) *Finder {
	deps = deps.withDefaults()
	mapper := NewMapper(deps)
	return &Finder{
		deps:       deps,
		locator:    NewLocator(deps),
		classifier: NewClassifier(mapper),
		streamer:   NewStreamer(deps, mapper),
	}
}

// FindReferences reports the definitions of the symbol at position, then
// every reference to it.
func (f *Finder) FindReferences(ctx context.Context, ref types.ArtifactRef, position int, r types.Reporter) (*Result, error) {
	return f.run(ctx, ref, position, r, ModeReferences)
}

// FindImplementations reports only the definitions of the symbol at
// position.
func (f *Finder) FindImplementations(ctx context.Context, ref types.ArtifactRef, position int, r types.Reporter) (*Result, error) {
	return f.run(ctx, ref, position, r, ModeImplementations)
}

// run resolves, classifies, and streams. Resolution failures and
// cancellation end the invocation with an Outcome and no error; only a
// failing OnDefinitionFound is returned as an error.
func (f *Finder) run(ctx context.Context, ref types.ArtifactRef, position int, r types.Reporter, mode Mode) (*Result, error) {
	result := &Result{Mode: mode}
	log := f.deps.Logger.With("path", ref.Path, "module", ref.Module, "offset", position, "mode", mode.String())

	loc, err := f.locator.Locate(ctx, ref, position)
	if err != nil {
		return f.settle(ctx, log, result, err, Unresolvable), nil
	}
	result.Symbol = loc.Use
	log.Debug("located symbol", "symbol", loc.Use.FullName, "declared", loc.Decl.Found)

	defs, err := f.classifier.Classify(ctx, loc.Use, loc.Decl)
	if err != nil {
		return f.settle(ctx, log, result, err, Unresolvable), nil
	}

	for _, d := range defs {
		if ctx.Err() != nil {
			return f.settle(ctx, log, result, ctx.Err(), Cancelled), nil
		}
		if err := r.OnDefinitionFound(ctx, d); err != nil {
			return result, fmt.Errorf("%w: %s: %w", ErrDefinitionReport, loc.Use.Name, err)
		}
		result.Definitions++
	}

	if mode == ModeImplementations {
		result.Outcome = Completed
		return result, nil
	}

	stats, err := f.streamer.Stream(ctx, StreamRequest{
		Located:     loc,
		Definitions: defs,
		Reporter:    r,
	})
	result.Stream = stats
	if err != nil {
		return f.settle(ctx, log, result, err, Incomplete), nil
	}

	result.Outcome = Completed
	log.Debug("find usages done", "definitions", result.Definitions, "references", stats.Reported, "faults", stats.Faults)
	return result, nil
}

// settle converts an internal failure into the Outcome the host sees.
func (f *Finder) settle(ctx context.Context, log *slog.Logger, result *Result, err error, fallback Outcome) *Result {
	switch {
	case ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		result.Outcome = Cancelled
	case errors.Is(err, ErrNoSymbolAtPosition):
		result.Outcome = NoSymbol
	case errors.Is(err, ErrUnresolvableSymbol):
		result.Outcome = Unresolvable
	default:
		result.Outcome = fallback
	}
	log.Debug("find usages ended early", "outcome", result.Outcome.String(), "error", err)
	return result
}
