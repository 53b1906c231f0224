// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import "context"

// DefinitionDescriptor identifies a symbol's declaration for presentation
// and grouping. Navigable descriptors carry the spans of the declaration
// within a single owning module; non-navigable ones only carry metadata.
type DefinitionDescriptor struct {
	Navigable bool
	Name      string
	FullName  string
	Kind      SymbolKind
	Module    string // Originating package of the symbol
	Signature string
	Spans     []NavigableSpan
}

// OwningModule returns the workspace module the descriptor's spans belong
// to, or "" for non-navigable descriptors.
func (d DefinitionDescriptor) OwningModule() string {
	if !d.Navigable || len(d.Spans) == 0 {
		return ""
	}
	return d.Spans[0].Artifact.Module
}

// ReportedReference pairs a reference span with the definition it belongs to.
type ReportedReference struct {
	Definition DefinitionDescriptor
	Span       NavigableSpan
}

// Reporter receives find-usages results. Implementations may be called from
// several goroutines, but never concurrently by the same invocation.
type Reporter interface {
	OnDefinitionFound(ctx context.Context, def DefinitionDescriptor) error
	OnReferenceFound(ctx context.Context, ref ReportedReference) error
}
