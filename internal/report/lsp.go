// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package report

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf16"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/petar-djukic/go-finder/pkg/types"
)

// LineReader returns the text of a file so columns can be converted to
// UTF-16 units.
type LineReader func(path string) (string, bool)

// ReadFile is a LineReader over the file system.
func ReadFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// LSP converts reported spans into LSP locations. Module copies of the
// same file collapse into one location.
type LSP struct {
	read LineReader

	mu    sync.Mutex
	defs  map[protocol.Location]bool
	refs  map[protocol.Location]bool
	lines map[string][]string
}

var _ types.Reporter = (*LSP)(nil)

// NewLSP creates an LSP reporter. A nil read keeps byte columns.
func NewLSP(read LineReader) *LSP {
	return &LSP{
		read:  read,
		defs:  make(map[protocol.Location]bool),
		refs:  make(map[protocol.Location]bool),
		lines: make(map[string][]string),
	}
}

// OnDefinitionFound records a location for every span of def.
func (l *LSP) OnDefinitionFound(ctx context.Context, def types.DefinitionDescriptor) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range def.Spans {
		l.defs[l.location(s.Range)] = true
	}
	return nil
}

// OnReferenceFound records the location of ref.
func (l *LSP) OnReferenceFound(ctx context.Context, ref types.ReportedReference) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refs[l.location(ref.Span.Range)] = true
	return nil
}

// Definitions returns the definition locations, sorted.
func (l *LSP) Definitions() []protocol.Location {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sortedLocations(l.defs)
}

// References returns the reference locations, sorted.
func (l *LSP) References() []protocol.Location {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sortedLocations(l.refs)
}

// location converts r, translating byte columns into UTF-16 code units as
// LSP requires. Callers hold l.mu.
func (l *LSP) location(r types.TextRange) protocol.Location {
	return protocol.Location{
		URI: protocol.DocumentURI(uri.File(r.Path)),
		Range: protocol.Range{
			Start: l.position(r.Path, r.Start),
			End:   l.position(r.Path, r.End),
		},
	}
}

func (l *LSP) position(path string, p types.Position) protocol.Position {
	col := p.Column
	if line, ok := l.line(path, p.Line); ok && col <= len(line) {
		col = utf16Len(line[:col])
	}
	return protocol.Position{Line: uint32(p.Line - 1), Character: uint32(col)}
}

// line returns line n of path. Each file is read and split once; a file
// that cannot be read is remembered as having no lines.
func (l *LSP) line(path string, n int) (string, bool) {
	if l.read == nil {
		return "", false
	}
	lines, ok := l.lines[path]
	if !ok {
		if text, read := l.read(path); read {
			lines = strings.Split(text, "\n")
		}
		l.lines[path] = lines
	}
	if n < 1 || n > len(lines) {
		return "", false
	}
	return lines[n-1], true
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func sortedLocations(set map[protocol.Location]bool) []protocol.Location {
	locs := make([]protocol.Location, 0, len(set))
	for loc := range set {
		locs = append(locs, loc)
	}
	sort.Slice(locs, func(i, j int) bool {
		a, b := locs[i], locs[j]
		if a.URI != b.URI {
			return a.URI < b.URI
		}
		if a.Range.Start.Line != b.Range.Start.Line {
			return a.Range.Start.Line < b.Range.Start.Line
		}
		return a.Range.Start.Character < b.Range.Start.Character
	})
	return locs
}
