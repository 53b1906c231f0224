// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package findusages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/petar-djukic/go-finder/pkg/types"
)

// fakeWorkspace serves texts from memory. Artifacts are registered per path.
type fakeWorkspace struct {
	arts       map[string][]types.ArtifactRef
	texts      map[string]string
	unreadable map[int]bool
}

func newFakeWorkspace() *fakeWorkspace {
	return &fakeWorkspace{
		arts:       make(map[string][]types.ArtifactRef),
		texts:      make(map[string]string),
		unreadable: make(map[int]bool),
	}
}

// add registers path under each module and returns the new artifacts.
func (w *fakeWorkspace) add(path, text string, modules ...string) []types.ArtifactRef {
	w.texts[path] = text
	var added []types.ArtifactRef
	for _, m := range modules {
		ref := types.ArtifactRef{ID: w.count(), Path: path, Module: m}
		w.arts[path] = append(w.arts[path], ref)
		added = append(added, ref)
	}
	return added
}

func (w *fakeWorkspace) count() int {
	n := 0
	for _, a := range w.arts {
		n += len(a)
	}
	return n
}

func (w *fakeWorkspace) ArtifactsForPath(path string) []types.ArtifactRef {
	return w.arts[path]
}

func (w *fakeWorkspace) Text(ctx context.Context, ref types.ArtifactRef) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if w.unreadable[ref.ID] {
		return "", fmt.Errorf("reading %s: permission denied", ref.Path)
	}
	text, ok := w.texts[ref.Path]
	if !ok {
		return "", fmt.Errorf("reading %s: no such file", ref.Path)
	}
	return text, nil
}

// wordTokenizer treats runs of letters, digits, and underscores as
// identifiers, with the same greedy edge rule as the real lexer.
type wordTokenizer struct{}

func isWord(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func (wordTokenizer) IdentifierAt(_ context.Context, text string, pos int) (types.Token, bool) {
	if pos < 0 || pos > len(text) {
		return types.Token{}, false
	}
	at := pos
	if at == len(text) || !isWord(text[at]) {
		if at == 0 || !isWord(text[at-1]) {
			return types.Token{}, false
		}
		at--
	}
	start, end := at, at
	for start > 0 && isWord(text[start-1]) {
		start--
	}
	for end < len(text) && isWord(text[end]) {
		end++
	}

	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	lineEnd := strings.IndexByte(text[start:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text)
	} else {
		lineEnd += start
	}
	word := text[start:end]
	return types.Token{
		Text:        word,
		Start:       start,
		End:         end,
		Line:        strings.Count(text[:start], "\n") + 1,
		StartColumn: start - lineStart,
		EndColumn:   end - lineStart,
		LineText:    text[lineStart:lineEnd],
		Island:      []string{word},
	}, true
}

// fakeAnalysis resolves every identifier to the same symbol.
type fakeAnalysis struct {
	use      types.SymbolUse
	resolves bool
	decl     types.Declaration
	declErr  error
}

func (a *fakeAnalysis) SymbolUseAt(line, col int, lineText string, island []string) (types.SymbolUse, bool) {
	return a.use, a.resolves
}

func (a *fakeAnalysis) DeclarationOf(line, col int, lineText string, island []string) (types.Declaration, error) {
	return a.decl, a.declErr
}

// fakeAnalyzer replays a fixed list of occurrences.
type fakeAnalyzer struct {
	analysis    *fakeAnalysis
	checkErr    error
	occurrences []types.Occurrence
	enumErr     error

	mu         sync.Mutex
	enumerated int
}

func (f *fakeAnalyzer) Check(ctx context.Context, ref types.ArtifactRef) (Analysis, error) {
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return f.analysis, nil
}

func (f *fakeAnalyzer) EnumerateUses(ctx context.Context, use types.SymbolUse, ref types.ArtifactRef, a Analysis, fn func(types.Occurrence) error) error {
	f.mu.Lock()
	f.enumerated++
	f.mu.Unlock()
	for _, occ := range f.occurrences {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(occ); err != nil {
			return err
		}
	}
	return f.enumErr
}

func (f *fakeAnalyzer) enumerations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enumerated
}

// fakeSnapshots returns the text a path had at analysis time.
type fakeSnapshots map[string]string

func (s fakeSnapshots) SnapshotText(ref types.ArtifactRef) (string, bool) {
	text, ok := s[ref.Path]
	return text, ok
}

// recordingReporter records calls. References whose span starts at an
// offset in failAt return an error; those in panicAt panic.
type recordingReporter struct {
	mu      sync.Mutex
	defs    []types.DefinitionDescriptor
	refs    []types.ReportedReference
	calls   int
	defErr  error
	failAt  map[int]bool
	panicAt map[int]bool
	onRef   func()
}

var errReporterRejected = errors.New("rejected")

func (r *recordingReporter) OnDefinitionFound(_ context.Context, def types.DefinitionDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defErr != nil {
		return r.defErr
	}
	r.defs = append(r.defs, def)
	return nil
}

func (r *recordingReporter) OnReferenceFound(_ context.Context, ref types.ReportedReference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.onRef != nil {
		r.onRef()
	}
	if r.panicAt[ref.Span.Start] {
		panic("reporter blew up")
	}
	if r.failAt[ref.Span.Start] {
		return errReporterRejected
	}
	r.refs = append(r.refs, ref)
	return nil
}

// rangeOf returns the range of the n-th (0-based) occurrence of word in
// text.
func rangeOf(path, text, word string, n int) types.TextRange {
	idx := -1
	for i := 0; i <= n; i++ {
		next := strings.Index(text[idx+1:], word)
		if next < 0 {
			panic(fmt.Sprintf("%q occurrence %d not found", word, n))
		}
		idx += next + 1
	}
	line := strings.Count(text[:idx], "\n") + 1
	col := idx - (strings.LastIndexByte(text[:idx], '\n') + 1)
	return types.TextRange{
		Path:  path,
		Start: types.Position{Line: line, Column: col},
		End:   types.Position{Line: line, Column: col + len(word)},
	}
}

// offsetOfWord returns the byte offset of the n-th occurrence of word.
func offsetOfWord(text, word string, n int) int {
	idx := -1
	for i := 0; i <= n; i++ {
		idx += strings.Index(text[idx+1:], word) + 1
	}
	return idx
}
