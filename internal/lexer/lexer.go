// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package lexer locates identifier tokens in Go source using tree-sitter.
// It tolerates incomplete and syntactically broken buffers, which is what
// an editor usually hands over.
package lexer

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/petar-djukic/go-finder/pkg/types"
)

const defaultCacheSize = 128

// identifierTypes are the tree-sitter Go node types that name something.
var identifierTypes = map[string]bool{
	"identifier":         true,
	"field_identifier":   true,
	"type_identifier":    true,
	"package_identifier": true,
	"label_name":         true,
}

// cacheEntry keeps the parsed tree together with the bytes its nodes
// point into. Walking a tree memoizes nodes in an unsynchronized map inside
// the binding, so mu must be held while any node of root is visited.
type cacheEntry struct {
	mu   sync.Mutex
	src  []byte
	root *sitter.Node
}

// Stats tracks parser usage.
type Stats struct {
	Parses    int
	CacheHits int
}

// Tokenizer finds identifier tokens in source text. Parsed trees are
// cached by content hash and walks of one tree are serialized, so a
// Tokenizer is safe for concurrent use.
type Tokenizer struct {
	lang *sitter.Language

	mu       sync.Mutex
	cache    map[uint64]*cacheEntry
	order    []uint64
	capacity int
	stats    Stats
}

// New creates a Tokenizer for Go source with the default cache size.
func New() *Tokenizer {
	return NewWithCacheSize(defaultCacheSize)
}

// NewWithCacheSize creates a Tokenizer that keeps at most size parsed
// trees. A size <= 0 disables caching.
func NewWithCacheSize(size int) *Tokenizer {
	return &Tokenizer{
		lang:     golang.GetLanguage(),
		cache:    make(map[uint64]*cacheEntry),
		capacity: size,
	}
}

// Stats returns a snapshot of parser usage.
func (t *Tokenizer) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// IdentifierAt returns the identifier token spanning the byte offset pos.
// Matching is greedy: an offset on either edge of an identifier belongs to
// it, and when pos sits between two identifiers the one starting at pos
// wins.
func (t *Tokenizer) IdentifierAt(ctx context.Context, text string, pos int) (types.Token, bool) {
	if pos < 0 || pos > len(text) {
		return types.Token{}, false
	}

	entry, ok := t.parse(ctx, text)
	if !ok {
		return types.Token{}, false
	}

	entry.mu.Lock()
	node := identifierAt(entry.root, uint32(pos))
	if node == nil {
		entry.mu.Unlock()
		return types.Token{}, false
	}
	start, end := int(node.StartByte()), int(node.EndByte())
	isl := island(node, entry.src)
	entry.mu.Unlock()

	line, lineStart := lineOf(text, start)
	lineEnd := strings.IndexByte(text[lineStart:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text)
	} else {
		lineEnd += lineStart
	}

	return types.Token{
		Text:        text[start:end],
		Start:       start,
		End:         end,
		Line:        line,
		StartColumn: start - lineStart,
		EndColumn:   end - lineStart,
		LineText:    strings.TrimSuffix(text[lineStart:lineEnd], "\r"),
		Island:      isl,
	}, true
}

// parse returns the tree for text, using the cache when possible.
func (t *Tokenizer) parse(ctx context.Context, text string) (*cacheEntry, bool) {
	key := hashText(text)

	t.mu.Lock()
	if e, ok := t.cache[key]; ok && string(e.src) == text {
		t.stats.CacheHits++
		t.mu.Unlock()
		return e, true
	}
	t.mu.Unlock()

	src := []byte(text)
	root, err := sitter.ParseCtx(ctx, src, t.lang)
	if err != nil || root == nil {
		return nil, false
	}
	entry := &cacheEntry{src: src, root: root}

	t.mu.Lock()
	t.stats.Parses++
	if t.capacity > 0 {
		if _, exists := t.cache[key]; !exists {
			if len(t.order) >= t.capacity {
				delete(t.cache, t.order[0])
				t.order = t.order[1:]
			}
			t.order = append(t.order, key)
		}
		t.cache[key] = entry
	}
	t.mu.Unlock()

	return entry, true
}

// identifierAt walks the tree down to the identifier covering pos. A node
// strictly containing pos beats one that merely ends at pos.
func identifierAt(root *sitter.Node, pos uint32) *sitter.Node {
	var strict, edge *sitter.Node

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || pos < n.StartByte() || pos > n.EndByte() {
			return
		}
		if identifierTypes[n.Type()] {
			if pos < n.EndByte() {
				strict = n
			} else if edge == nil {
				edge = n
			}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)

	if strict != nil {
		return strict
	}
	return edge
}

// island returns the dotted chain that ends with n: "a.b.c" when n is the
// c of a selector over plain identifiers, "pkg.T" for qualified types.
func island(n *sitter.Node, src []byte) []string {
	name := n.Content(src)
	parent := n.Parent()
	if parent == nil {
		return []string{name}
	}

	switch parent.Type() {
	case "selector_expression":
		if sameNode(parent.ChildByFieldName("field"), n) {
			if prefix := chain(parent.ChildByFieldName("operand"), src); prefix != nil {
				return append(prefix, name)
			}
		}
	case "qualified_type":
		if sameNode(parent.ChildByFieldName("name"), n) {
			if pkg := parent.ChildByFieldName("package"); pkg != nil {
				return []string{pkg.Content(src), name}
			}
		}
	}
	return []string{name}
}

// chain flattens a selector expression made only of identifiers.
func chain(n *sitter.Node, src []byte) []string {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier":
		return []string{n.Content(src)}
	case "selector_expression":
		prefix := chain(n.ChildByFieldName("operand"), src)
		field := n.ChildByFieldName("field")
		if prefix == nil || field == nil {
			return nil
		}
		return append(prefix, field.Content(src))
	}
	return nil
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// lineOf returns the 1-based line containing offset and the offset at
// which that line starts.
func lineOf(text string, offset int) (int, int) {
	line := 1 + strings.Count(text[:offset], "\n")
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	return line, start
}

func hashText(text string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	return h.Sum64()
}
