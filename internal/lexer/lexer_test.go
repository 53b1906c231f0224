// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package lexer

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const src = `package demo

import "strings"

// Upper calls strings.ToUpper.
func Upper(s string) string {
	x := strings.ToUpper(s)
	return x + "Upper"
}

type Config struct {
	Name string
}

func use(c *Config) strings.Builder {
	_ = c.Name
	var b strings.Builder
	return b
}
`

// at returns the offset of the n-th occurrence of needle plus delta.
func at(t *testing.T, needle string, n, delta int) int {
	t.Helper()
	idx := -1
	for i := 0; i <= n; i++ {
		next := strings.Index(src[idx+1:], needle)
		require.GreaterOrEqual(t, next, 0, "occurrence %d of %q", n, needle)
		idx += next + 1
	}
	return idx + delta
}

func TestIdentifierAt(t *testing.T) {
	tok := New()
	tests := []struct {
		name       string
		pos        int
		wantText   string
		wantIsland []string
	}{
		{"function name start", at(t, "Upper(s", 0, 0), "Upper", []string{"Upper"}},
		{"function name middle", at(t, "Upper(s", 0, 2), "Upper", []string{"Upper"}},
		{"function name end edge", at(t, "Upper(s", 0, 5), "Upper", []string{"Upper"}},
		{"selector field", at(t, "ToUpper(s)", 0, 1), "ToUpper", []string{"strings", "ToUpper"}},
		{"selector operand", at(t, "strings.ToUpper(s)", 0, 0), "strings", []string{"strings"}},
		{"qualified type name", at(t, "Builder {", 0, 0), "Builder", []string{"strings", "Builder"}},
		{"field access", at(t, "Name\n\tvar", 0, 1), "Name", []string{"c", "Name"}},
		{"field declaration", at(t, "Name string", 0, 0), "Name", []string{"Name"}},
		{"type identifier", at(t, "Config struct", 0, 3), "Config", []string{"Config"}},
		{"short var decl", at(t, "x :=", 0, 0), "x", []string{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tok.IdentifierAt(context.Background(), src, tt.pos)
			require.True(t, ok)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantText, src[got.Start:got.End])
			assert.Equal(t, tt.wantIsland, got.Island)
		})
	}
}

func TestIdentifierAt_StrictBeatsEdge(t *testing.T) {
	tok := New()
	text := "package p\n\nvar a, b = 1, 2\nvar c = a+b\n"

	// Offset of the "+" sits on a's end edge only.
	plus := strings.Index(text, "+")
	got, ok := tok.IdentifierAt(context.Background(), text, plus)
	require.True(t, ok)
	assert.Equal(t, "a", got.Text)

	// One byte later is b's start.
	got, ok = tok.IdentifierAt(context.Background(), text, plus+1)
	require.True(t, ok)
	assert.Equal(t, "b", got.Text)
}

func TestIdentifierAt_NoIdentifier(t *testing.T) {
	tok := New()
	tests := []struct {
		name string
		pos  int
	}{
		{"inside comment", at(t, "calls strings", 0, 2)},
		{"inside string literal", at(t, `"Upper"`, 0, 3)},
		{"blank line", at(t, "\n\nimport", 0, 1)},
		{"keyword", at(t, "func Upper", 0, 1)},
		{"negative offset", -1},
		{"past end", len(src) + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := tok.IdentifierAt(context.Background(), src, tt.pos)
			assert.False(t, ok)
		})
	}
}

func TestIdentifierAt_Coordinates(t *testing.T) {
	tok := New()
	pos := at(t, "ToUpper(s)", 0, 0)

	got, ok := tok.IdentifierAt(context.Background(), src, pos)
	require.True(t, ok)
	assert.Equal(t, 7, got.Line)
	assert.Equal(t, "\tx := strings.ToUpper(s)", got.LineText)
	assert.Equal(t, strings.Index(got.LineText, "ToUpper"), got.StartColumn)
	assert.Equal(t, got.StartColumn+len("ToUpper"), got.EndColumn)
}

func TestIdentifierAt_BrokenSource(t *testing.T) {
	tok := New()
	text := "package p\n\nfunc f() {\n\tvalue := compute(\n"

	got, ok := tok.IdentifierAt(context.Background(), text, strings.Index(text, "compute")+2)
	require.True(t, ok)
	assert.Equal(t, "compute", got.Text)
}

func TestTokenizer_Cache(t *testing.T) {
	tok := NewWithCacheSize(1)
	other := "package other\n"

	_, ok := tok.IdentifierAt(context.Background(), src, at(t, "Config", 0, 0))
	require.True(t, ok)
	_, ok = tok.IdentifierAt(context.Background(), src, at(t, "Upper(s", 0, 0))
	require.True(t, ok)
	assert.Equal(t, Stats{Parses: 1, CacheHits: 1}, tok.Stats())

	// A second text evicts the first.
	tok.IdentifierAt(context.Background(), other, 9)
	tok.IdentifierAt(context.Background(), src, at(t, "Config", 0, 0))
	assert.Equal(t, 3, tok.Stats().Parses)
}

func TestTokenizer_CacheDisabled(t *testing.T) {
	tok := NewWithCacheSize(0)
	for i := 0; i < 3; i++ {
		_, ok := tok.IdentifierAt(context.Background(), src, at(t, "Config", 0, 0))
		require.True(t, ok)
	}
	assert.Equal(t, Stats{Parses: 3}, tok.Stats())
}

func TestIdentifierAt_ConcurrentSameText(t *testing.T) {
	tok := New()
	positions := []struct {
		pos  int
		want string
	}{
		{at(t, "Upper(s", 0, 0), "Upper"},
		{at(t, "ToUpper(s)", 0, 1), "ToUpper"},
		{at(t, "Builder {", 0, 0), "Builder"},
		{at(t, "Name\n\tvar", 0, 1), "Name"},
		{at(t, "Config struct", 0, 3), "Config"},
		{at(t, "strings.ToUpper(s)", 0, 0), "strings"},
	}

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan string, workers*len(positions)*8)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 8; i++ {
				for _, p := range positions {
					got, ok := tok.IdentifierAt(context.Background(), src, p.pos)
					if !ok || got.Text != p.want || len(got.Island) == 0 {
						errs <- p.want
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	var failed []string
	for e := range errs {
		failed = append(failed, e)
	}
	assert.Empty(t, failed)
}
