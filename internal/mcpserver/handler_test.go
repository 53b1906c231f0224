// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/go-finder/pkg/finder"
	"github.com/petar-djukic/go-finder/pkg/types"
)

// stubFinder reports one definition and, for references, one reference at
// the requested offset.
type stubFinder struct {
	offset  int
	err     error
	lastRef bool
}

func (s *stubFinder) find(ctx context.Context, file string, offset int, r types.Reporter, refs bool) (*finder.Result, error) {
	s.offset, s.lastRef = offset, refs
	if s.err != nil {
		return nil, s.err
	}
	def := types.DefinitionDescriptor{
		Navigable: true,
		Name:      "Hello",
		Spans: []types.NavigableSpan{{
			Artifact: types.ArtifactRef{Path: "/w/lib.go", Module: "lib"},
			Range:    types.TextRange{Path: "/w/lib.go", Start: types.Position{Line: 3, Column: 5}, End: types.Position{Line: 3, Column: 10}},
		}},
	}
	if err := r.OnDefinitionFound(ctx, def); err != nil {
		return nil, err
	}
	res := &finder.Result{Outcome: "completed", Definitions: 1}
	if refs {
		span := types.NavigableSpan{
			Artifact: types.ArtifactRef{Path: "/w/main.go", Module: "main"},
			Range:    types.TextRange{Path: "/w/main.go", Start: types.Position{Line: 6, Column: 8}, End: types.Position{Line: 6, Column: 13}},
		}
		if err := r.OnReferenceFound(ctx, types.ReportedReference{Definition: def, Span: span}); err != nil {
			return nil, err
		}
		res.References = 1
	}
	return res, nil
}

func (s *stubFinder) FindReferences(ctx context.Context, file string, offset int, r types.Reporter) (*finder.Result, error) {
	return s.find(ctx, file, offset, r, true)
}

func (s *stubFinder) FindImplementations(ctx context.Context, file string, offset int, r types.Reporter) (*finder.Result, error) {
	return s.find(ctx, file, offset, r, false)
}

func (s *stubFinder) Offset(ctx context.Context, file string, line, column int) (int, error) {
	return finder.LineColumnOffset("package a\n\nfunc Hello() {}\n", line, column)
}

func (s *stubFinder) SetOverlay(file, text string)        {}
func (s *stubFinder) ClearOverlay(file string)            {}
func (s *stubFinder) Root() string                        { return "/w" }
func (s *stubFinder) ReadText(file string) (string, bool) { return "", false }

func call(t *testing.T, h *Handler, tool string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	var res *mcp.CallToolResult
	var err error
	if tool == ToolFindReferences {
		res, err = h.HandleReferences(context.Background(), req)
	} else {
		res, err = h.HandleImplementations(context.Background(), req)
	}
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHandleReferences(t *testing.T) {
	stub := &stubFinder{}
	h := NewHandler(stub, nil)

	res := call(t, h, ToolFindReferences, map[string]any{"file": "a.go", "line": 3, "column": 6})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, 16, stub.offset)
	assert.True(t, stub.lastRef)

	var body Response
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &body))
	assert.Equal(t, "completed", body.Result.Outcome)
	require.Len(t, body.Definitions, 1)
	assert.Equal(t, uint32(2), body.Definitions[0].Range.Start.Line)
	require.Len(t, body.References, 1)
	assert.Equal(t, uint32(5), body.References[0].Range.Start.Line)
	assert.Equal(t, uint32(8), body.References[0].Range.Start.Character)
}

func TestHandleImplementations_ByOffset(t *testing.T) {
	stub := &stubFinder{}
	h := NewHandler(stub, nil)

	res := call(t, h, ToolFindImplementations, map[string]any{"file": "a.go", "offset": 17})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, 17, stub.offset)
	assert.False(t, stub.lastRef)

	var body Response
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &body))
	assert.Len(t, body.Definitions, 1)
	assert.Empty(t, body.References)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		err  error
	}{
		{"missing file", map[string]any{"offset": 1}, nil},
		{"missing position", map[string]any{"file": "a.go"}, nil},
		{"finder failure", map[string]any{"file": "a.go", "offset": 1}, errors.New("file is not part of the workspace")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&stubFinder{err: tt.err}, nil)
			res := call(t, h, ToolFindReferences, tt.args)
			assert.True(t, res.IsError)
		})
	}
}

func TestNew_RegistersTools(t *testing.T) {
	s := New(NewHandler(&stubFinder{}, nil), "test")
	require.NotNil(t, s)

	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"`+ToolFindReferences+`"`)
	assert.Contains(t, string(out), `"`+ToolFindImplementations+`"`)
}
