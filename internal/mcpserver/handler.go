// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"go.lsp.dev/protocol"

	"github.com/petar-djukic/go-finder/internal/report"
	"github.com/petar-djukic/go-finder/pkg/finder"
)

// Response is the JSON body of a successful tool call.
type Response struct {
	Result      *finder.Result      `json:"result"`
	Definitions []protocol.Location `json:"definitions"`
	References  []protocol.Location `json:"references,omitempty"`
}

// Handler turns MCP tool calls into Finder queries.
type Handler struct {
	finder finder.Finder
	logger *slog.Logger
}

// NewHandler creates a Handler over f.
func NewHandler(f finder.Finder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{finder: f, logger: logger}
}

// HandleReferences serves find_references.
func (h *Handler) HandleReferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.handle(ctx, req, true)
}

// HandleImplementations serves find_implementations.
func (h *Handler) HandleImplementations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.handle(ctx, req, false)
}

func (h *Handler) handle(ctx context.Context, req mcp.CallToolRequest, references bool) (*mcp.CallToolResult, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError("file is required"), nil
	}
	offset, err := h.offset(ctx, req, file)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	lsp := report.NewLSP(h.finder.ReadText)
	var res *finder.Result
	if references {
		res, err = h.finder.FindReferences(ctx, file, offset, lsp)
	} else {
		res, err = h.finder.FindImplementations(ctx, file, offset, lsp)
	}
	if err != nil {
		h.logger.Warn("tool call failed", "tool", req.Params.Name, "file", file, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	body, err := json.Marshal(Response{
		Result:      res,
		Definitions: lsp.Definitions(),
		References:  lsp.References(),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	h.logger.Debug("tool call done", "tool", req.Params.Name, "file", file, "outcome", res.Outcome)
	return mcp.NewToolResultText(string(body)), nil
}

// offset reads the cursor from line/column when a line is given, else from
// offset.
func (h *Handler) offset(ctx context.Context, req mcp.CallToolRequest, file string) (int, error) {
	if line := req.GetInt("line", 0); line > 0 {
		return h.finder.Offset(ctx, file, line, req.GetInt("column", 1))
	}
	offset := req.GetInt("offset", -1)
	if offset < 0 {
		return 0, fmt.Errorf("either line or offset is required")
	}
	return offset, nil
}
