// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package mcpserver exposes find-usages as MCP tools over stdio.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names.
const (
	ToolFindReferences      = "find_references"
	ToolFindImplementations = "find_implementations"
)

// New creates the MCP server and registers the find-usages tools backed
// by handler.
func New(handler *Handler, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"go-finder",
		version,
		server.WithToolCapabilities(false),
	)

	s.AddTool(positionTool(ToolFindReferences,
		"Find every reference to the Go symbol at a position, together with its definitions."),
		handler.HandleReferences)
	s.AddTool(positionTool(ToolFindImplementations,
		"Find the definitions of the Go symbol at a position."),
		handler.HandleImplementations)

	return s
}

func positionTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Path of the file, absolute or relative to the workspace root"),
		),
		mcp.WithNumber("line",
			mcp.Description("1-based line of the cursor"),
		),
		mcp.WithNumber("column",
			mcp.Description("1-based byte column of the cursor"),
		),
		mcp.WithNumber("offset",
			mcp.Description("0-based byte offset of the cursor; used when line is absent"),
		),
	)
}
