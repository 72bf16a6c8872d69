// Package server exposes the tool dispatcher over MCP and plain HTTP.
//
// Over MCP an unknown tool name never reaches the dispatcher: the protocol
// layer answers tools/call with a JSON-RPC invalid params error. The
// "Unknown tool: <name>" text result is produced only by the dispatcher,
// which the POST /v1/tools/{name} route and in-process callers reach.
package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/duckmesh/eurostat-mcp/internal/tools"
)

type ToolDispatcher interface {
	Definitions() []tools.Definition
	Dispatch(ctx context.Context, name string, args map[string]any) tools.Response
}

// NewMCPServer registers every dispatcher tool on a new MCP server. Tool
// failures are reported as results with isError set, never as protocol errors.
func NewMCPServer(dispatcher ToolDispatcher, name, version string) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(name, version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	for _, definition := range dispatcher.Definitions() {
		s.AddTool(
			mcp.NewToolWithRawSchema(definition.Name, definition.Description, definition.InputSchema),
			toolHandler(dispatcher, definition.Name),
		)
	}
	return s
}

func toolHandler(dispatcher ToolDispatcher, name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		response := dispatcher.Dispatch(ctx, name, request.GetArguments())
		if response.IsError {
			return mcp.NewToolResultError(response.Text), nil
		}
		return mcp.NewToolResultText(response.Text), nil
	}
}
