// Package mcpbridge exposes the tool registry over the Model Context
// Protocol, so MCP clients (IDEs, agent frameworks) reach the same tools the
// JSON-RPC dispatcher serves. The registry stays the single source of truth;
// the bridge only adapts its handlers to the MCP SDK.
package mcpbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/opaline/shopassist/pkg/registry"
)

// Bridge adapts a registry to an MCP server.
type Bridge struct {
	server *mcp.Server
	log    *slog.Logger
}

// New builds an MCP server carrying every tool in reg.
func New(name, version string, reg *registry.Registry, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}

	server := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)
	for _, desc := range reg.List() {
		tool, _ := reg.Get(desc.Name)
		server.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: desc.InputSchema,
		}, adaptHandler(tool, log))
	}
	return &Bridge{server: server, log: log}
}

// adaptHandler wraps a registry handler in the MCP calling convention.
// Validation failures surface as tool errors with their message; anything
// else is redacted, matching the dispatcher's taxonomy.
func adaptHandler(tool registry.Tool, log *slog.Logger) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.Params.Arguments
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}

		result, err := tool.Handler(ctx, args)
		if err != nil {
			var paramErr *registry.ParamError
			if errors.As(err, &paramErr) {
				return errorResult(paramErr.Error()), nil
			}
			log.Error("tool call failed", "tool", tool.Name, "error", err)
			return errorResult("internal error"), nil
		}

		payload, err := json.Marshal(result)
		if err != nil {
			log.Error("encoding tool result failed", "tool", tool.Name, "error", err)
			return errorResult("internal error"), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		}, nil
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(`{"error": %q}`, msg)},
		},
		IsError: true,
	}
}

// Server returns the underlying MCP server.
func (b *Bridge) Server() *mcp.Server {
	return b.server
}

// HTTPHandler returns a streamable HTTP handler for the MCP server.
func (b *Bridge) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return b.server }, nil)
}

// ServeStdio runs the MCP server over stdin/stdout until ctx is cancelled.
func (b *Bridge) ServeStdio(ctx context.Context) error {
	return b.server.Run(ctx, &mcp.StdioTransport{})
}
