// Package mcpserver exposes damascus generation and schema analysis as MCP
// tools over stdio.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

const serverInstructions = `damascus MCP server: turns OpenAPI 3.x documents into Python client packages.

Tools:
- inspect: reports the response-reachable component schemas, their dependency graph and the emission order.
- generate: renders the package (client __init__.py plus models/) and writes it to output_dir, or returns it inline with dry_run.

Documents may be given as a file path, an http(s) URL (with optional headers) or inline content.`

type server struct {
	logger *zap.Logger
}

// NewServer builds the MCP server with every tool registered.
func NewServer(logger *zap.Logger) *mcp.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &server{logger: logger}

	srv := mcp.NewServer(
		&mcp.Implementation{Name: "damascus", Version: Version},
		&mcp.ServerOptions{Instructions: serverInstructions},
	)
	s.register(srv)
	return srv
}

// Run serves over stdio and blocks until the client disconnects or ctx is
// cancelled.
func Run(ctx context.Context, logger *zap.Logger) error {
	return NewServer(logger).Run(ctx, &mcp.StdioTransport{})
}

func (s *server) register(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "inspect",
		Description: "Analyze an OpenAPI document without generating code. Returns the component schemas referenced by 200/201 JSON responses (roots), their transitive closure, the dependency edges between them and the dependency-first emission order. A circular dependency is reported as an error naming the cycle.",
	}, s.handleInspect)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "generate",
		Description: "Generate a Python client package from an OpenAPI document: one dataclass module per response-reachable schema under models/, and a requests-based client in __init__.py. Requires output_dir unless dry_run is set; dry_run returns file contents inline. py_version selects annotation syntax (default 3.13; below 3.10 uses Optional[T]).",
	}, s.handleGenerate)
}

var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

// sanitizeError strips absolute filesystem paths from error messages.
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
