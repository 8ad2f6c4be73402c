package mcpserver

import (
	"context"
	"time"

	"github.com/kolah/damascus/internal/schema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const fetchTimeout = 30 * time.Second

type inspectInput struct {
	Spec specInput `json:"spec" jsonschema:"The OpenAPI document to analyze"`
}

type inspectOutput struct {
	Title      string        `json:"title"`
	Version    string        `json:"version"`
	Schemas    int           `json:"schema_count"`
	Operations int           `json:"operation_count"`
	Roots      []string      `json:"roots"`
	Closure    []string      `json:"closure"`
	Graph      []schema.Edge `json:"graph"`
	Order      []string      `json:"order"`
}

func (s *server) handleInspect(ctx context.Context, _ *mcp.CallToolRequest, input inspectInput) (*mcp.CallToolResult, inspectOutput, error) {
	spec, err := input.Spec.resolve(ctx, fetchTimeout)
	if err != nil {
		return errResult(err), inspectOutput{}, nil
	}

	analysis, err := schema.Analyze(spec.Components(), schema.ResponseRoots(spec.Paths))
	if err != nil {
		return errResult(err), inspectOutput{}, nil
	}

	return nil, inspectOutput{
		Title:      spec.Info.Title,
		Version:    spec.Info.Version,
		Schemas:    len(spec.Schemas),
		Operations: len(spec.Operations),
		Roots:      nonNil(analysis.Roots),
		Closure:    nonNil(analysis.Closure),
		Graph:      nonNil(analysis.Graph),
		Order:      nonNil(analysis.Order),
	}, nil
}

// nonNil keeps empty lists as [] in structured output.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
