package mcpserver

import (
	"context"
	"fmt"

	"github.com/kolah/damascus/internal/codegen"
	"github.com/kolah/damascus/internal/config"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type generateInput struct {
	Spec      specInput `json:"spec"                 jsonschema:"The OpenAPI document to generate from"`
	OutputDir string    `json:"output_dir,omitempty" jsonschema:"Directory to write the package to (required unless dry_run)"`
	PyVersion string    `json:"py_version,omitempty" jsonschema:"Target Python version (default: 3.13)"`
	NoAsync   bool      `json:"no_async,omitempty"   jsonschema:"Omit the asyncio method wrappers"`
	DryRun    bool      `json:"dry_run,omitempty"    jsonschema:"Return file contents instead of writing them"`
}

type generatedFile struct {
	Name    string `json:"name"`
	Size    int    `json:"size"`
	Content string `json:"content,omitempty"`
}

type generateOutput struct {
	Success   bool            `json:"success"`
	OutputDir string          `json:"output_dir,omitempty"`
	FileCount int             `json:"file_count"`
	Files     []generatedFile `json:"files"`
	Models    []string        `json:"models"`
}

func (s *server) handleGenerate(ctx context.Context, _ *mcp.CallToolRequest, input generateInput) (*mcp.CallToolResult, generateOutput, error) {
	if input.OutputDir == "" && !input.DryRun {
		return errResult(fmt.Errorf("output_dir is required")), generateOutput{}, nil
	}

	source := input.Spec.source()
	if source == "" {
		source = inlineSource
	}
	cfg := &config.Config{
		Spec:      source,
		OutputDir: input.OutputDir,
		Headers:   input.Spec.Headers,
		Timeout:   fetchTimeout,
		DryRun:    input.DryRun,
		Python:    config.PythonConfig{Version: input.PyVersion, Async: !input.NoAsync},
	}
	if err := cfg.Validate(); err != nil {
		return errResult(err), generateOutput{}, nil
	}

	gen, err := codegen.New(cfg, s.logger)
	if err != nil {
		return errResult(err), generateOutput{}, nil
	}

	spec, err := input.Spec.resolve(ctx, cfg.Timeout)
	if err != nil {
		return errResult(err), generateOutput{}, nil
	}

	result, err := gen.Generate(spec)
	if err != nil {
		return errResult(err), generateOutput{}, nil
	}

	if !input.DryRun {
		if _, err := codegen.WriteFiles(input.OutputDir, result.Files); err != nil {
			return errResult(fmt.Errorf("writing generated files: %w", err)), generateOutput{}, nil
		}
	}

	output := generateOutput{
		Success:   true,
		OutputDir: input.OutputDir,
		FileCount: len(result.Files),
		Files:     make([]generatedFile, 0, len(result.Files)),
		Models:    nonNil(result.Mapping.TypeNames()),
	}
	for _, f := range result.Files {
		file := generatedFile{Name: f.Filename, Size: len(f.Content)}
		if input.DryRun {
			file.Content = f.Content
		}
		output.Files = append(output.Files, file)
	}

	return nil, output, nil
}
