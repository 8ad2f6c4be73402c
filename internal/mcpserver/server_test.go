package mcpserver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const petsSpec = `openapi: 3.0.3
info:
  title: Pets
  version: "2.1"
paths:
  /pets/{id}:
    get:
      operationId: getPet
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Pet"
components:
  schemas:
    Pet:
      type: object
      required: [name]
      properties:
        name:
          type: string
        owner:
          $ref: "#/components/schemas/Owner"
    Owner:
      type: object
      properties:
        email:
          type: string
    Orphan:
      type: object
`

const loopSpec = `openapi: 3.1.0
info:
  title: Loop
  version: "1"
paths:
  /a:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/A"
components:
  schemas:
    A:
      type: object
      properties:
        self:
          $ref: "#/components/schemas/B"
    B:
      type: object
      properties:
        back:
          $ref: "#/components/schemas/A"
`

func newTestServer() *server {
	return &server{logger: zap.NewNop()}
}

func errorText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.True(t, result.IsError)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return text.Text
}

func TestSpecInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   specInput
		wantErr bool
	}{
		{name: "file", input: specInput{File: "a.yaml"}},
		{name: "url", input: specInput{URL: "https://example.com/a.yaml"}},
		{name: "content", input: specInput{Content: "openapi: 3.0.0"}},
		{name: "none", input: specInput{}, wantErr: true},
		{name: "two sources", input: specInput{File: "a.yaml", Content: "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.validate()
			if tt.wantErr {
				require.ErrorContains(t, err, "exactly one of")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	assert.Equal(t, "", sanitizeError(nil))
	assert.Equal(t, "open <path>: no such file or directory",
		sanitizeError(errors.New("open /home/dev/api/openapi.yaml: no such file or directory")))
	assert.Equal(t, "cycle: A -> B -> A", sanitizeError(errors.New("cycle: A -> B -> A")))
}

func TestHandleInspect(t *testing.T) {
	result, out, err := newTestServer().handleInspect(context.Background(), nil, inspectInput{Spec: specInput{Content: petsSpec}})
	require.NoError(t, err)
	require.Nil(t, result)

	assert.Equal(t, "Pets", out.Title)
	assert.Equal(t, "2.1", out.Version)
	assert.Equal(t, 3, out.Schemas)
	assert.Equal(t, 1, out.Operations)
	assert.Equal(t, []string{"Pet"}, out.Roots)
	assert.Equal(t, []string{"Pet", "Owner"}, out.Closure)
	assert.Equal(t, []string{"Owner", "Pet"}, out.Order)
	require.Len(t, out.Graph, 2)
	assert.Equal(t, "Pet", out.Graph[0].Schema)
	assert.Equal(t, []string{"Owner"}, out.Graph[0].DependsOn)
}

func TestHandleInspectErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    inspectInput
		contains string
	}{
		{name: "no source", input: inspectInput{}, contains: "exactly one of"},
		{name: "cycle", input: inspectInput{Spec: specInput{Content: loopSpec}}, contains: "cycle detected: A -> B -> A"},
		{name: "missing file", input: inspectInput{Spec: specInput{File: "/tmp/damascus-missing/openapi.yaml"}}, contains: "<path>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _, err := newTestServer().handleInspect(context.Background(), nil, tt.input)
			require.NoError(t, err)
			assert.Contains(t, errorText(t, result), tt.contains)
		})
	}
}

func TestHandleGenerateDryRun(t *testing.T) {
	result, out, err := newTestServer().handleGenerate(context.Background(), nil, generateInput{
		Spec:   specInput{Content: petsSpec},
		DryRun: true,
	})
	require.NoError(t, err)
	require.Nil(t, result)

	assert.True(t, out.Success)
	assert.Equal(t, 4, out.FileCount)
	assert.ElementsMatch(t, []string{"Owner", "Pet"}, out.Models)

	files := make(map[string]generatedFile, len(out.Files))
	for _, f := range out.Files {
		files[f.Name] = f
	}
	require.Contains(t, files, "__init__.py")
	require.Contains(t, files, "models/pet.py")
	assert.Contains(t, files["__init__.py"].Content, "class PetsClient:")
	assert.Contains(t, files["models/pet.py"].Content, "class Pet:")
	assert.Equal(t, len(files["models/pet.py"].Content), files["models/pet.py"].Size)
}

func TestHandleGenerateWritesFiles(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "openapi.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(petsSpec), 0644))
	out := filepath.Join(dir, "pets")

	result, output, err := newTestServer().handleGenerate(context.Background(), nil, generateInput{
		Spec:      specInput{File: specPath},
		OutputDir: out,
		PyVersion: "3.9",
		NoAsync:   true,
	})
	require.NoError(t, err)
	require.Nil(t, result)
	assert.True(t, output.Success)
	for _, f := range output.Files {
		assert.Empty(t, f.Content)
	}

	client, err := os.ReadFile(filepath.Join(out, "__init__.py"))
	require.NoError(t, err)
	assert.NotContains(t, string(client), "import asyncio")
	assert.FileExists(t, filepath.Join(out, "models", "owner.py"))
	assert.NoFileExists(t, filepath.Join(out, "models", "orphan.py"))
}

func TestHandleGenerateErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    generateInput
		contains string
	}{
		{
			name:     "output dir required",
			input:    generateInput{Spec: specInput{Content: petsSpec}},
			contains: "output_dir is required",
		},
		{
			name:     "bad python version",
			input:    generateInput{Spec: specInput{Content: petsSpec}, DryRun: true, PyVersion: "snake"},
			contains: "invalid python version",
		},
		{
			name:     "cycle",
			input:    generateInput{Spec: specInput{Content: loopSpec}, DryRun: true},
			contains: "cycle detected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _, err := newTestServer().handleGenerate(context.Background(), nil, tt.input)
			require.NoError(t, err)
			assert.Contains(t, errorText(t, result), tt.contains)
		})
	}
}

func startTestSession(t *testing.T) *mcp.ClientSession {
	t.Helper()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() {
		done <- NewServer(nil).Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-done
	})

	return session
}

func unmarshalStructured(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.NotNil(t, result.StructuredContent)
	data, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestIntegrationListTools(t *testing.T) {
	session := startTestSession(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
	assert.ElementsMatch(t, []string{"inspect", "generate"}, names)
}

func TestIntegrationInspect(t *testing.T) {
	session := startTestSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "inspect",
		Arguments: map[string]any{"spec": map[string]any{"content": petsSpec}},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	m := unmarshalStructured(t, result)
	assert.Equal(t, "Pets", m["title"])
	assert.Equal(t, []any{"Owner", "Pet"}, m["order"])
}

func TestIntegrationGenerateError(t *testing.T) {
	session := startTestSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "generate",
		Arguments: map[string]any{"spec": map[string]any{"content": petsSpec}},
	})
	require.NoError(t, err, "protocol call succeeds even when the tool fails")
	assert.True(t, result.IsError)
}
