package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersSpec = `openapi: 3.0.3
info:
  title: Orders
  version: "1.0"
paths:
  /orders/{id}:
    get:
      operationId: getOrder
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: integer
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Order"
components:
  schemas:
    Order:
      type: object
      required: [id]
      properties:
        id:
          type: integer
        lines:
          type: array
          items:
            $ref: "#/components/schemas/Line"
    Line:
      type: object
      properties:
        sku:
          type: string
`

const selfCycleSpec = `openapi: 3.0.3
info:
  title: Cycle
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
        b:
          $ref: "#/components/schemas/B"
    B:
      type: object
      properties:
        a:
          $ref: "#/components/schemas/A"
`

// workspace writes spec into a fresh working directory so no damascus.yaml
// from the caller leaks into the run.
func workspace(t *testing.T, spec string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "openapi.yaml"), []byte(spec), 0644))

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
	return dir
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := RootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestGenerateCommandWritesPackage(t *testing.T) {
	dir := workspace(t, ordersSpec)

	_, stderr, err := execute(t, "generate", "-s", "openapi.yaml", "-o", "orders", "--py-version", "3.9")
	require.NoError(t, err)
	assert.Contains(t, stderr, "written")

	for _, name := range []string{"__init__.py", "models/__init__.py", "models/order.py", "models/line.py"} {
		assert.FileExists(t, filepath.Join(dir, "orders", filepath.FromSlash(name)))
	}

	order, err := os.ReadFile(filepath.Join(dir, "orders", "models", "order.py"))
	require.NoError(t, err)
	assert.Contains(t, string(order), "from .line import Line\n")
	assert.Contains(t, string(order), "    lines: Optional[List[Line]] = None\n")
}

func TestGenerateCommandDryRun(t *testing.T) {
	dir := workspace(t, ordersSpec)

	stdout, _, err := execute(t, "generate", "-s", "openapi.yaml", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "# __init__.py\n")
	assert.Contains(t, stdout, "class OrdersClient:")
	assert.NoDirExists(t, filepath.Join(dir, "models"))
}

func TestGenerateCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		args     []string
		contains string
	}{
		{
			name:     "missing output dir",
			spec:     ordersSpec,
			args:     []string{"generate", "-s", "openapi.yaml"},
			contains: "output directory is required",
		},
		{
			name:     "missing spec",
			spec:     ordersSpec,
			args:     []string{"generate", "-o", "out"},
			contains: "spec file is required",
		},
		{
			name:     "unreadable spec",
			spec:     ordersSpec,
			args:     []string{"generate", "-s", "nope.yaml", "-o", "out"},
			contains: "reading spec file",
		},
		{
			name:     "cycle",
			spec:     selfCycleSpec,
			args:     []string{"generate", "-s", "openapi.yaml", "-o", "out"},
			contains: "cycle detected: A -> B -> A",
		},
		{
			name:     "bad log level",
			spec:     ordersSpec,
			args:     []string{"generate", "-s", "openapi.yaml", "-o", "out", "--log-level", "chatty"},
			contains: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workspace(t, tt.spec)
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestGraphCommand(t *testing.T) {
	workspace(t, ordersSpec)

	stdout, _, err := execute(t, "graph", "-s", "openapi.yaml")
	require.NoError(t, err)

	var analysis struct {
		Roots   []string `json:"roots"`
		Closure []string `json:"closure"`
		Graph   []struct {
			Schema    string   `json:"schema"`
			DependsOn []string `json:"depends_on"`
		} `json:"graph"`
		Order []string `json:"order"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &analysis))

	assert.Equal(t, []string{"Order"}, analysis.Roots)
	assert.Equal(t, []string{"Order", "Line"}, analysis.Closure)
	assert.Equal(t, []string{"Line", "Order"}, analysis.Order)
	require.Len(t, analysis.Graph, 2)
	assert.Equal(t, []string{"Line"}, analysis.Graph[0].DependsOn)
}

func TestRootCommandListsSubcommands(t *testing.T) {
	stdout, _, err := execute(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"generate", "graph", "mcp"} {
		assert.Contains(t, stdout, name)
	}
}
