package responses

import (
	"errors"
	"testing"

	"github.com/kolah/damascus/internal/generrors"
	"github.com/kolah/damascus/internal/model"
	"github.com/kolah/damascus/internal/python"
	"github.com/stretchr/testify/require"
)

func jsonResponse(code string, s *model.Schema) model.Response {
	return model.Response{StatusCode: code, Content: []model.MediaTypeContent{{MediaType: "application/json", Schema: s}}}
}

var statusSchema = &model.Schema{
	Type:     model.TypeObject,
	Required: []string{"status"},
	Properties: []model.Property{
		{Name: "uptimeSeconds", Schema: &model.Schema{Type: model.TypeNumber}},
		{Name: "status", Schema: &model.Schema{Type: model.TypeString}},
		{Name: "owner", Schema: &model.Schema{Ref: "#/components/schemas/User"}},
	},
}

func TestSynthesizeInlineObject(t *testing.T) {
	op := &model.Operation{ID: "get_status_api_v1_status_get", Responses: []model.Response{jsonResponse("200", statusSchema)}}

	typ, err := New(python.Syntax{Modern: true}, nil).Synthesize(op, model.NewComponents(nil))
	require.NoError(t, err)
	require.NotNil(t, typ)
	require.Equal(t, "GetStatusResponse", typ.Name)
	require.Equal(t, `@dataclass(frozen=True, slots=True)
class GetStatusResponse:
    """Response body of get_status_api_v1_status_get."""

    status: str
    uptime_seconds: float | None = None
    owner: Dict[str, Any] | None = None
`, typ.Source)
}

func TestSynthesizeLegacySyntax(t *testing.T) {
	op := &model.Operation{ID: "getStatus", Responses: []model.Response{jsonResponse("200", statusSchema)}}

	typ, err := New(python.Syntax{Modern: false}, nil).Synthesize(op, model.NewComponents(nil))
	require.NoError(t, err)
	require.Contains(t, typ.Source, "@dataclass(frozen=True)\nclass GetStatusResponse:")
	require.Contains(t, typ.Source, "    uptime_seconds: Optional[float] = None\n")
}

func TestSynthesizeFollowsOneReference(t *testing.T) {
	components := model.NewComponents([]model.Schema{{
		Name:        "Health",
		Type:        model.TypeObject,
		Description: "Service health",
		Properties: []model.Property{
			{Name: "ok", Schema: &model.Schema{Type: model.TypeBoolean, Default: true, HasDefault: true}},
		},
	}})
	op := &model.Operation{ID: "health", Responses: []model.Response{jsonResponse("200", &model.Schema{Ref: "#/components/schemas/Health"})}}

	typ, err := New(python.Syntax{Modern: true}, nil).Synthesize(op, components)
	require.NoError(t, err)
	require.Equal(t, `@dataclass(frozen=True, slots=True)
class HealthResponse:
    """Service health"""

    ok: bool | None = True
`, typ.Source)
}

func TestSynthesizeSkips(t *testing.T) {
	tests := []struct {
		name string
		op   *model.Operation
	}{
		{"nil operation", nil},
		{"no operation id", &model.Operation{Responses: []model.Response{jsonResponse("200", statusSchema)}}},
		{"no 200", &model.Operation{ID: "create", Responses: []model.Response{jsonResponse("201", statusSchema)}}},
		{"not json", &model.Operation{ID: "text", Responses: []model.Response{{StatusCode: "200", Content: []model.MediaTypeContent{{MediaType: "text/plain", Schema: statusSchema}}}}}},
		{"array body", &model.Operation{ID: "list", Responses: []model.Response{jsonResponse("200", &model.Schema{Type: model.TypeArray, Items: statusSchema})}}},
		{"object without properties", &model.Operation{ID: "blob", Responses: []model.Response{jsonResponse("200", &model.Schema{Type: model.TypeObject})}}},
	}

	target := New(python.Syntax{Modern: true}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := target.Synthesize(tt.op, model.NewComponents(nil))
			require.NoError(t, err)
			require.Nil(t, typ)
		})
	}
}

func TestSynthesizeMalformed(t *testing.T) {
	tests := []struct {
		name string
		op   *model.Operation
	}{
		{"missing schema", &model.Operation{ID: "a", Responses: []model.Response{jsonResponse("200", nil)}}},
		{"dangling reference", &model.Operation{ID: "b", Responses: []model.Response{jsonResponse("200", &model.Schema{Ref: "#/components/schemas/Nope"})}}},
		{"property without schema", &model.Operation{ID: "c", Responses: []model.Response{jsonResponse("200", &model.Schema{
			Type:       model.TypeObject,
			Properties: []model.Property{{Name: "x"}},
		})}}},
	}

	target := New(python.Syntax{Modern: true}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := target.Synthesize(tt.op, model.NewComponents(nil))
			require.Nil(t, typ)
			require.Error(t, err)
			require.True(t, errors.Is(err, generrors.ErrResponseSynthesis))
		})
	}
}

func TestSynthesizeAllContinuesPastFailures(t *testing.T) {
	ops := []model.Operation{
		{ID: "broken", Responses: []model.Response{jsonResponse("200", nil)}},
		{ID: "getStatus", Responses: []model.Response{jsonResponse("200", statusSchema)}},
	}

	types := New(python.Syntax{Modern: true}, nil).SynthesizeAll(ops, model.NewComponents(nil))
	require.Len(t, types, 1)
	require.Equal(t, "GetStatusResponse", types["getStatus"].Name)
}
