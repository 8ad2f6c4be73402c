// Package responses synthesizes immutable dataclasses for operations whose
// 200 JSON body is an inline (or singly referenced) object. The synthesized
// types never reference generated models.
package responses

import (
	"strings"

	"github.com/kolah/damascus/internal/generrors"
	"github.com/kolah/damascus/internal/model"
	"github.com/kolah/damascus/internal/python"
	"go.uber.org/zap"
)

type Target struct {
	syntax python.Syntax
	logger *zap.Logger
}

func New(syntax python.Syntax, logger *zap.Logger) *Target {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Target{syntax: syntax, logger: logger}
}

func (t *Target) Name() string {
	return "responses"
}

// Type is a synthesized response dataclass.
type Type struct {
	OperationID string
	Name        string
	Fields      []python.Field
	Source      string
}

// Synthesize returns the response type for op, or nil when the operation
// does not qualify. A malformed response shape yields a
// *generrors.SynthesisError.
func (t *Target) Synthesize(op *model.Operation, components *model.Components) (*Type, error) {
	if op == nil || op.ID == "" {
		return nil, nil
	}
	resp := op.Response("200")
	if resp == nil {
		return nil, nil
	}
	content := resp.ContentFor("application/json")
	if content == nil {
		return nil, nil
	}
	if content.Schema == nil {
		return nil, &generrors.SynthesisError{OperationID: op.ID, Reason: "application/json content has no schema"}
	}

	schema := content.Schema
	if schema.Ref != "" {
		resolved, ok := components.Lookup(schema.RefName())
		if !ok {
			return nil, &generrors.SynthesisError{OperationID: op.ID, Reason: "unresolved reference " + schema.Ref}
		}
		schema = resolved
	}
	if schema.Type != model.TypeObject || len(schema.Properties) == 0 {
		return nil, nil
	}
	for _, p := range schema.Properties {
		if p.Schema == nil {
			return nil, &generrors.SynthesisError{OperationID: op.ID, Reason: "property " + p.Name + " has no schema"}
		}
	}

	typ := &Type{
		OperationID: op.ID,
		Name:        python.ResponseTypeName(op.ID),
		Fields:      python.Fields(schema, python.NewResolver(nil)),
	}
	typ.Source = t.render(typ, schema.Description)
	return typ, nil
}

// SynthesizeAll runs Synthesize over every operation, logging and skipping
// those that fail. The result is keyed by operation id.
func (t *Target) SynthesizeAll(ops []model.Operation, components *model.Components) map[string]*Type {
	types := make(map[string]*Type)
	for i := range ops {
		typ, err := t.Synthesize(&ops[i], components)
		if err != nil {
			t.logger.Warn("skipping response type", zap.String("operation", ops[i].ID), zap.Error(err))
			continue
		}
		if typ != nil {
			types[typ.OperationID] = typ
		}
	}
	return types
}

func (t *Target) decorator() string {
	if t.syntax.Modern {
		return "@dataclass(frozen=True, slots=True)"
	}
	return "@dataclass(frozen=True)"
}

func (t *Target) render(typ *Type, description string) string {
	if description == "" {
		description = "Response body of " + typ.OperationID + "."
	}
	class := python.Class{
		Name:        typ.Name,
		Decorator:   t.decorator(),
		Description: description,
		Fields:      typ.Fields,
	}
	var b strings.Builder
	class.Write(&b, t.syntax)
	return b.String()
}
