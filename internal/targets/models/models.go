package models

import (
	"fmt"
	"path"
	"strings"

	"github.com/kolah/damascus/internal/generrors"
	"github.com/kolah/damascus/internal/model"
	"github.com/kolah/damascus/internal/python"
	"go.uber.org/zap"
)

// Dir is the package directory holding generated models.
const Dir = "models"

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
	return "models"
}

// File is one generated model module.
type File struct {
	Schema   string
	TypeName string
	Module   string
	Content  string
}

// Filename is the path of the module relative to the output root.
func (f File) Filename() string {
	return path.Join(Dir, f.Module+".py")
}

type Result struct {
	Files   []File
	Index   string
	Mapping *python.ModelMapping
}

// IndexFilename is the path of the re-export module relative to the output
// root.
func IndexFilename() string {
	return path.Join(Dir, "__init__.py")
}

// Generate emits one dataclass per schema in order. Each schema is entered
// into the mapping before its fields are resolved, so later schemas can
// reference it by name.
func (t *Target) Generate(components *model.Components, order []string) (*Result, error) {
	result := &Result{Mapping: python.NewModelMapping()}

	for _, name := range order {
		node, ok := components.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: schema %q is not a component", generrors.ErrGeneration, name)
		}

		typeName := python.TypeName(name)
		if !result.Mapping.Set(name, typeName) {
			t.logger.Warn("type name produced by more than one schema",
				zap.String("schema", name),
				zap.String("type", typeName))
		}

		module, renamed := result.Mapping.AssignModule(typeName)
		if renamed {
			t.logger.Warn("module name produced by more than one type",
				zap.String("schema", name),
				zap.String("type", typeName),
				zap.String("module", module))
		}

		for _, p := range node.Properties {
			if err := python.Degradation(p.Schema, result.Mapping); err != nil {
				t.logger.Debug("field type degraded",
					zap.String("schema", name),
					zap.String("property", p.Name),
					zap.Error(err))
			}
		}

		class := python.Class{
			Name:        typeName,
			Decorator:   "@dataclass",
			Description: node.Description,
			Fields:      python.Fields(node, python.NewResolver(result.Mapping)),
		}
		result.Files = append(result.Files, File{
			Schema:   name,
			TypeName: typeName,
			Module:   module,
			Content:  t.renderModule(name, class, result.Mapping),
		})
	}

	result.Index = renderIndex(result.Mapping)
	return result, nil
}

func (t *Target) renderModule(schemaName string, class python.Class, mapping *python.ModelMapping) string {
	var imports python.Imports
	class.CollectImports(&imports, t.syntax)

	var b strings.Builder
	b.WriteString(python.Docstring(fmt.Sprintf("Model for the %s schema.", schemaName), "") + "\n\n")
	b.WriteString("from dataclasses import dataclass\n")
	if line := imports.TypingLine(); line != "" {
		b.WriteString(line + "\n")
	}
	if deps := imports.Models(class.Name); len(deps) > 0 {
		b.WriteString("\n")
		for _, dep := range deps {
			fmt.Fprintf(&b, "from .%s import %s\n", mapping.Module(dep), dep)
		}
	}
	b.WriteString("\n\n")
	class.Write(&b, t.syntax)
	return b.String()
}

func renderIndex(mapping *python.ModelMapping) string {
	names := mapping.TypeNames()

	var b strings.Builder
	b.WriteString(python.Docstring("Generated models.", "") + "\n")
	if len(names) > 0 {
		b.WriteString("\n")
	}
	for _, name := range names {
		fmt.Fprintf(&b, "from .%s import %s\n", mapping.Module(name), name)
	}
	b.WriteString("\n__all__ = " + python.StringList(names) + "\n")
	return b.String()
}
