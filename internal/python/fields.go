package python

import (
	"strings"

	"github.com/kolah/damascus/internal/model"
)

// Field is one dataclass attribute.
type Field struct {
	// Name is the Python attribute name; Key is the original property name.
	Name        string
	Key         string
	Type        TypeExpr
	Required    bool
	Default     string
	Description string
}

// Fields builds the attributes of an object schema: required properties
// first, then optional ones, each group in declaration order. Optional
// fields default to their declared default or None.
func Fields(node *model.Schema, resolver *Resolver) []Field {
	if node == nil {
		return nil
	}
	var required, optional []Field
	for _, p := range node.Properties {
		f := Field{
			Name: FieldName(p.Name),
			Key:  p.Name,
			Type: resolver.Resolve(p.Schema),
		}
		if p.Schema != nil {
			f.Description = p.Schema.Description
		}
		if node.IsRequired(p.Name) {
			f.Required = true
			required = append(required, f)
			continue
		}
		f.Default = noneLiteral
		if lit, ok := DefaultLiteral(p.Schema); ok {
			f.Default = lit
		}
		optional = append(optional, f)
	}
	return append(required, optional...)
}

// Annotation spells the field's type, nullable when optional. A field whose
// type mentions self is quoted as a forward reference.
func (f Field) Annotation(s Syntax, self string) string {
	annotation := Render(f.Type, s)
	if !f.Required {
		annotation = Nullable(annotation, s.Modern)
	}
	if self != "" && References(f.Type, self) {
		return `"` + annotation + `"`
	}
	return annotation
}

// Class describes a dataclass to render.
type Class struct {
	Name        string
	Decorator   string
	Description string
	Fields      []Field
}

// Write renders the class into b. A class without fields gets "pass".
func (c Class) Write(b *strings.Builder, s Syntax) {
	b.WriteString(c.Decorator + "\n")
	b.WriteString("class " + c.Name + ":\n")
	if c.Description != "" {
		b.WriteString(Docstring(c.Description, "    ") + "\n")
		if len(c.Fields) > 0 {
			b.WriteString("\n")
		}
	}
	if len(c.Fields) == 0 {
		if c.Description == "" {
			b.WriteString("    pass\n")
		}
		return
	}
	for _, f := range c.Fields {
		if f.Description != "" {
			b.WriteString(Comment(f.Description, "    ") + "\n")
		}
		b.WriteString("    " + f.Name + ": " + f.Annotation(s, c.Name))
		if !f.Required {
			b.WriteString(" = " + f.Default)
		}
		b.WriteString("\n")
	}
	if keys := c.renamedKeys(); len(keys) > 0 {
		b.WriteString("\n    " + KeyMapAttr + " = {" + strings.Join(keys, ", ") + "}\n")
	}
}

// KeyMapAttr names the class attribute mapping JSON keys to attribute names
// for properties the client's snake_case fallback would not find.
const KeyMapAttr = "_json_keys"

func (c Class) renamedKeys() []string {
	var pairs []string
	for _, f := range c.Fields {
		if f.Key == "" {
			continue
		}
		if snake := SnakeCase(f.Key); f.Name == snake || f.Name == snake+"_" {
			continue
		}
		pairs = append(pairs, String(f.Key)+": "+String(f.Name))
	}
	return pairs
}

// CollectImports records the typing and model imports the fields need.
func (c Class) CollectImports(imports *Imports, s Syntax) {
	for _, f := range c.Fields {
		imports.Add(f.Type, !f.Required, s)
	}
}
