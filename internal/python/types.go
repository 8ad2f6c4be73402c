package python

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kolah/damascus/internal/generrors"
	"github.com/kolah/damascus/internal/model"
)

// TypeExpr is a Python type annotation. The set of implementations is closed.
type TypeExpr interface {
	render(s Syntax) string
	collect(imports *Imports)
}

// Syntax selects how annotations are spelled.
type Syntax struct {
	// Modern selects "T | None" over "Optional[T]".
	Modern bool
	// Qualifier prefixes model names, e.g. "models." inside the client.
	Qualifier string
}

// SyntaxFor returns the spelling for the target Python version.
func SyntaxFor(v Version) Syntax {
	return Syntax{Modern: v.Modern()}
}

// Qualified returns a copy of s that prefixes model names with q.
func (s Syntax) Qualified(q string) Syntax {
	s.Qualifier = q
	return s
}

// AnyType is the dynamic fallback for under-specified schemas and unions.
type AnyType struct{}

// NamedType is a generated model.
type NamedType struct {
	Name string
}

// MapType is Dict[str, Any], used for free-form objects and unresolved refs.
type MapType struct{}

type ListType struct {
	Elem TypeExpr
}

// PrimitiveType is one of int, float, bool or str.
type PrimitiveType struct {
	Name string
}

var (
	Int   = PrimitiveType{Name: "int"}
	Float = PrimitiveType{Name: "float"}
	Bool  = PrimitiveType{Name: "bool"}
	Str   = PrimitiveType{Name: "str"}
)

func (AnyType) render(Syntax) string {
	return "Any"
}

func (t NamedType) render(s Syntax) string {
	return s.Qualifier + t.Name
}

func (MapType) render(Syntax) string {
	return "Dict[str, Any]"
}

func (t ListType) render(s Syntax) string {
	return "List[" + t.Elem.render(s) + "]"
}

func (t PrimitiveType) render(Syntax) string {
	return t.Name
}

func (AnyType) collect(i *Imports) {
	i.typing("Any")
}

func (t NamedType) collect(i *Imports) {
	i.model(t.Name)
}

func (MapType) collect(i *Imports) {
	i.typing("Dict", "Any")
}

func (t ListType) collect(i *Imports) {
	i.typing("List")
	t.Elem.collect(i)
}

func (PrimitiveType) collect(*Imports) {}

// Render spells t for the given syntax.
func Render(t TypeExpr, s Syntax) string {
	return t.render(s)
}

// RenderNullable spells t as an optional annotation.
func RenderNullable(t TypeExpr, s Syntax) string {
	return Nullable(t.render(s), s.Modern)
}

// Nullable wraps an already rendered annotation.
func Nullable(annotation string, modern bool) string {
	if modern {
		return annotation + " | None"
	}
	return "Optional[" + annotation + "]"
}

// References reports whether t mentions the named model.
func References(t TypeExpr, name string) bool {
	var imports Imports
	t.collect(&imports)
	return slices.Contains(imports.models, name)
}

// Imports accumulates what a source unit needs from typing and from sibling
// model modules.
type Imports struct {
	typingNames []string
	models      []string
}

// Add records the imports t needs. Nullable fields additionally need
// Optional under legacy syntax.
func (i *Imports) Add(t TypeExpr, nullable bool, s Syntax) {
	t.collect(i)
	if nullable && !s.Modern {
		i.typing("Optional")
	}
}

func (i *Imports) typing(names ...string) {
	for _, n := range names {
		if !slices.Contains(i.typingNames, n) {
			i.typingNames = append(i.typingNames, n)
		}
	}
}

func (i *Imports) model(name string) {
	if !slices.Contains(i.models, name) {
		i.models = append(i.models, name)
	}
}

// Typing returns the sorted names to import from typing.
func (i *Imports) Typing() []string {
	out := slices.Clone(i.typingNames)
	slices.Sort(out)
	return out
}

// Models returns the sorted model names referenced, excluding self.
func (i *Imports) Models(self string) []string {
	var out []string
	for _, m := range i.models {
		if m != self {
			out = append(out, m)
		}
	}
	slices.Sort(out)
	return out
}

// TypingLine renders "from typing import ..." or "" when nothing is needed.
func (i *Imports) TypingLine() string {
	names := i.Typing()
	if len(names) == 0 {
		return ""
	}
	return "from typing import " + strings.Join(names, ", ")
}

// Resolver maps schema nodes to annotations. A nil mapping makes every $ref
// resolve to MapType, which is how synthesized response types stay
// self-contained.
type Resolver struct {
	mapping *ModelMapping
}

func NewResolver(mapping *ModelMapping) *Resolver {
	return &Resolver{mapping: mapping}
}

// Resolve is pure: it never records names or fails.
func (r *Resolver) Resolve(node *model.Schema) TypeExpr {
	return ResolveType(node, r.mapping)
}

// ResolveType maps a schema node to its annotation.
func ResolveType(node *model.Schema, mapping *ModelMapping) TypeExpr {
	if node.IsEmpty() {
		return AnyType{}
	}
	if node.Ref != "" {
		if name, ok := mapping.Lookup(node.RefName()); ok {
			return NamedType{Name: name}
		}
		return MapType{}
	}
	if len(node.AnyOf) > 0 {
		return AnyType{}
	}

	switch node.Type {
	case model.TypeArray:
		return ListType{Elem: ResolveType(node.Items, mapping)}
	case model.TypeInteger:
		return Int
	case model.TypeNumber:
		return Float
	case model.TypeBoolean:
		return Bool
	case model.TypeString:
		return Str
	case model.TypeObject:
		return MapType{}
	default:
		return AnyType{}
	}
}

// Degradation explains why ResolveType fell back to a generic type for node,
// or returns nil when the node resolved as declared. The error matches
// generrors.ErrUnresolvedReference or generrors.ErrUnsupportedCombinator.
func Degradation(node *model.Schema, mapping *ModelMapping) error {
	if node.IsEmpty() {
		return nil
	}
	if node.Ref != "" {
		if _, ok := mapping.Lookup(node.RefName()); ok {
			return nil
		}
		return fmt.Errorf("%w: %s", generrors.ErrUnresolvedReference, node.Ref)
	}
	if len(node.AnyOf) > 0 {
		return fmt.Errorf("%w: anyOf with %d members", generrors.ErrUnsupportedCombinator, len(node.AnyOf))
	}
	if node.Type == model.TypeArray {
		return Degradation(node.Items, mapping)
	}
	return nil
}
