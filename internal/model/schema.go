package model

import "strings"

// Schema is a JSON-Schema-like node. Reference proxies carry only Ref and are
// never expanded inline, so a circular document stays finite.
type Schema struct {
	Name        string
	Description string
	Type        SchemaType

	// Default is the decoded default value; HasDefault distinguishes an
	// explicit null default from an absent one.
	Default    any
	HasDefault bool

	Properties []Property
	Required   []string

	Items                *Schema
	AdditionalProperties *Schema

	// Combinators. Any anyOf resolves to Any; allOf and oneOf are walked for
	// references only.
	AllOf []*Schema
	OneOf []*Schema
	AnyOf []*Schema

	Ref string
}

type SchemaType string

const (
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
	TypeObject  SchemaType = "object"
	TypeNull    SchemaType = "null"
)

type Property struct {
	Name   string
	Schema *Schema
}

// IsEmpty reports whether the node carries nothing a resolver can use.
func (s *Schema) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.Type == "" && s.Ref == "" && len(s.Properties) == 0 && s.Items == nil &&
		s.AdditionalProperties == nil && len(s.AllOf) == 0 && len(s.OneOf) == 0 &&
		len(s.AnyOf) == 0 && !s.HasDefault && s.Description == ""
}

// IsRequired reports whether the named property is in the required set.
func (s *Schema) IsRequired(name string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// RefName returns the last path segment of the $ref, or "" when there is none.
func (s *Schema) RefName() string {
	if s == nil {
		return ""
	}
	return RefName(s.Ref)
}

// RefName extracts the schema name from a $ref pointer such as
// "#/components/schemas/User".
func RefName(ref string) string {
	if ref == "" {
		return ""
	}
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// Components is the named schema registry in document order.
type Components struct {
	names  []string
	byName map[string]*Schema
}

func NewComponents(schemas []Schema) *Components {
	c := &Components{byName: make(map[string]*Schema, len(schemas))}
	for i := range schemas {
		name := schemas[i].Name
		if _, dup := c.byName[name]; dup {
			continue
		}
		c.names = append(c.names, name)
		c.byName[name] = &schemas[i]
	}
	return c
}

func (c *Components) Lookup(name string) (*Schema, bool) {
	if c == nil {
		return nil, false
	}
	s, ok := c.byName[name]
	return s, ok
}

func (c *Components) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// SecurityScheme is a declared scheme. The client template turns each one into
// a credential setter: apiKey by location, http basic as a user/password pair,
// anything else as a bearer token.
type SecurityScheme struct {
	Name        string
	Type        SecuritySchemeType
	Description string
	// ParamName and In locate an apiKey credential.
	ParamName string
	In        string
	// Scheme is the http auth scheme, e.g. "basic" or "bearer".
	Scheme string
}

type SecuritySchemeType string

const (
	SecurityTypeAPIKey        SecuritySchemeType = "apiKey"
	SecurityTypeHTTP          SecuritySchemeType = "http"
	SecurityTypeOAuth2        SecuritySchemeType = "oauth2"
	SecurityTypeOpenIDConnect SecuritySchemeType = "openIdConnect"
)
