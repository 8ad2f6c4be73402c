// Package client renders the Python client unit. Type decisions are made by
// Helpers, which the template calls through run-bound functions.
package client

import (
	"fmt"
	"strings"

	"github.com/kolah/damascus/internal/model"
	"github.com/kolah/damascus/internal/python"
	"github.com/kolah/damascus/internal/targets/responses"
	"github.com/kolah/damascus/internal/templates"
	"go.uber.org/zap"
)

const (
	TemplateName = "python/client.py.tmpl"
	Filename     = "__init__.py"

	// DefaultBaseURL is used when the document declares no servers.
	DefaultBaseURL = "http://localhost"

	modelsQualifier = "models."
)

// HelperNames lists the context functions the client template calls. The
// engine must know them before parsing.
var HelperNames = []string{
	"get_response_type",
	"get_type_from_schema",
	"get_request_body_params",
	"get_default_value",
	"get_response_model",
	"method_name",
	"method_params",
	"decode_response",
	"nullable",
	"summary",
}

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
	return "client"
}

// Input is everything one client render needs.
type Input struct {
	Spec       *model.Spec
	Components *model.Components
	Mapping    *python.ModelMapping
	Responses  map[string]*responses.Type
	Async      bool
}

func (t *Target) Generate(engine templates.Engine, in Input) (string, error) {
	out, err := engine.Execute(TemplateName, t.Context(in))
	if err != nil {
		return "", fmt.Errorf("rendering client: %w", err)
	}
	return out, nil
}

// Context builds the template context. Helper functions are bound to the
// run's mapping and synthesized responses.
func (t *Target) Context(in Input) map[string]any {
	spec := in.Spec
	if spec == nil {
		spec = &model.Spec{}
	}
	components := in.Components
	if components == nil {
		components = spec.Components()
	}
	h := &Helpers{
		mapping:    in.Mapping,
		components: components,
		responses:  in.Responses,
		syntax:     t.syntax.Qualified(modelsQualifier),
	}

	title := python.ClassName(spec.Info.Title)
	ctx := map[string]any{
		"title":            title,
		"client_class":     clientClass(title),
		"description":      spec.Info.Description,
		"module_doc":       moduleDoc(spec.Info),
		"base_url":         spec.BaseURL(DefaultBaseURL),
		"paths":            spec.Paths,
		"security_schemes": spec.Security,
		"use_modern_py":    t.syntax.Modern,
		"async_support":    in.Async,
		"has_models":       in.Mapping.Len() > 0,

		"to_snake_case":           python.SnakeCase,
		"get_response_type":       h.ResponseType,
		"get_type_from_schema":    h.TypeFromSchema,
		"get_request_body_params": h.RequestBodyParams,
		"get_default_value":       h.DefaultValue,
		"get_response_model":      h.ResponseModel,
		"method_name":             h.MethodName,
		"method_params":           h.MethodParams,
		"decode_response":         h.DecodeResponse,
		"nullable":                h.Nullable,
		"summary":                 h.Summary,
	}
	return ctx
}

func clientClass(title string) string {
	if title == "" {
		return "Api"
	}
	return python.Identifier(title)
}

func moduleDoc(info model.Info) string {
	doc := "API client"
	if info.Title != "" {
		doc = info.Title + " API client"
	}
	if info.Version != "" {
		doc += " (version " + info.Version + ")"
	}
	doc += "."
	if desc := strings.TrimSpace(info.Description); desc != "" {
		doc += "\n\n" + desc
	}
	return doc + "\n\nGenerated by damascus. Do not edit."
}

// Param is one client method argument.
type Param struct {
	Name        string
	Key         string
	Annotation  string
	Default     string
	Description string
	// In is a parameter location, "body" for a property of a JSON object
	// body, or "payload" for a whole non-object body.
	In       string
	Required bool
}

// Helpers answers the client template's type questions for one run.
type Helpers struct {
	mapping    *python.ModelMapping
	components *model.Components
	responses  map[string]*responses.Type
	syntax     python.Syntax
}

// returnType is a method's return annotation. A nil expr with no local name
// means the operation has no success body.
type returnType struct {
	expr python.TypeExpr
	// local names a synthesized response type defined in the client unit.
	local string
}

// ResponseType is the return annotation of an operation's method:
// the mapped model for a 200 JSON $ref, the synthesized response type, the
// resolved JSON type, or None when there is no success body.
func (h *Helpers) ResponseType(op any) string {
	rt := h.returnType(toOperation(op))
	switch {
	case rt.local != "":
		return rt.local
	case rt.expr == nil:
		return "None"
	default:
		return python.Render(rt.expr, h.syntax)
	}
}

// DecodeResponse is the expression converting the decoded JSON in "data"
// into the method's return type.
func (h *Helpers) DecodeResponse(op any) string {
	rt := h.returnType(toOperation(op))
	if rt.local != "" {
		return "_build(" + rt.local + ", data)"
	}
	switch t := rt.expr.(type) {
	case nil:
		return "None"
	case python.NamedType:
		return "_build(" + python.Render(t, h.syntax) + ", data)"
	case python.ListType:
		if elem, ok := t.Elem.(python.NamedType); ok {
			return "[_build(" + python.Render(elem, h.syntax) + ", item) for item in data or []]"
		}
	}
	return "data"
}

func (h *Helpers) returnType(op *model.Operation) returnType {
	resp := successResponse(op)
	if resp == nil || len(resp.Content) == 0 {
		return returnType{}
	}
	content := resp.ContentFor("application/json")
	if content == nil {
		return returnType{expr: python.AnyType{}}
	}
	if name, ok := h.mapping.Lookup(content.Schema.RefName()); ok {
		return returnType{expr: python.NamedType{Name: name}}
	}
	if typ, ok := h.responses[op.ID]; ok && op.ID != "" {
		return returnType{local: typ.Name}
	}
	return returnType{expr: python.ResolveType(content.Schema, h.mapping)}
}

func successResponse(op *model.Operation) *model.Response {
	if op == nil {
		return nil
	}
	if resp := op.Response("200"); resp != nil {
		return resp
	}
	return op.Response("201")
}

// TypeFromSchema is the qualified annotation for a schema node.
func (h *Helpers) TypeFromSchema(schema any) string {
	return python.Render(python.ResolveType(toSchema(schema), h.mapping), h.syntax)
}

// DefaultValue is the Python literal for a schema's default, or None.
func (h *Helpers) DefaultValue(schema any) string {
	if lit, ok := python.DefaultLiteral(toSchema(schema)); ok {
		return lit
	}
	return "None"
}

// ResponseModel is the source of the operation's synthesized response type,
// or an empty string.
func (h *Helpers) ResponseModel(op any) string {
	o := toOperation(op)
	if o == nil {
		return ""
	}
	typ, ok := h.responses[o.ID]
	if !ok {
		return ""
	}
	// The mapped model is the return type.
	if _, isModel := h.mapping.Lookup(h.responseRef(o)); isModel {
		return ""
	}
	return strings.TrimRight(typ.Source, "\n")
}

func (h *Helpers) responseRef(op *model.Operation) string {
	content := op.Response("200").ContentFor("application/json")
	if content == nil {
		return ""
	}
	return content.Schema.RefName()
}

func (h *Helpers) MethodName(op any) string {
	o := toOperation(op)
	if o == nil {
		return ""
	}
	return python.MethodName(o)
}

// Summary is the method docstring text.
func (h *Helpers) Summary(op any) string {
	o := toOperation(op)
	if o == nil {
		return ""
	}
	text := strings.TrimSpace(o.Summary)
	if text == "" {
		text = strings.TrimSpace(o.Description)
	}
	if text == "" {
		text = string(o.Method) + " " + o.Path
	}
	if o.Deprecated {
		text += "\n\nDeprecated."
	}
	return text
}

func (h *Helpers) Nullable(annotation string) string {
	return python.Nullable(annotation, h.syntax.Modern)
}

// RequestBodyParams flattens a JSON request body. An object body (inline or
// referenced) yields one param per property; any other body is a single
// "body" param.
func (h *Helpers) RequestBodyParams(op any) []Param {
	o := toOperation(op)
	if o == nil || o.RequestBody == nil {
		return nil
	}
	content := o.RequestBody.ContentFor("application/json")
	if content == nil || content.Schema == nil {
		return nil
	}

	schema := content.Schema
	if schema.Ref != "" {
		if resolved, ok := h.components.Lookup(schema.RefName()); ok && resolved.Type == model.TypeObject {
			schema = resolved
		}
	}
	if schema.Ref == "" && schema.Type == model.TypeObject && len(schema.Properties) > 0 {
		params := make([]Param, 0, len(schema.Properties))
		for _, f := range python.Fields(schema, python.NewResolver(h.mapping)) {
			params = append(params, h.param(f.Name, f.Key, "body", f.Required, f.Type, f.Default, f.Description))
		}
		return params
	}

	typ := python.ResolveType(content.Schema, h.mapping)
	return []Param{h.param("body", "", "payload", o.RequestBody.Required, typ, "None", o.RequestBody.Description)}
}

// MethodParams lists every argument of the operation's method: path,
// query, header and cookie parameters, then body params. Required
// arguments come first; duplicate names get a location suffix.
func (h *Helpers) MethodParams(op any) []Param {
	o := toOperation(op)
	if o == nil {
		return nil
	}

	var all []Param
	for _, p := range o.Parameters {
		required := p.Required || p.In == model.LocationPath
		def := "None"
		if !required {
			def = h.DefaultValue(p.Schema)
		}
		typ := python.ResolveType(p.Schema, h.mapping)
		all = append(all, h.param(python.FieldName(p.Name), p.Name, string(p.In), required, typ, def, p.Description))
	}
	all = append(all, h.RequestBodyParams(o)...)

	seen := make(map[string]bool, len(all))
	var required, optional []Param
	for _, p := range all {
		if seen[p.Name] {
			p.Name = python.EscapeKeyword(p.Name + "_" + p.In)
		}
		seen[p.Name] = true
		if p.Required {
			required = append(required, p)
		} else {
			optional = append(optional, p)
		}
	}
	return append(required, optional...)
}

func (h *Helpers) param(name, key, in string, required bool, typ python.TypeExpr, def, description string) Param {
	p := Param{
		Name:        name,
		Key:         key,
		In:          in,
		Required:    required,
		Description: description,
	}
	if required {
		p.Annotation = python.Render(typ, h.syntax)
	} else {
		p.Annotation = python.RenderNullable(typ, h.syntax)
		p.Default = def
	}
	return p
}

func toOperation(v any) *model.Operation {
	switch op := v.(type) {
	case *model.Operation:
		return op
	case model.Operation:
		return &op
	default:
		return nil
	}
}

func toSchema(v any) *model.Schema {
	switch s := v.(type) {
	case *model.Schema:
		return s
	case model.Schema:
		return &s
	default:
		return nil
	}
}
