package loader

import (
	"strings"

	"github.com/kolah/damascus/internal/model"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	"github.com/pb33f/libopenapi/orderedmap"
	"go.yaml.in/yaml/v4"
)

const componentSchemaPrefix = "#/components/schemas/"

// transformer carries the identity of every component schema so that a
// resolved proxy pointing back at one is kept as a reference.
type transformer struct {
	components map[*base.Schema]string
}

// Transform converts the libopenapi model into the generator IR, preserving
// document order everywhere.
func Transform(result *Result) (*model.Spec, error) {
	doc := result.Document.Model
	t := &transformer{components: make(map[*base.Schema]string)}

	var schemas *orderedmap.Map[string, *base.SchemaProxy]
	if doc.Components != nil && doc.Components.Schemas != nil {
		schemas = doc.Components.Schemas
		for name, proxy := range schemas.FromOldest() {
			if s := proxy.Schema(); s != nil {
				t.components[s] = componentSchemaPrefix + name
			}
		}
	}

	spec := &model.Spec{}
	if doc.Info != nil {
		spec.Info = model.Info{
			Title:       doc.Info.Title,
			Description: doc.Info.Description,
			Version:     doc.Info.Version,
		}
	}
	for _, s := range doc.Servers {
		spec.Servers = append(spec.Servers, model.Server{URL: s.URL, Description: s.Description})
	}

	if schemas != nil {
		for name, proxy := range schemas.FromOldest() {
			spec.Schemas = append(spec.Schemas, t.component(name, proxy))
		}
	}

	if doc.Paths != nil && doc.Paths.PathItems != nil {
		for route, item := range doc.Paths.PathItems.FromOldest() {
			path := t.path(route, item)
			spec.Paths = append(spec.Paths, path)
			spec.Operations = append(spec.Operations, path.Operations...)
		}
	}

	if doc.Components != nil && doc.Components.SecuritySchemes != nil {
		for name, scheme := range doc.Components.SecuritySchemes.FromOldest() {
			spec.Security = append(spec.Security, model.SecurityScheme{
				Name:        name,
				Type:        model.SecuritySchemeType(scheme.Type),
				Description: scheme.Description,
				ParamName:   scheme.Name,
				In:          strings.ToLower(scheme.In),
				Scheme:      strings.ToLower(scheme.Scheme),
			})
		}
	}

	return spec, nil
}

// component keeps an aliasing component (a bare $ref) as a reference node
// rather than inlining its target.
func (t *transformer) component(name string, proxy *base.SchemaProxy) model.Schema {
	if ref := proxy.GetReference(); ref != "" {
		return model.Schema{Name: name, Ref: ref}
	}
	node := t.schema(proxy.Schema())
	if node == nil {
		return model.Schema{Name: name}
	}
	node.Name = name
	return *node
}

func (t *transformer) path(route string, item *v3.PathItem) model.Path {
	path := model.Path{Path: route}

	var shared []model.Parameter
	for _, p := range item.Parameters {
		shared = append(shared, t.parameter(p))
	}

	byMethod := []struct {
		method model.Method
		op     *v3.Operation
	}{
		{model.MethodGet, item.Get},
		{model.MethodPost, item.Post},
		{model.MethodPut, item.Put},
		{model.MethodDelete, item.Delete},
		{model.MethodPatch, item.Patch},
		{model.MethodHead, item.Head},
		{model.MethodOptions, item.Options},
		{model.MethodTrace, item.Trace},
	}
	for _, m := range byMethod {
		if m.op == nil {
			continue
		}
		op := t.operation(m.method, route, m.op)
		op.Parameters = mergeParameters(shared, op.Parameters)
		path.Operations = append(path.Operations, op)
	}

	return path
}

// mergeParameters applies path-level parameters unless the operation
// redeclares one with the same name and location.
func mergeParameters(shared, own []model.Parameter) []model.Parameter {
	if len(shared) == 0 {
		return own
	}
	declared := make(map[model.ParameterLocation]map[string]bool)
	for _, p := range own {
		if declared[p.In] == nil {
			declared[p.In] = make(map[string]bool)
		}
		declared[p.In][p.Name] = true
	}
	var merged []model.Parameter
	for _, p := range shared {
		if !declared[p.In][p.Name] {
			merged = append(merged, p)
		}
	}
	return append(merged, own...)
}

func (t *transformer) operation(method model.Method, route string, op *v3.Operation) model.Operation {
	out := model.Operation{
		ID:          op.OperationId,
		Method:      method,
		Path:        route,
		Summary:     op.Summary,
		Description: op.Description,
		Deprecated:  flag(op.Deprecated),
	}

	for _, p := range op.Parameters {
		out.Parameters = append(out.Parameters, t.parameter(p))
	}

	if rb := op.RequestBody; rb != nil {
		out.RequestBody = &model.RequestBody{
			Description: rb.Description,
			Required:    flag(rb.Required),
			Content:     t.content(rb.Content),
		}
	}

	if op.Responses != nil && op.Responses.Codes != nil {
		for code, resp := range op.Responses.Codes.FromOldest() {
			r := model.Response{StatusCode: code}
			if resp != nil {
				r.Description = resp.Description
				r.Content = t.content(resp.Content)
			}
			out.Responses = append(out.Responses, r)
		}
	}

	return out
}

func (t *transformer) parameter(p *v3.Parameter) model.Parameter {
	param := model.Parameter{
		Name:        p.Name,
		In:          model.ParameterLocation(strings.ToLower(p.In)),
		Description: p.Description,
		Required:    flag(p.Required),
		Schema:      t.proxy(p.Schema),
	}
	// A parameter may carry its schema under a single media type instead.
	if param.Schema == nil {
		for _, c := range t.content(p.Content) {
			if c.Schema != nil {
				param.Schema = c.Schema
				break
			}
		}
	}
	return param
}

func (t *transformer) content(media *orderedmap.Map[string, *v3.MediaType]) []model.MediaTypeContent {
	if media == nil {
		return nil
	}
	var out []model.MediaTypeContent
	for mediaType, mt := range media.FromOldest() {
		entry := model.MediaTypeContent{MediaType: mediaType}
		if mt != nil {
			entry.Schema = t.proxy(mt.Schema)
		}
		out = append(out, entry)
	}
	return out
}

// proxy returns a bare reference node for $ref proxies and never descends
// into their targets.
func (t *transformer) proxy(p *base.SchemaProxy) *model.Schema {
	if p == nil {
		return nil
	}
	if ref := p.GetReference(); ref != "" {
		return &model.Schema{Ref: ref}
	}
	resolved := p.Schema()
	if ref, ok := t.components[resolved]; ok && resolved != nil {
		return &model.Schema{Ref: ref}
	}
	return t.schema(resolved)
}

func (t *transformer) schema(s *base.Schema) *model.Schema {
	if s == nil {
		return nil
	}

	if s.Extensions != nil {
		if ref, ok := s.Extensions.Get(unresolvedRefKey); ok && ref != nil {
			return &model.Schema{Ref: ref.Value}
		}
	}

	node := &model.Schema{
		Description: s.Description,
		Required:    s.Required,
	}

	// 3.1 allows type lists; "null" only widens nullability, which every
	// optional field already has.
	for _, typ := range s.Type {
		if typ != string(model.TypeNull) {
			node.Type = model.SchemaType(typ)
			break
		}
	}

	if s.Default != nil {
		node.Default, node.HasDefault = decodeNode(s.Default), true
	}

	if s.Properties != nil {
		for name, prop := range s.Properties.FromOldest() {
			node.Properties = append(node.Properties, model.Property{Name: name, Schema: t.proxy(prop)})
		}
	}

	if s.Items != nil && s.Items.IsA() {
		node.Items = t.proxy(s.Items.A)
	}
	if s.AdditionalProperties != nil && s.AdditionalProperties.IsA() {
		node.AdditionalProperties = t.proxy(s.AdditionalProperties.A)
	}

	node.AllOf = t.proxies(s.AllOf)
	node.OneOf = t.proxies(s.OneOf)
	node.AnyOf = t.proxies(s.AnyOf)

	return node
}

func (t *transformer) proxies(list []*base.SchemaProxy) []*model.Schema {
	if len(list) == 0 {
		return nil
	}
	out := make([]*model.Schema, 0, len(list))
	for _, p := range list {
		out = append(out, t.proxy(p))
	}
	return out
}

// decodeNode turns a YAML/JSON literal into a Go value. Undecodable nodes
// fall back to their raw scalar text.
func decodeNode(node *yaml.Node) any {
	if node == nil {
		return nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return node.Value
	}
	return v
}

func flag(b *bool) bool {
	return b != nil && *b
}
