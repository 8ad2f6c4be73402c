// Package schema discovers which component schemas a document needs and
// orders them so every schema follows the schemas it depends on.
package schema

import (
	"github.com/kolah/damascus/internal/model"
)

// Refs returns the component names cited by node, in encounter order. It
// follows $ref, items, properties, additionalProperties and the
// anyOf/allOf/oneOf members. References are not dereferenced, so the walk
// always terminates.
func Refs(node *model.Schema) []string {
	var out []string
	collectRefs(node, &out)
	return out
}

func collectRefs(node *model.Schema, out *[]string) {
	if node == nil {
		return
	}
	if name := node.RefName(); name != "" {
		*out = append(*out, name)
	}
	collectRefs(node.Items, out)
	for _, p := range node.Properties {
		collectRefs(p.Schema, out)
	}
	collectRefs(node.AdditionalProperties, out)
	for _, group := range [][]*model.Schema{node.AnyOf, node.AllOf, node.OneOf} {
		for _, member := range group {
			collectRefs(member, out)
		}
	}
}

// IsNative reports whether node resolves without citing any named schema.
func IsNative(node *model.Schema) bool {
	return len(Refs(node)) == 0
}

// rootMethods are the operations whose responses seed the closure.
var rootMethods = map[model.Method]bool{
	model.MethodGet:    true,
	model.MethodPost:   true,
	model.MethodPut:    true,
	model.MethodDelete: true,
	model.MethodPatch:  true,
}

// ResponseRoots returns the distinct schema names used as the direct $ref of
// a 200 or 201 application/json response body. Inline bodies are skipped.
func ResponseRoots(paths []model.Path) []string {
	seen := make(map[string]bool)
	var roots []string
	for _, path := range paths {
		for _, op := range path.Operations {
			if !rootMethods[op.Method] {
				continue
			}
			for _, resp := range op.Responses {
				if resp.StatusCode != "200" && resp.StatusCode != "201" {
					continue
				}
				content := resp.ContentFor("application/json")
				if content == nil {
					continue
				}
				name := content.Schema.RefName()
				if name == "" || seen[name] {
					continue
				}
				seen[name] = true
				roots = append(roots, name)
			}
		}
	}
	return roots
}
