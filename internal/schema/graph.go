package schema

import (
	"github.com/kolah/damascus/internal/model"
)

// Closure expands roots to every component transitively cited by them.
// Names missing from components are dropped. The result keeps discovery
// order.
func Closure(components *model.Components, roots []string) []string {
	seen := make(map[string]bool)
	var closure []string
	queue := append([]string(nil), roots...)

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true

		node, ok := components.Lookup(name)
		if !ok {
			continue
		}
		closure = append(closure, name)
		queue = append(queue, Refs(node)...)
	}
	return closure
}

// Graph maps each schema to the schemas it depends on. Dependency lists keep
// encounter order and may repeat a name; a schema never lists itself.
type Graph struct {
	nodes []string
	deps  map[string][]string
}

// BuildGraph derives edges for every schema in closure from its properties,
// plus its items when the schema is itself an array. Edges leaving the
// closure are dropped.
func BuildGraph(components *model.Components, closure []string) *Graph {
	g := &Graph{deps: make(map[string][]string, len(closure))}
	inClosure := make(map[string]bool, len(closure))
	for _, name := range closure {
		inClosure[name] = true
	}

	for _, name := range closure {
		node, ok := components.Lookup(name)
		if !ok {
			continue
		}
		var refs []string
		for _, p := range node.Properties {
			refs = append(refs, Refs(p.Schema)...)
		}
		if node.Type == model.TypeArray {
			refs = append(refs, Refs(node.Items)...)
		}

		deps := []string{}
		for _, ref := range refs {
			if ref == name || !inClosure[ref] {
				continue
			}
			deps = append(deps, ref)
		}
		g.nodes = append(g.nodes, name)
		g.deps[name] = deps
	}
	return g
}

// Nodes returns the graph's schemas in closure order.
func (g *Graph) Nodes() []string {
	return g.nodes
}

func (g *Graph) Deps(name string) []string {
	return g.deps[name]
}

// Edge is one schema with its dependency list.
type Edge struct {
	Schema    string   `json:"schema"`
	DependsOn []string `json:"depends_on"`
}

// Edges lists the graph in closure order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.nodes))
	for _, name := range g.nodes {
		edges = append(edges, Edge{Schema: name, DependsOn: g.deps[name]})
	}
	return edges
}
