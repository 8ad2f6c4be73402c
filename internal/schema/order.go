package schema

import (
	"github.com/kolah/damascus/internal/generrors"
	"github.com/kolah/damascus/internal/model"
)

type orderer struct {
	graph    *Graph
	visiting map[string]bool
	done     map[string]bool
	stack    []string
	order    []string
}

// Order linearizes the graph so every schema comes after its dependencies.
// Schemas that cite other schemas start the traversal; native ones follow.
// A dependency path that returns to a schema in progress yields a
// *generrors.CycleError.
func Order(components *model.Components, g *Graph) ([]string, error) {
	o := &orderer{
		graph:    g,
		visiting: make(map[string]bool),
		done:     make(map[string]bool),
	}

	var native []string
	for _, name := range g.Nodes() {
		node, _ := components.Lookup(name)
		if IsNative(node) {
			native = append(native, name)
			continue
		}
		if err := o.visit(name); err != nil {
			return nil, err
		}
	}
	for _, name := range native {
		if err := o.visit(name); err != nil {
			return nil, err
		}
	}

	return o.order, nil
}

func (o *orderer) visit(name string) error {
	if o.done[name] {
		return nil
	}
	if o.visiting[name] {
		return &generrors.CycleError{Path: o.cyclePath(name)}
	}

	o.visiting[name] = true
	o.stack = append(o.stack, name)
	for _, dep := range o.graph.Deps(name) {
		if err := o.visit(dep); err != nil {
			return err
		}
	}
	o.stack = o.stack[:len(o.stack)-1]
	delete(o.visiting, name)

	o.done[name] = true
	o.order = append(o.order, name)
	return nil
}

func (o *orderer) cyclePath(name string) []string {
	for i, n := range o.stack {
		if n == name {
			path := append([]string(nil), o.stack[i:]...)
			return append(path, name)
		}
	}
	return []string{name, name}
}

// Analysis is the full discovery result for one document.
type Analysis struct {
	Roots   []string `json:"roots"`
	Closure []string `json:"closure"`
	Graph   []Edge   `json:"graph"`
	Order   []string `json:"order"`

	graph *Graph
}

// DependencyGraph returns the graph the order was computed from.
func (a *Analysis) DependencyGraph() *Graph {
	return a.graph
}

// Analyze runs closure, graph construction and ordering for the given roots.
func Analyze(components *model.Components, roots []string) (*Analysis, error) {
	closure := Closure(components, roots)
	g := BuildGraph(components, closure)
	order, err := Order(components, g)
	if err != nil {
		return nil, err
	}
	return &Analysis{
		Roots:   roots,
		Closure: closure,
		Graph:   g.Edges(),
		Order:   order,
		graph:   g,
	}, nil
}
