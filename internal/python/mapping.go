package python

import "fmt"

// ModelMapping records the type name generated for each schema, in the order
// the types were produced. It belongs to a single generation run.
type ModelMapping struct {
	schemas []string
	types   map[string]string
	// modules maps a type name to the module stem that defines it; stems
	// holds every stem handed out, including those of colliding types.
	modules map[string]string
	stems   map[string]bool
}

func NewModelMapping() *ModelMapping {
	return &ModelMapping{
		types:   make(map[string]string),
		modules: make(map[string]string),
		stems:   make(map[string]bool),
	}
}

// Set records name for schema. It reports false when another schema already
// produced the same type name.
func (m *ModelMapping) Set(schema, name string) bool {
	unique := true
	for _, s := range m.schemas {
		if s != schema && m.types[s] == name {
			unique = false
			break
		}
	}
	if _, ok := m.types[schema]; !ok {
		m.schemas = append(m.schemas, schema)
	}
	m.types[schema] = name
	return unique
}

func (m *ModelMapping) Lookup(schema string) (string, bool) {
	if m == nil {
		return "", false
	}
	name, ok := m.types[schema]
	return name, ok
}

// TypeNames returns the distinct generated names in insertion order.
func (m *ModelMapping) TypeNames() []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]bool, len(m.schemas))
	var names []string
	for _, s := range m.schemas {
		name := m.types[s]
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func (m *ModelMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.schemas)
}

// AssignModule reserves a module stem for one emitted unit of typeName.
// Distinct names that snake_case to the same stem ("UserID", "UserId") get a
// numeric suffix, so every unit lands in its own file. The first unit of a
// type name is the one Module reports.
func (m *ModelMapping) AssignModule(typeName string) (stem string, renamed bool) {
	base := ModuleName(typeName)
	stem = base
	for i := 2; m.stems[stem]; i++ {
		stem = fmt.Sprintf("%s_%d", base, i)
	}
	m.stems[stem] = true
	if _, ok := m.modules[typeName]; !ok {
		m.modules[typeName] = stem
	}
	return stem, stem != base
}

// Module returns the stem of the module defining typeName, falling back to
// the plain snake_case stem for names never assigned.
func (m *ModelMapping) Module(typeName string) string {
	if m != nil {
		if stem, ok := m.modules[typeName]; ok {
			return stem
		}
	}
	return ModuleName(typeName)
}
