package loader

import (
	"strings"

	"go.yaml.in/yaml/v4"
)

// unresolvedRefKey replaces "$ref" on a local schema reference whose target
// is not declared. libopenapi refuses to build a model around such a
// reference, while the generator only needs the pointer text to degrade the
// type to a map.
const unresolvedRefKey = "x-damascus-unresolved-ref"

// stubUnresolvedSchemaRefs rewrites every "#/components/schemas/<name>"
// reference to an undeclared name into an unresolvedRefKey extension. It
// returns data untouched, and no refs, when nothing needs rewriting or the
// document does not parse (libopenapi reports that itself).
func stubUnresolvedSchemaRefs(data []byte) ([]byte, []string) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil || len(root.Content) == 0 {
		return data, nil
	}

	declared := declaredSchemas(root.Content[0])
	var missing []string
	seen := make(map[string]bool)
	visited := make(map[*yaml.Node]bool)

	var walk func(n *yaml.Node)
	walk = func(n *yaml.Node) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true

		if n.Kind == yaml.MappingNode {
			for i := 0; i+1 < len(n.Content); i += 2 {
				key, value := n.Content[i], n.Content[i+1]
				if key.Value != "$ref" || value.Kind != yaml.ScalarNode {
					continue
				}
				name, ok := strings.CutPrefix(value.Value, componentSchemaPrefix)
				if !ok || declared[unescapePointer(name)] {
					continue
				}
				key.Value = unresolvedRefKey
				if !seen[value.Value] {
					seen[value.Value] = true
					missing = append(missing, value.Value)
				}
			}
		}
		for _, child := range n.Content {
			walk(child)
		}
	}
	walk(&root)

	if len(missing) == 0 {
		return data, nil
	}
	out, err := yaml.Marshal(&root)
	if err != nil {
		return data, nil
	}
	return out, missing
}

func declaredSchemas(doc *yaml.Node) map[string]bool {
	declared := make(map[string]bool)
	schemas := mappingValue(mappingValue(doc, "components"), "schemas")
	if schemas == nil {
		return declared
	}
	for i := 0; i+1 < len(schemas.Content); i += 2 {
		declared[schemas.Content[i].Value] = true
	}
	return declared
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// unescapePointer decodes a JSON pointer segment.
func unescapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}
