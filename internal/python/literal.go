package python

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/kolah/damascus/internal/model"
)

const noneLiteral = "None"

// DefaultLiteral renders a schema's default as Python source. It reports
// false when the schema declares no default.
func DefaultLiteral(node *model.Schema) (string, bool) {
	if node == nil || !node.HasDefault {
		return "", false
	}
	if node.Default == nil {
		return noneLiteral, true
	}

	switch node.Type {
	case model.TypeString:
		if s, ok := node.Default.(string); ok {
			return String(s), true
		}
		return String(scalarText(node.Default)), true
	case model.TypeBoolean:
		if truthy(node.Default) {
			return "True", true
		}
		return "False", true
	case model.TypeInteger, model.TypeNumber:
		if token, ok := numberToken(node.Default); ok {
			return token, true
		}
		return noneLiteral, true
	default:
		return noneLiteral, true
	}
}

// String quotes s as a Python string literal. JSON string escapes are a
// subset of Python's.
func String(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(b)
}

// StringList renders a list literal of quoted strings.
func StringList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = String(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Docstring renders text as a triple-quoted string indented for a body at
// the given prefix.
func Docstring(text, indent string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, `"""`, `\"\"\"`)
	if strings.HasSuffix(text, `"`) {
		text = text[:len(text)-1] + `\"`
	}
	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		return indent + `"""` + lines[0] + `"""`
	}
	var b strings.Builder
	b.WriteString(indent + `"""` + lines[0] + "\n")
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString(indent + strings.TrimRight(line, " \t") + "\n")
	}
	b.WriteString(indent + `"""`)
	return b.String()
}

// Comment renders text as "# " lines at the given indent.
func Comment(text, indent string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(indent+"# "+strings.TrimSpace(line), " ")
	}
	return strings.Join(lines, "\n")
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case uint64:
		return x != 0
	case float64:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return v != nil
	}
}

func numberToken(v any) (string, bool) {
	switch x := v.(type) {
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return floatToken(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return "", false
		}
		if _, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return strings.TrimSpace(x), true
		}
		return floatToken(f)
	default:
		return "", false
	}
}

func floatToken(f float64) (string, bool) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "", false
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s, true
}

func scalarText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		if token, ok := numberToken(v); ok {
			return token
		}
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
