package python

import (
	"strings"
	"text/template"
)

// TemplateFuncs returns the helpers that do not depend on a generation run.
// Run-bound helpers (type resolution against the model mapping) are supplied
// through the rendering context instead.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"to_snake_case": SnakeCase,
		"field_name":    FieldName,
		"class_name":    ClassName,
		"py_string":     String,
		"py_list":       StringList,
		"docstring":     Docstring,
		"comment":       Comment,
		"lower":         strings.ToLower,
		"upper":         strings.ToUpper,
		"join":          strings.Join,
		"hasPrefix":     strings.HasPrefix,
		"trimPrefix":    strings.TrimPrefix,
		"replace":       strings.ReplaceAll,
	}
}
