package templates

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"text/template"
)

type Engine interface {
	Execute(name string, data any) (string, error)
}

// TextTemplateEngine renders text/template files from an embedded FS,
// optionally overridden by a custom directory. Function-valued entries of a
// map[string]any context are bound as template functions for that execution
// only; their names must be declared up front so templates can parse.
type TextTemplateEngine struct {
	templates *template.Template
	funcs     template.FuncMap
	embedded  fs.FS
	customDir string
}

func NewEngine(embedded fs.FS, customDir string, funcs template.FuncMap, contextFuncs ...string) (*TextTemplateEngine, error) {
	all := make(template.FuncMap, len(funcs)+len(contextFuncs))
	for name, fn := range funcs {
		all[name] = fn
	}
	for _, name := range contextFuncs {
		all[name] = unbound(name)
	}

	e := &TextTemplateEngine{
		embedded:  embedded,
		customDir: customDir,
		funcs:     all,
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

func unbound(name string) func(...any) (string, error) {
	return func(...any) (string, error) {
		return "", fmt.Errorf("template function %s is not bound in this context", name)
	}
}

func (e *TextTemplateEngine) load() error {
	e.templates = template.New("").Funcs(e.funcs)

	err := fs.WalkDir(e.embedded, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
			return nil
		}
		content, err := fs.ReadFile(e.embedded, path)
		if err != nil {
			return fmt.Errorf("reading embedded template %s: %w", path, err)
		}
		name := strings.TrimPrefix(path, "templates/")
		_, err = e.templates.New(name).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parsing embedded template %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading embedded templates: %w", err)
	}

	if e.customDir != "" {
		err = filepath.WalkDir(e.customDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
				return nil
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading custom template %s: %w", path, err)
			}
			relPath, _ := filepath.Rel(e.customDir, path)
			_, err = e.templates.New(filepath.ToSlash(relPath)).Parse(string(content))
			if err != nil {
				return fmt.Errorf("parsing custom template %s: %w", path, err)
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading custom templates: %w", err)
		}
	}

	return nil
}

// Execute renders the named template. It is safe for concurrent use.
func (e *TextTemplateEngine) Execute(name string, data any) (string, error) {
	set, err := e.templates.Clone()
	if err != nil {
		return "", fmt.Errorf("cloning templates: %w", err)
	}
	if bound := contextFuncs(data); len(bound) > 0 {
		set.Funcs(bound)
	}

	tmpl := set.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}

	return buf.String(), nil
}

func contextFuncs(data any) template.FuncMap {
	m, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	funcs := make(template.FuncMap)
	for name, v := range m {
		if v != nil && reflect.TypeOf(v).Kind() == reflect.Func {
			funcs[name] = v
		}
	}
	return funcs
}
