// Package codegen sequences discovery, ordering, model emission, response
// synthesis and client rendering, and writes the resulting package.
package codegen

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kolah/damascus/internal/config"
	"github.com/kolah/damascus/internal/generrors"
	"github.com/kolah/damascus/internal/loader"
	"github.com/kolah/damascus/internal/model"
	"github.com/kolah/damascus/internal/python"
	"github.com/kolah/damascus/internal/schema"
	"github.com/kolah/damascus/internal/targets/client"
	"github.com/kolah/damascus/internal/targets/models"
	"github.com/kolah/damascus/internal/targets/responses"
	"github.com/kolah/damascus/internal/templates"
	embeddedtmpl "github.com/kolah/damascus/templates"
	"go.uber.org/zap"
)

type Generator struct {
	config *config.Config
	engine templates.Engine
	syntax python.Syntax
	logger *zap.Logger
	stdout io.Writer
}

type Option func(*Generator)

// WithStdout sets where dry runs print the generated files.
func WithStdout(w io.Writer) Option {
	return func(g *Generator) {
		g.stdout = w
	}
}

// Output is one generated file, relative to the output root.
type Output struct {
	Filename string
	Content  string
}

type Result struct {
	Files []Output
	// Mapping is empty when no component schema was emitted.
	Mapping *python.ModelMapping
	// Analysis is nil when the document declares no component schemas.
	Analysis *schema.Analysis
}

func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	version, err := cfg.PythonVersion()
	if err != nil {
		return nil, err
	}

	engine, err := templates.NewEngine(embeddedtmpl.FS, cfg.Templates.Dir, python.TemplateFuncs(), client.HelperNames...)
	if err != nil {
		return nil, fmt.Errorf("creating template engine: %w", err)
	}

	g := &Generator{
		config: cfg,
		engine: engine,
		syntax: python.SyntaxFor(version),
		logger: logger,
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Load fetches and transforms the document. Every failure is a
// *generrors.LoadError.
func (g *Generator) Load(ctx context.Context, source string) (*model.Spec, error) {
	result, err := loader.Load(ctx, source, loader.Options{
		Headers: g.config.Headers,
		Timeout: g.config.Timeout,
	})
	if err != nil {
		return nil, err
	}

	for _, w := range result.Warnings {
		g.logger.Warn("document warning", zap.String("source", source), zap.String("warning", w))
	}
	for _, ref := range result.Unresolved {
		g.logger.Warn("reference degrades to a generic map",
			zap.String("source", source),
			zap.Error(fmt.Errorf("%w: %s", generrors.ErrUnresolvedReference, ref)))
	}

	spec, err := loader.Transform(result)
	if err != nil {
		return nil, &generrors.LoadError{Source: source, Message: "transforming document", Cause: err}
	}

	g.logger.Info("loaded document",
		zap.String("openapi", result.Version),
		zap.String("title", spec.Info.Title),
		zap.String("version", spec.Info.Version),
		zap.Int("schemas", len(spec.Schemas)),
		zap.Int("operations", len(spec.Operations)))

	return spec, nil
}

// Generate builds every source unit in memory. A dependency cycle among the
// response schemas is returned as a *generrors.CycleError.
func (g *Generator) Generate(spec *model.Spec) (*Result, error) {
	components := spec.Components()
	result := &Result{Mapping: python.NewModelMapping()}
	var modelFiles []Output

	if components.Len() > 0 {
		roots := schema.ResponseRoots(spec.Paths)
		analysis, err := schema.Analyze(components, roots)
		if err != nil {
			return nil, fmt.Errorf("ordering schemas: %w", err)
		}
		result.Analysis = analysis
		g.logger.Debug("ordered schemas",
			zap.Strings("roots", analysis.Roots),
			zap.Strings("order", analysis.Order))

		emitted, err := models.New(g.syntax, g.logger).Generate(components, analysis.Order)
		if err != nil {
			return nil, fmt.Errorf("generating models: %w", err)
		}
		result.Mapping = emitted.Mapping
		for _, f := range emitted.Files {
			modelFiles = append(modelFiles, Output{Filename: f.Filename(), Content: f.Content})
		}
		if emitted.Mapping.Len() > 0 {
			modelFiles = append(modelFiles, Output{Filename: models.IndexFilename(), Content: emitted.Index})
		}
	}

	synthesized := responses.New(g.syntax, g.logger).SynthesizeAll(spec.Operations, components)

	content, err := client.New(g.syntax, g.logger).Generate(g.engine, client.Input{
		Spec:       spec,
		Components: components,
		Mapping:    result.Mapping,
		Responses:  synthesized,
		Async:      g.config.Python.Async,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", generrors.ErrGeneration, err)
	}

	result.Files = append([]Output{{Filename: client.Filename, Content: content}}, modelFiles...)
	return result, nil
}

// Run loads source, generates the package and writes it to the configured
// output directory, or prints it on a dry run. Load failures and dependency
// cycles are returned; any other failure is logged and reported as false.
// Files written before a failure are left in place.
func (g *Generator) Run(ctx context.Context, source string) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("generation panicked", zap.String("source", source), zap.Any("panic", r))
			ok, err = false, nil
		}
	}()

	spec, err := g.Load(ctx, source)
	if err != nil {
		g.logger.Error("loading document failed", zap.Error(err))
		return false, err
	}

	result, err := g.Generate(spec)
	if err != nil {
		g.logger.Error("generation failed", zap.Error(err))
		if generrors.IsFatal(err) {
			return false, err
		}
		return false, nil
	}

	if g.config.DryRun {
		for _, out := range result.Files {
			fmt.Fprintf(g.stdout, "# %s\n%s\n", out.Filename, out.Content)
		}
		return true, nil
	}

	written, err := WriteFiles(g.config.OutputDir, result.Files)
	for _, path := range written {
		g.logger.Info("written", zap.String("path", path))
	}
	if err != nil {
		g.logger.Error("writing output failed", zap.Error(err))
		return false, nil
	}

	return true, nil
}

// WriteFiles writes outputs under dir, creating directories as needed. It
// returns the paths written before any failure.
func WriteFiles(dir string, outputs []Output) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}

	var written []string
	for _, out := range outputs {
		path := filepath.Join(dir, filepath.FromSlash(out.Filename))
		abs, err := filepath.Abs(path)
		if err != nil || !withinDir(root, abs) {
			return written, fmt.Errorf("invalid file name %q: escapes the output directory", out.Filename)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return written, fmt.Errorf("creating directory for %s: %w", out.Filename, err)
		}
		if err := os.WriteFile(path, []byte(out.Content), 0644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}

	return written, nil
}

func withinDir(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
