package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kolah/damascus/internal/generrors"
	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

const defaultTimeout = 30 * time.Second

type Result struct {
	Source   string
	Document *libopenapi.DocumentModel[v3.Document]
	Version  string
	Warnings []string
	// Unresolved lists local schema references whose target is not declared,
	// in document order. They are kept as bare references in the IR.
	Unresolved []string
}

// Options control how a remote document is fetched.
type Options struct {
	// Headers are sent with remote requests, as "Name: Value" pairs.
	Headers []string
	// Timeout bounds a remote fetch. Zero means 30s.
	Timeout time.Duration
	// Client overrides the HTTP client used for remote documents.
	Client *http.Client
}

// IsRemote reports whether the source should be fetched over HTTP.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load reads the document from a file path or an http(s) URL and parses it.
// Every failure is returned as a *generrors.LoadError.
func Load(ctx context.Context, source string, opts Options) (*Result, error) {
	if source == "" {
		return nil, &generrors.LoadError{Message: "no spec source given"}
	}
	if IsRemote(source) {
		return LoadURL(ctx, source, opts)
	}
	return LoadFile(source)
}

func LoadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &generrors.LoadError{Source: path, Message: "reading spec file", Cause: err}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &generrors.LoadError{Source: path, Message: "resolving absolute path", Cause: err}
	}

	config := &datamodel.DocumentConfiguration{
		BasePath:            filepath.Dir(absPath),
		AllowFileReferences: true,
	}

	return loadWithConfig(path, data, config)
}

func LoadURL(ctx context.Context, url string, opts Options) (*Result, error) {
	headers, err := ParseHeaders(opts.Headers)
	if err != nil {
		return nil, &generrors.LoadError{Source: url, Message: "parsing headers", Cause: err}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &generrors.LoadError{Source: url, Message: "building request", Cause: err}
	}
	req.Header = headers

	resp, err := client.Do(req)
	if err != nil {
		return nil, &generrors.LoadError{Source: url, Message: "fetching spec", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &generrors.LoadError{Source: url, Message: fmt.Sprintf("unexpected status %s", resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &generrors.LoadError{Source: url, Message: "reading response body", Cause: err}
	}

	return loadWithConfig(url, data, nil)
}

// LoadBytes parses an in-memory document.
func LoadBytes(source string, data []byte) (*Result, error) {
	return loadWithConfig(source, data, nil)
}

// ParseHeaders converts "Name: Value" strings into an http.Header.
func ParseHeaders(raw []string) (http.Header, error) {
	headers := make(http.Header, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q (expected 'Name: Value')", h)
		}
		headers.Add(name, strings.TrimSpace(value))
	}
	return headers, nil
}

func loadWithConfig(source string, data []byte, config *datamodel.DocumentConfiguration) (*Result, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, &generrors.LoadError{Source: source, Message: "document is empty"}
	}

	data, unresolved := stubUnresolvedSchemaRefs(data)

	var doc libopenapi.Document
	var err error

	if config != nil {
		doc, err = libopenapi.NewDocumentWithConfiguration(data, config)
	} else {
		doc, err = libopenapi.NewDocument(data)
	}
	if err != nil {
		return nil, &generrors.LoadError{Source: source, Message: "parsing OpenAPI document", Cause: err}
	}

	version := doc.GetVersion()
	if !strings.HasPrefix(version, "3.") {
		return nil, &generrors.LoadError{
			Source:  source,
			Message: fmt.Sprintf("unsupported OpenAPI version: %q (only 3.x supported)", version),
		}
	}

	result := &Result{
		Source:     source,
		Version:    version,
		Unresolved: unresolved,
	}

	// Circular references come back as errors alongside a usable model; the
	// schema orderer reports the ones that matter.
	model, err := doc.BuildV3Model()
	if model == nil {
		return nil, &generrors.LoadError{Source: source, Message: "building OpenAPI model", Cause: err}
	}
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.Document = model

	return result, nil
}
