package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/kolah/damascus/internal/loader"
	"github.com/kolah/damascus/internal/model"
)

const inlineSource = "inline"

// specInput is the ways a document can be given to a tool. Exactly one of
// File, URL or Content must be set.
type specInput struct {
	File    string   `json:"file,omitempty"    jsonschema:"Path to an OpenAPI file on disk"`
	URL     string   `json:"url,omitempty"     jsonschema:"URL to fetch an OpenAPI document from"`
	Content string   `json:"content,omitempty" jsonschema:"Inline OpenAPI document content (JSON or YAML)"`
	Headers []string `json:"headers,omitempty" jsonschema:"Headers for URL fetches, as 'Name: Value'"`
}

// source returns the loader source for File or URL input.
func (s specInput) source() string {
	if s.File != "" {
		return s.File
	}
	return s.URL
}

func (s specInput) validate() error {
	count := 0
	for _, v := range []string{s.File, s.URL, s.Content} {
		if v != "" {
			count++
		}
	}
	if count != 1 {
		return fmt.Errorf("exactly one of file, url, or content must be provided (got %d)", count)
	}
	return nil
}

// resolve loads and transforms the document.
func (s specInput) resolve(ctx context.Context, timeout time.Duration) (*model.Spec, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	var (
		result *loader.Result
		err    error
	)
	if s.Content != "" {
		result, err = loader.LoadBytes(inlineSource, []byte(s.Content))
	} else {
		result, err = loader.Load(ctx, s.source(), loader.Options{Headers: s.Headers, Timeout: timeout})
	}
	if err != nil {
		return nil, err
	}

	spec, err := loader.Transform(result)
	if err != nil {
		return nil, fmt.Errorf("transforming document: %w", err)
	}
	return spec, nil
}
