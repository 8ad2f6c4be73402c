package model

type Operation struct {
	ID          string
	Method      Method
	Path        string
	Summary     string
	Description string
	Deprecated  bool
	Parameters  []Parameter
	RequestBody *RequestBody
	Responses   []Response
}

// Response returns the response declared for the status code, or nil.
func (o *Operation) Response(code string) *Response {
	if o == nil {
		return nil
	}
	for i := range o.Responses {
		if o.Responses[i].StatusCode == code {
			return &o.Responses[i]
		}
	}
	return nil
}

type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

type ParameterLocation string

const (
	LocationPath   ParameterLocation = "path"
	LocationQuery  ParameterLocation = "query"
	LocationHeader ParameterLocation = "header"
	LocationCookie ParameterLocation = "cookie"
)

type Parameter struct {
	Name        string
	In          ParameterLocation
	Description string
	Required    bool
	Schema      *Schema
}

type RequestBody struct {
	Description string
	Required    bool
	Content     []MediaTypeContent
}

// ContentFor returns the entry for the media type, or nil.
func (b *RequestBody) ContentFor(mediaType string) *MediaTypeContent {
	if b == nil {
		return nil
	}
	return contentFor(b.Content, mediaType)
}

type MediaTypeContent struct {
	MediaType string
	Schema    *Schema
}

type Response struct {
	StatusCode  string
	Description string
	Content     []MediaTypeContent
}

// ContentFor returns the entry for the media type, or nil.
func (r *Response) ContentFor(mediaType string) *MediaTypeContent {
	if r == nil {
		return nil
	}
	return contentFor(r.Content, mediaType)
}

func contentFor(content []MediaTypeContent, mediaType string) *MediaTypeContent {
	for i := range content {
		if content[i].MediaType == mediaType {
			return &content[i]
		}
	}
	return nil
}
