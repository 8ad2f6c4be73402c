package model

type Spec struct {
	Info       Info
	Servers    []Server
	Paths      []Path
	Operations []Operation
	Schemas    []Schema
	Security   []SecurityScheme
}

// Components indexes the component schemas by name, keeping declaration order.
func (s *Spec) Components() *Components {
	return NewComponents(s.Schemas)
}

// BaseURL returns the first server URL, or fallback when none is declared.
func (s *Spec) BaseURL(fallback string) string {
	if len(s.Servers) > 0 && s.Servers[0].URL != "" {
		return s.Servers[0].URL
	}
	return fallback
}

type Info struct {
	Title       string
	Description string
	Version     string
}

type Server struct {
	URL         string
	Description string
}

type Path struct {
	Path       string
	Operations []Operation
}
