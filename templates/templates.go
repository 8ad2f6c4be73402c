// Package templates embeds the default code templates.
package templates

import "embed"

//go:embed python/*.tmpl
var FS embed.FS
