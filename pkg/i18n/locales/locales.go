// Package locales embeds the built-in message catalogs.
package locales

import "embed"

// FS holds pt-BR.yaml and en.yaml.
//
//go:embed *.yaml
var FS embed.FS

// Default is the language used when a request asks for none we know.
const Default = "pt-BR"
