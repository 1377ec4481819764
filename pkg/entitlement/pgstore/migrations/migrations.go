// Package migrations embeds the PostgreSQL schema for pgstore.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
