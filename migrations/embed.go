// Package migrations embeds the SQL schema migrations so deploys run them
// from the binary without shipping loose files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
