// Package migrations embeds the SQL schema migrations so the binary can
// bring the database up to date without shipping loose files.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
