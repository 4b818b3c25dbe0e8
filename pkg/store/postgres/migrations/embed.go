// Package migrations embeds the versioned SQL schema for PostgreSQL.
package migrations

import "embed"

// FS holds the up/down migration files applied by golang-migrate.
//
//go:embed *.sql
var FS embed.FS
