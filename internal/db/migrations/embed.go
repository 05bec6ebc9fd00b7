// Package migrations embeds the goose migrations for each supported dialect.
package migrations

import "embed"

// Postgres holds migrations under postgres/
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite holds migrations under sqlite/
//
//go:embed sqlite/*.sql
var SQLite embed.FS
