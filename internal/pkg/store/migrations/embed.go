package migrations

import "embed"

// PostgresFS embeds the catalog schema.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS
