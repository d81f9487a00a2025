// Package migrations holds the SurrealQL schema, applied in file order by
// database.Migrate.
package migrations

import "embed"

// Files contains every *.surql migration
//
//go:embed *.surql
var Files embed.FS
