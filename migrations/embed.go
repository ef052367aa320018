// Package migrations holds the SQLite schema for the persistence connector.
//
// Files follow <YYYYMMDD>_<HHMMSS>_<name>.up.sql with an optional matching
// .down.sql, and are applied in version order by database.DB.Migrate.
package migrations

import "embed"

// FS is the embedded migration set.
//
//go:embed *.sql
var FS embed.FS
