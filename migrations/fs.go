// Package migrations embeds the versioned schema migration files for both
// supported database backends. Files are named NNN_description.sql and are
// applied in version order by the migration runner.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
