package auth

import (
	"embed"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the embedded SQL migrations creating the users,
// refresh_tokens, and roles tables under data/sql/migrations. Hosts feed them
// to their own migrator alongside the application's migrations.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
