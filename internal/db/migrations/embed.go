// Package migrations provides embedded SQL migration files.
// The server applies them at startup when MIGRATE_ON_START is set, and
// testutil applies them in integration tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
