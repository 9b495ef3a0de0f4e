package migrations

import "embed"

// FS contiene las migraciones SQLite del ledger.
//
//go:embed *.sql
var FS embed.FS
