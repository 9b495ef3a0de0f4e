// Package migrations contiene el esquema PostgreSQL del ledger embebido en el binario.
package migrations

import "embed"

// FS contiene las migraciones, nombradas 0001_descripcion.sql y aplicadas en orden lexicográfico.
//
//go:embed *.sql
var FS embed.FS
