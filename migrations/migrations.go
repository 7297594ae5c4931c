// Package migrations incrusta los archivos SQL de esquema para ejecutarlos
// al arranque con golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
