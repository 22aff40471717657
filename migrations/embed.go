// Package migrations embeds the service's SQL schema migrations.
package migrations

import "embed"

// FS holds every *.up.sql file, applied in filename order.
//
//go:embed *.sql
var FS embed.FS
