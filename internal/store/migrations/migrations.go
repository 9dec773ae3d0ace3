// Package migrations embeds the SQL schema of the hangouts store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
