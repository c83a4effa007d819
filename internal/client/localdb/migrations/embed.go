// Package migrations embeds the ordered goose migration steps for the
// local sqlite store. Steps are additive; existing rows must survive every
// upgrade.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
