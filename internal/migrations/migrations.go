// Package migrations embeds the postgres schema applied by goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
