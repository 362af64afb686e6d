// Package migrations embeds the SQLite schema for user accounts and OAuth
// login state.
package migrations

import "embed"

// FS holds the numbered migration files applied in name order.
//
//go:embed *.sql
var FS embed.FS
