// Package db embeds the storefront schema so binaries can bootstrap a
// database without shipping migration files alongside them.
package db

import _ "embed"

// Schema holds the full DDL for the storefront tables (catalog, orders,
// wallet ledger, referrals, announcements, settings, API keys).
//
//go:embed migrations/001_schema.sql
var Schema string
