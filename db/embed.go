// Package db embeds the SQL schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for every table the service uses. It is executed on
// every startup, so statements must be idempotent.
//
//go:embed migrations/001_schema.sql
var Schema string
