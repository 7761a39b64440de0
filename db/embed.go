// Package db carries the embedded SQL migrations for the Spire schema.
package db

import "embed"

//go:embed migrations
var Migrations embed.FS
