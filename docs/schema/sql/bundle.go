// Package sqldocs exposes the persistence snapshot DDL from the docs tree so
// operators can provision databases without reading driver source.
package sqldocs

import _ "embed"

// SQLite contains the snapshot-table DDL used by the sqlite driver.
//
//go:embed sqlite.sql
var SQLite string

// Postgres contains the snapshot-table DDL used by the postgres driver.
//
//go:embed postgres.sql
var Postgres string
