// Package sqlite provides the default catalog store, backed by a local
// SQLite file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.baratazo/data/catalog.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. Writers serialise on SQLite's
// database lock in WAL mode.
package sqlite
