// Package sqlite provides a SQLite-backed implementation of the
// DocumentStore driven port.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. Documents, their lifecycle
// state, and their chunks (including embedding blobs) live in a single
// database file, which makes the store the rebuild source for both search
// indexes after a crash.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory and embedded at compile time.
//
// # Data Location
//
// By default, the database is stored at ~/.askdoc/data/askdoc.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
