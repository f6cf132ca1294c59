// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple port interfaces
// through a single database connection:
//
//   - ChunkStore: Document and chunk persistence
//   - FullTextIndex: Lexical search backed by an FTS5 virtual table
//   - VectorIndex: Similarity search over embedding blobs
//
// Because all three share one database file, mutations grouped with
// WithTx commit or roll back as a unit.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.raglite/data/raglite.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
