// Package litesql is a typed, synchronous client for an embedded SQLite
// database. It wraps package sqlite3's raw cgo handles with a
// connection/transaction state machine, a row-shaped query surface, and an
// event bus, serializing access to each connection so callers never race
// the underlying C handle.
package litesql
