// Package history persists the feedback items reviewq has seen, so the
// feedback de-duplication set survives restarts.
//
// History lives in a SQLite database (modernc.org/sqlite, no cgo) under the
// configured data directory.
package history
