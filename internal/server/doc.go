// Package server provides the optional HTTP status surface.
//
// It serves the same snapshots the terminal display shows:
//
//   - GET /: the latest snapshot as plain text
//   - GET /api/status: the latest snapshot as JSON
//   - GET /api/sse: Server-Sent Events stream of snapshots
//
// The server shuts down gracefully when its context is cancelled, with a
// 5-second timeout for in-flight requests.
package server
