// Package store holds the latest rendered status snapshot and fans it out to
// subscribers.
//
// The scheduler publishes one [status.Snapshot] per tick. The terminal display
// and the HTTP status server each subscribe and redraw from what they
// receive. Sends are non-blocking: a subscriber that falls behind misses
// snapshots rather than stalling the scheduler, which is harmless because
// every snapshot supersedes the previous one.
//
// Users of the reviewq library should not need to interact with this
// package directly.
package store
