package store

import "github.com/jpalmerr/reviewq/internal/status"

// Store defines the interface for publishing and subscribing to status
// snapshots.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// Update replaces the latest snapshot and notifies all subscribers.
	Update(snap status.Snapshot)

	// Latest returns the most recent snapshot. ok is false until the first
	// Update.
	Latest() (snap status.Snapshot, ok bool)

	// Subscribe returns a channel that receives snapshots.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan status.Snapshot

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan status.Snapshot)
}
