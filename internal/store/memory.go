package store

import (
	"sync"

	"github.com/jpalmerr/reviewq/internal/status"
)

// subscriberBuffer is the channel capacity given to each subscriber.
const subscriberBuffer = 16

// MemoryStore is an in-memory implementation of [Store].
//
// Subscribers receive snapshots via buffered channels. Sends are non-blocking;
// if a subscriber's buffer is full the snapshot is dropped for that subscriber.
type MemoryStore struct {
	mu     sync.RWMutex
	latest status.Snapshot
	has    bool

	subMu       sync.RWMutex
	subscribers map[chan status.Snapshot]struct{}
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscribers: make(map[chan status.Snapshot]struct{}),
	}
}

// Update stores snap as the latest snapshot and notifies all subscribers.
func (m *MemoryStore) Update(snap status.Snapshot) {
	m.mu.Lock()
	m.latest = snap
	m.has = true
	m.mu.Unlock()

	m.notifySubscribers(snap)
}

// Latest returns the most recent snapshot.
func (m *MemoryStore) Latest() (status.Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.has
}

// Subscribe creates a new subscription.
//
// Caller must call [MemoryStore.Unsubscribe] when done.
func (m *MemoryStore) Subscribe() <-chan status.Snapshot {
	ch := make(chan status.Snapshot, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan status.Snapshot) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

func (m *MemoryStore) notifySubscribers(snap status.Snapshot) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- snap:
		default:
			// subscriber is slow, drop the snapshot
		}
	}
}
