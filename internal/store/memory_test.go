package store

import (
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/reviewq/internal/status"
)

func snapAt(tick uint64) status.Snapshot {
	return status.Snapshot{Tick: tick, Task: "checking assigned"}
}

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	if store == nil {
		t.Fatal("NewMemoryStore() = nil")
	}

	if _, ok := store.Latest(); ok {
		t.Error("Latest() ok = true before any update")
	}
}

func TestMemoryStore_UpdateReplacesLatest(t *testing.T) {
	store := NewMemoryStore()

	store.Update(snapAt(1))
	store.Update(snapAt(2))

	got, ok := store.Latest()
	if !ok {
		t.Fatal("Latest() ok = false after update")
	}
	if got.Tick != 2 {
		t.Errorf("Latest().Tick = %d, want 2", got.Tick)
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() = nil")
	}

	go store.Update(snapAt(7))

	select {
	case snap := <-ch:
		if snap.Tick != 7 {
			t.Errorf("received Tick = %d, want 7", snap.Tick)
		}
	case <-time.After(1 * time.Second):
		t.Error("Subscribe() channel did not receive update")
	}
}

func TestMemoryStore_MultipleSubscribers(t *testing.T) {
	store := NewMemoryStore()

	ch1 := store.Subscribe()
	ch2 := store.Subscribe()
	ch3 := store.Subscribe()

	go store.Update(snapAt(1))

	received := 0
	timeout := time.After(1 * time.Second)

	for received < 3 {
		select {
		case <-ch1:
			received++
		case <-ch2:
			received++
		case <-ch3:
			received++
		case <-timeout:
			t.Fatalf("Only received %d/3 updates", received)
		}
	}
}

func TestMemoryStore_Unsubscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	store.Unsubscribe(ch)
	store.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Unsubscribe() channel should be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Unsubscribe() channel should be closed immediately")
	}

	// updates after unsubscribe must not panic on the closed channel
	store.Update(snapAt(1))
}

func TestMemoryStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewMemoryStore()

	// never read
	_ = store.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10*subscriberBuffer; i++ {
			store.Update(snapAt(uint64(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Update() blocked on slow subscriber")
	}

	if got, _ := store.Latest(); got.Tick != uint64(10*subscriberBuffer-1) {
		t.Errorf("Latest().Tick = %d, want last update", got.Tick)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.Update(snapAt(uint64(j)))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = store.Latest()
			}
		}()
		go func() {
			defer wg.Done()
			ch := store.Subscribe()
			time.Sleep(10 * time.Millisecond)
			store.Unsubscribe(ch)
		}()
	}

	wg.Wait()
}
