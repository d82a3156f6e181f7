package store

import (
	"sync"

	"github.com/jpalmerr/starfield/internal/metrics"
)

// MemoryStore is an in-memory implementation of [Store].
//
// Stars are kept in a slice in insertion order; lookups and viewport queries
// are linear scans. A single mutex guards the stars, the ID counter and the
// subscriber set, so applying a mutation and publishing its event happen
// atomically with respect to readers and other writers.
type MemoryStore struct {
	mu          sync.RWMutex
	stars       []Star
	lastID      int64
	subscribers map[*Subscription]struct{}
	bufferSize  int
}

// NewMemoryStore creates a new in-memory [Store] implementation.
//
// bufferSize is the channel capacity of each subscription; values <= 0 use
// [DefaultSubscriberBuffer]. The store starts empty.
func NewMemoryStore(bufferSize int) *MemoryStore {
	if bufferSize <= 0 {
		bufferSize = DefaultSubscriberBuffer
	}
	return &MemoryStore{
		subscribers: make(map[*Subscription]struct{}),
		bufferSize:  bufferSize,
	}
}

// Insert stores a new star and publishes an add event.
//
// Coordinates and message are accepted as given. The returned star's ID is
// strictly greater than every ID previously assigned by this store.
func (m *MemoryStore) Insert(x, y float64, message string) Star {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID++
	star := Star{ID: m.lastID, X: x, Y: y, Message: message}
	m.stars = append(m.stars, star)

	m.publishLocked(StarUpdate{Event: EventAdd, Star: star})
	return star
}

// Remove deletes the first star with the given ID and publishes a remove event.
func (m *MemoryStore) Remove(id int64) (Star, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, s := range m.stars {
		if s.ID != id {
			continue
		}
		m.stars = append(m.stars[:i], m.stars[i+1:]...)
		m.publishLocked(StarUpdate{Event: EventRemove, Star: s})
		return s, true
	}
	return Star{}, false
}

// Get returns the star with the given ID.
func (m *MemoryStore) Get(id int64) (Star, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.stars {
		if s.ID == id {
			return s, true
		}
	}
	return Star{}, false
}

// Clear removes every star and publishes a remove event for each, in
// insertion order. The ID counter is not reset.
func (m *MemoryStore) Clear() []Star {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := m.stars
	m.stars = nil
	for _, s := range removed {
		m.publishLocked(StarUpdate{Event: EventRemove, Star: s})
	}
	return removed
}

// Query returns every star inside v, in insertion order.
//
// The returned slice is a copy; modifications do not affect the store.
func (m *MemoryStore) Query(v Viewport) []Star {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Star, 0)
	for _, s := range m.stars {
		if v.Contains(s.X, s.Y) {
			results = append(results, s)
		}
	}
	return results
}

// All returns a snapshot of every star in insertion order.
func (m *MemoryStore) All() []Star {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Star, len(m.stars))
	copy(results, m.stars)
	return results
}

// Len returns the number of stored stars.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stars)
}

// Subscribe creates a new subscription.
//
// The subscription receives every update published after this call returns.
// Caller must call [MemoryStore.Unsubscribe] when done.
func (m *MemoryStore) Subscribe() *Subscription {
	sub := newSubscription(m.bufferSize)

	m.mu.Lock()
	m.subscribers[sub] = struct{}{}
	m.mu.Unlock()

	return sub
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times, and on a subscription that was evicted.
func (m *MemoryStore) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subscribers[sub]; ok {
		delete(m.subscribers, sub)
		close(sub.ch)
	}
}

// Subscribers returns the number of active subscriptions.
func (m *MemoryStore) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}

// publishLocked delivers u to every subscriber. m.mu must be held for writing.
//
// Sends never block: a subscriber whose buffer is full is evicted.
func (m *MemoryStore) publishLocked(u StarUpdate) {
	metrics.RecordMutation(string(u.Event))

	for sub := range m.subscribers {
		select {
		case sub.ch <- u:
		default:
			sub.dropped.Store(true)
			delete(m.subscribers, sub)
			close(sub.ch)
		}
	}
}
