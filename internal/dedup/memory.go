package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local fingerprint cache. Expired entries are
// purged lazily on each check.
type MemoryStore struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]time.Time
}

// NewMemoryStore creates a store with the given window (DefaultWindow if <= 0).
func NewMemoryStore(window time.Duration) *MemoryStore {
	if window <= 0 {
		window = DefaultWindow
	}
	return &MemoryStore{
		window:  window,
		entries: make(map[string]time.Time),
	}
}

// CheckAndInsert never returns an error.
func (m *MemoryStore) CheckAndInsert(_ context.Context, fp string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purge(now)
	if _, ok := m.entries[fp]; ok {
		// Timestamp is not refreshed: the window runs from the first delivery.
		return true, nil
	}
	m.entries[fp] = now
	return false, nil
}

// Len returns the number of live entries.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore) purge(now time.Time) {
	for fp, at := range m.entries {
		if now.Sub(at) >= m.window {
			delete(m.entries, fp)
		}
	}
}
