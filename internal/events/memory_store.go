package events

import (
	"context"
	"sync"
	"time"
)

// DefaultMemoryTTL is how long the in-memory store remembers an id. Meta
// stops redelivering well within a day.
const DefaultMemoryTTL = 24 * time.Hour

const sweepInterval = time.Minute

// MemoryStore is the in-process ProcessedStore used without a database.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	seen      map[string]time.Time
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultMemoryTTL
	}
	return &MemoryStore{
		ttl:  ttl,
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (m *MemoryStore) MarkProcessed(_ context.Context, provider, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	key := provider + ":" + eventID
	if expires, ok := m.seen[key]; ok && now.Before(expires) {
		return false, nil
	}
	m.seen[key] = now.Add(m.ttl)
	m.evictExpired(now)
	return true, nil
}

// evictExpired drops expired ids at most once per sweepInterval.
func (m *MemoryStore) evictExpired(now time.Time) {
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now
	for key, expires := range m.seen {
		if !now.Before(expires) {
			delete(m.seen, key)
		}
	}
}
