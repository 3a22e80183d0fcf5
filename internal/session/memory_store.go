package session

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = time.Minute

// MemoryStore keeps sessions in process memory. Used when Redis is not
// configured and in tests. Sessions idle for longer than the TTL are
// forgotten, like their Redis counterparts.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	sessions  map[string]Session
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryStore creates an empty in-memory store. A non-positive ttl uses
// DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, customerID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[customerID]; ok && m.live(sess, m.now()) {
		return sess, nil
	}
	return New(customerID), nil
}

func (m *MemoryStore) Save(_ context.Context, sess Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	sess.UpdatedAt = now.UTC()
	m.sessions[sess.CustomerID] = sess
	return nil
}

func (m *MemoryStore) live(sess Session, now time.Time) bool {
	return now.Before(sess.UpdatedAt.Add(m.ttl))
}

// sweep drops expired sessions at most once per sweepInterval.
func (m *MemoryStore) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now
	for id, sess := range m.sessions {
		if !m.live(sess, now) {
			delete(m.sessions, id)
		}
	}
}
