package abuse

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = time.Minute

type counter struct {
	count   int
	expires time.Time
}

// MemoryGuard is the in-process Guard used when Redis is not configured.
type MemoryGuard struct {
	mu        sync.Mutex
	config    Config
	counters  map[string]counter
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryGuard creates an in-memory guard.
func NewMemoryGuard(config Config) *MemoryGuard {
	return &MemoryGuard{
		config:   config.normalized(),
		counters: make(map[string]counter),
		now:      time.Now,
	}
}

func (g *MemoryGuard) WouldExceed(_ context.Context, customerID string, attempt Attempt) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.live(attemptKey(customerID, attempt), g.now()).count+1 >= g.config.MaxAttempts, nil
}

func (g *MemoryGuard) RecordAttempt(_ context.Context, customerID string, attempt Attempt) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := attemptKey(customerID, attempt)
	now := g.now()
	g.sweep(now)
	c := g.live(key, now)
	if c.count == 0 {
		c.expires = now.Add(g.config.Window)
	}
	c.count++
	g.counters[key] = c
	return c.count >= g.config.MaxAttempts, nil
}

func (g *MemoryGuard) Reset(_ context.Context, customerID string, attempt Attempt) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.counters, attemptKey(customerID, attempt))
	return nil
}

// live returns the counter for key, or a zero counter once its window ended.
func (g *MemoryGuard) live(key string, now time.Time) counter {
	c, ok := g.counters[key]
	if !ok || !now.Before(c.expires) {
		return counter{}
	}
	return c
}

// sweep drops expired counters at most once per sweepInterval.
func (g *MemoryGuard) sweep(now time.Time) {
	if now.Sub(g.lastSweep) < sweepInterval {
		return
	}
	g.lastSweep = now
	for key, c := range g.counters {
		if !now.Before(c.expires) {
			delete(g.counters, key)
		}
	}
}
