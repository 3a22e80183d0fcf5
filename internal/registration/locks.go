package registration

import (
	"context"
	"sync"
)

// customerLocks serializes turns per customer id. Distinct ids never share a
// lock, and entries are dropped once nobody holds or waits for them.
type customerLocks struct {
	mu    sync.Mutex
	slots map[string]*customerSlot
}

type customerSlot struct {
	held chan struct{}
	refs int
}

func newCustomerLocks() *customerLocks {
	return &customerLocks{slots: make(map[string]*customerSlot)}
}

// acquire blocks until the customer's lock is free or ctx is done.
func (l *customerLocks) acquire(ctx context.Context, customerID string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[customerID]
	if !ok {
		slot = &customerSlot{held: make(chan struct{}, 1)}
		l.slots[customerID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.held <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.held
				l.release(customerID, slot)
			})
		}, nil
	case <-ctx.Done():
		l.release(customerID, slot)
		return nil, ctx.Err()
	}
}

func (l *customerLocks) release(customerID string, slot *customerSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, customerID)
	}
}

func (l *customerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
