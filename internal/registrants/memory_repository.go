package registrants

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository is the Repository used without a database.
type InMemoryRepository struct {
	mu   sync.RWMutex
	rows map[string]*Registrant
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{rows: make(map[string]*Registrant)}
}

func (r *InMemoryRepository) Save(_ context.Context, req SaveRequest) (*Registrant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.rows[req.CustomerID]
	if !ok {
		reg = &Registrant{ID: uuid.New().String(), CustomerID: req.CustomerID, CreatedAt: time.Now().UTC()}
		r.rows[req.CustomerID] = reg
	}
	reg.Mobile = req.Mobile
	reg.Age = req.Age
	reg.Name = req.Name
	reg.Returning = req.Returning

	out := *reg
	return &out, nil
}

func (r *InMemoryRepository) GetByCustomerID(_ context.Context, customerID string) (*Registrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.rows[customerID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *reg
	return &out, nil
}
