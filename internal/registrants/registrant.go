// Package registrants stores customers who finished the registration flow.
package registrants

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when no registrant exists for a customer.
var ErrNotFound = errors.New("registrants: not found")

// Registrant is a customer who completed registration.
type Registrant struct {
	ID         string
	CustomerID string
	Mobile     string
	Age        int
	Name       string
	Returning  bool
	CreatedAt  time.Time
}

// SaveRequest carries the data collected during the conversation.
type SaveRequest struct {
	CustomerID string
	Mobile     string
	Age        int
	Name       string
	Returning  bool
}

// Validate checks the fields every registrant must have.
func (r SaveRequest) Validate() error {
	var errs []error
	if strings.TrimSpace(r.CustomerID) == "" {
		errs = append(errs, errors.New("customer id is required"))
	}
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if r.Age < 0 {
		errs = append(errs, errors.New("age cannot be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return errors.Join(errors.New("registrants: invalid request"), err)
	}
	return nil
}

// Repository persists registrants. Save upserts by customer id.
type Repository interface {
	Save(ctx context.Context, req SaveRequest) (*Registrant, error)
}
