// Package session persists where each customer is in the registration
// conversation.
package session

import (
	"context"
	"time"
)

// Step is the conversation state of one customer.
type Step string

const (
	StepAwaitingConsent              Step = "awaiting_consent"
	StepAwaitingRegistrationQuestion Step = "awaiting_registration_question"
	StepAwaitingAge                  Step = "awaiting_age"
	StepAwaitingMobile               Step = "awaiting_mobile"
	StepAwaitingOTP                  Step = "awaiting_otp"
	StepAwaitingName                 Step = "awaiting_name"
	StepComplete                     Step = "complete"
)

// Valid reports whether s is a known step. The empty step is treated as
// awaiting consent.
func (s Step) Valid() bool {
	switch s {
	case "", StepAwaitingConsent, StepAwaitingRegistrationQuestion, StepAwaitingAge,
		StepAwaitingMobile, StepAwaitingOTP, StepAwaitingName, StepComplete:
		return true
	}
	return false
}

// Session is the per-customer conversation record.
type Session struct {
	CustomerID string    `json:"customer_id"`
	Step       Step      `json:"step"`
	Mobile     string    `json:"mobile,omitempty"`
	Age        int       `json:"age,omitempty"`
	Returning  bool      `json:"returning,omitempty"`
	Name       string    `json:"name,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// New returns a fresh session for a customer who has not started yet.
func New(customerID string) Session {
	return Session{CustomerID: customerID, Step: StepAwaitingConsent}
}

// CurrentStep returns the step, mapping the zero value to awaiting consent.
func (s Session) CurrentStep() Step {
	if s.Step == "" {
		return StepAwaitingConsent
	}
	return s.Step
}

// Reset clears collected data and returns to the consent step.
func (s Session) Reset() Session {
	return New(s.CustomerID)
}

// Store loads and saves sessions. Load returns a fresh session for unknown
// customers.
type Store interface {
	Load(ctx context.Context, customerID string) (Session, error)
	Save(ctx context.Context, s Session) error
}
