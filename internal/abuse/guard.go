// Package abuse counts failed verification attempts per customer and flags
// customers that keep failing inside a time window.
package abuse

import (
	"context"
	"time"
)

// Attempt is the kind of verification being counted.
type Attempt string

const (
	AttemptMobile Attempt = "mobile"
	AttemptOTP    Attempt = "otp"
)

// Config bounds failed attempts.
type Config struct {
	// MaxAttempts is the failure count at which a customer is flagged.
	MaxAttempts int
	Window      time.Duration
}

// DefaultConfig flags the third failure within an hour.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, Window: time.Hour}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxAttempts < 1 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	return c
}

// Guard records failed attempts. RecordAttempt reports whether the customer
// has now reached the limit for that attempt kind; WouldExceed answers the
// same question for one more failure without counting it.
type Guard interface {
	WouldExceed(ctx context.Context, customerID string, attempt Attempt) (bool, error)
	RecordAttempt(ctx context.Context, customerID string, attempt Attempt) (bool, error)
	Reset(ctx context.Context, customerID string, attempt Attempt) error
}
