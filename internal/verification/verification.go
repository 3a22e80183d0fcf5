// Package verification checks mobile numbers and OTP codes against the
// campaign's registration backend.
package verification

import (
	"context"
	"errors"
)

// ErrUnavailable marks a transport failure; callers must not treat it as a
// negative answer.
var ErrUnavailable = errors.New("verification: backend unavailable")

// MobileVerifier reports whether a mobile number is registered to the
// campaign. A positive lookup also triggers OTP delivery on the backend.
type MobileVerifier interface {
	IsRegistered(ctx context.Context, customerID, mobile string) (bool, error)
}

// OTPVerifier checks a one-time code sent to the customer's mobile number.
type OTPVerifier interface {
	VerifyOTP(ctx context.Context, customerID, mobile, code string) (bool, error)
}

// Verifier is a backend that answers both questions.
type Verifier interface {
	MobileVerifier
	OTPVerifier
}
