package verification

import (
	"context"
	"strings"
)

// DefaultStubOTPCode is the code the stub accepts when none is configured.
const DefaultStubOTPCode = "415122"

// Stub answers from configuration. Used for demos and local runs.
type Stub struct {
	Registered bool
	OTPCode    string
}

// NewStub creates a stub verifier.
func NewStub(registered bool, otpCode string) *Stub {
	if otpCode == "" {
		otpCode = DefaultStubOTPCode
	}
	return &Stub{Registered: registered, OTPCode: otpCode}
}

func (s *Stub) IsRegistered(context.Context, string, string) (bool, error) {
	return s.Registered, nil
}

// VerifyOTP accepts the configured code, ignoring anything after the sixth
// character (customers sometimes type "415122." or "415122 thanks").
func (s *Stub) VerifyOTP(_ context.Context, _, _, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if len(code) > len(s.OTPCode) {
		code = code[:len(s.OTPCode)]
	}
	return code == s.OTPCode, nil
}
