package registration

import (
	"context"
	"fmt"

	"github.com/wolfman30/raffle-registration-bot/internal/abuse"
	"github.com/wolfman30/raffle-registration-bot/internal/compliance"
	"github.com/wolfman30/raffle-registration-bot/internal/replies"
)

// registerMobileNumber looks the number up. It returns true when the number
// is registered; every other outcome plans its own corrective replies.
func (m *Machine) registerMobileNumber(ctx context.Context, t *turn, mobile string) (bool, error) {
	ctx, span := m.tracer.Start(ctx, "registration.register_mobile")
	defer span.End()

	registered, err := m.mobile.IsRegistered(ctx, t.customerID, mobile)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("%w: mobile lookup: %w", ErrVerifier, err)
	}
	if registered {
		t.resetAttempts(abuse.AttemptMobile)
		return true, nil
	}

	if m.locksOut(ctx, t.customerID, abuse.AttemptMobile) {
		t.resetAttempts(abuse.AttemptMobile)
		t.reply(replies.NumerousInvalidRegistrationAttempts, replies.PrivacyTemplate, replies.PrivacyPrompt)
		t.next = t.current.Reset()
		t.audit(compliance.EventMobileLockout, compliance.AuditDetails{Mobile: mobile})
		return false, nil
	}
	t.recordFailure(abuse.AttemptMobile)
	t.reply(replies.RetryMobileNumber)
	return false, nil
}

// validateOTP checks code against the number remembered in the session. It
// returns true for a valid code; every other outcome plans its own
// corrective replies.
func (m *Machine) validateOTP(ctx context.Context, t *turn, code string) (bool, error) {
	ctx, span := m.tracer.Start(ctx, "registration.validate_otp")
	defer span.End()

	valid, err := m.otp.VerifyOTP(ctx, t.customerID, t.current.Mobile, code)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("%w: otp verification: %w", ErrVerifier, err)
	}
	if valid {
		t.resetAttempts(abuse.AttemptOTP)
		return true, nil
	}

	if m.locksOut(ctx, t.customerID, abuse.AttemptOTP) {
		t.resetAttempts(abuse.AttemptOTP)
		t.reply(replies.NumerousInvalidOTPRequest)
		t.next.Mobile = ""
		m.onRegistration(t)
		t.audit(compliance.EventOTPLockout, compliance.AuditDetails{Mobile: t.current.Mobile})
		return false, nil
	}
	t.recordFailure(abuse.AttemptOTP)
	t.reply(replies.RetryOTPCode)
	return false, nil
}

// locksOut reports whether this failure reaches the attempt limit. Nothing
// is counted here; the turn records the failure once its replies are
// delivered. A guard error is logged and treated as not abusive.
func (m *Machine) locksOut(ctx context.Context, customerID string, attempt abuse.Attempt) bool {
	exceed, err := m.guard.WouldExceed(ctx, customerID, attempt)
	if err != nil {
		m.logger.Error("registration: abuse check failed, allowing retry",
			"customer_id", customerID,
			"attempt", string(attempt),
			"error", err,
		)
		return false
	}
	return exceed
}

// applyAttempts commits the turn's counter changes after its replies were
// delivered and its session saved. Failures are logged.
func (m *Machine) applyAttempts(ctx context.Context, t *turn) {
	for _, op := range t.attempts {
		var err error
		if op.reset {
			err = m.guard.Reset(ctx, t.customerID, op.attempt)
		} else {
			_, err = m.guard.RecordAttempt(ctx, t.customerID, op.attempt)
		}
		if err != nil {
			m.logger.Warn("registration: failed to update attempt counter",
				"customer_id", t.customerID,
				"attempt", string(op.attempt),
				"reset", op.reset,
				"error", err,
			)
		}
	}
}
