package registration

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/wolfman30/raffle-registration-bot/internal/compliance"
	"github.com/wolfman30/raffle-registration-bot/internal/registrants"
	"github.com/wolfman30/raffle-registration-bot/internal/replies"
	"github.com/wolfman30/raffle-registration-bot/internal/session"
)

// minimumAge is the youngest age allowed to join the raffle.
const minimumAge = 18

func (m *Machine) onGetStarted(t *turn) {
	t.next = t.current.Reset()
	t.reply(replies.PrivacyTemplate, replies.PrivacyPrompt)
}

func (m *Machine) onTerms(t *turn, c TermsChoice) {
	if c.Agree {
		t.reply(replies.RegisteredToCampaign)
		t.moveTo(session.StepAwaitingRegistrationQuestion)
		t.audit(compliance.EventConsentAgreed, compliance.AuditDetails{})
		return
	}
	t.reply(replies.PrivacyNoticeTemplate, replies.PrivacyPrompt)
	t.moveTo(session.StepAwaitingConsent)
	t.audit(compliance.EventConsentDeclined, compliance.AuditDetails{})
}

func (m *Machine) onRegistrationChoice(t *turn, c RegistrationChoice) {
	if c.Registered {
		t.next.Returning = true
		t.reply(replies.GetMobileNumber)
		t.moveTo(session.StepAwaitingMobile)
		return
	}
	t.next.Returning = false
	m.onRegistration(t)
}

// onRegistration starts sign-up for a new registrant.
func (m *Machine) onRegistration(t *turn) {
	t.reply(replies.GetAge)
	t.moveTo(session.StepAwaitingAge)
}

// onOTPValidation tells the customer an OTP is on its way and asks for it.
func (m *Machine) onOTPValidation(t *turn, mobile string) {
	t.next.Mobile = mobile
	t.reply(replies.OTPValidationNotification, replies.GetOTPCode)
	t.moveTo(session.StepAwaitingOTP)
}

func (m *Machine) onText(ctx context.Context, t *turn, raw string) error {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	switch t.step() {
	case session.StepAwaitingMobile:
		return m.onMobileText(ctx, t, text)
	case session.StepAwaitingAge:
		m.onAgeText(t, text)
		return nil
	case session.StepAwaitingOTP:
		return m.onOTPText(ctx, t, text)
	case session.StepAwaitingName:
		return m.onNameText(ctx, t, text)
	case session.StepComplete:
		t.reply(replies.RegistrationCompletion)
		return nil
	}
	return nil
}

func (m *Machine) onMobileText(ctx context.Context, t *turn, text string) error {
	if !LooksLikePhoneNumber(text) {
		return nil
	}
	if !IsPhoneNumberWellFormed(text) {
		t.reply(replies.InvalidPhoneFormat)
		return nil
	}
	registered, err := m.registerMobileNumber(ctx, t, text)
	if err != nil {
		return err
	}
	if registered {
		m.onOTPValidation(t, text)
	}
	return nil
}

func (m *Machine) onAgeText(t *turn, text string) {
	if !LooksLikeAge(text) {
		return
	}
	age, err := strconv.Atoi(text)
	if err != nil {
		return
	}
	if age < minimumAge {
		t.reply(replies.NoToMinors)
		t.audit(compliance.EventMinorRejected, compliance.AuditDetails{Age: age})
		return
	}
	t.next.Age = age
	t.reply(replies.RegistrationMobileNumber)
	t.moveTo(session.StepAwaitingMobile)
}

func (m *Machine) onOTPText(ctx context.Context, t *turn, text string) error {
	if !LooksLikeOTPCode(text) {
		return nil
	}
	valid, err := m.validateOTP(ctx, t, otpCode(text))
	if err != nil {
		return err
	}
	if valid {
		t.reply(replies.GetName)
		t.moveTo(session.StepAwaitingName)
	}
	return nil
}

func (m *Machine) onNameText(ctx context.Context, t *turn, name string) error {
	reg, err := m.registrants.Save(ctx, registrants.SaveRequest{
		CustomerID: t.customerID,
		Mobile:     t.current.Mobile,
		Age:        t.current.Age,
		Name:       name,
		Returning:  t.current.Returning,
	})
	if err != nil {
		return fmt.Errorf("registration: save registrant: %w", err)
	}
	t.next.Name = name
	t.reply(replies.RegistrationCompletion)
	t.moveTo(session.StepComplete)
	t.audit(compliance.EventRegistrationCompleted, compliance.AuditDetails{
		Mobile:       reg.Mobile,
		RegistrantID: reg.ID,
	})
	return nil
}
