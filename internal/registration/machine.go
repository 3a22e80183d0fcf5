// Package registration runs the Messenger registration conversation: consent,
// the already-registered question, age gating, mobile and OTP verification,
// and name capture.
package registration

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/raffle-registration-bot/internal/abuse"
	"github.com/wolfman30/raffle-registration-bot/internal/channels/messenger"
	"github.com/wolfman30/raffle-registration-bot/internal/compliance"
	"github.com/wolfman30/raffle-registration-bot/internal/observability/metrics"
	"github.com/wolfman30/raffle-registration-bot/internal/registrants"
	"github.com/wolfman30/raffle-registration-bot/internal/replies"
	"github.com/wolfman30/raffle-registration-bot/internal/session"
	"github.com/wolfman30/raffle-registration-bot/internal/verification"
	"github.com/wolfman30/raffle-registration-bot/pkg/logging"
)

// ReplySender delivers one catalog reply to a customer.
type ReplySender interface {
	SendReply(ctx context.Context, customerID string, kind replies.Kind) error
}

// Config holds the machine's collaborators. Auditor, Metrics and Logger are
// optional.
type Config struct {
	Sessions    session.Store
	Replies     ReplySender
	Mobile      verification.MobileVerifier
	OTP         verification.OTPVerifier
	Guard       abuse.Guard
	Registrants registrants.Repository
	Auditor     compliance.Auditor
	Metrics     *metrics.RegistrationMetrics
	Logger      *logging.Logger
}

// Machine is the registration state machine. Turns for the same customer
// run one at a time.
type Machine struct {
	sessions    session.Store
	replies     ReplySender
	mobile      verification.MobileVerifier
	otp         verification.OTPVerifier
	guard       abuse.Guard
	registrants registrants.Repository
	auditor     compliance.Auditor
	metrics     *metrics.RegistrationMetrics
	logger      *logging.Logger
	tracer      trace.Tracer
	locks       *customerLocks
}

// NewMachine creates a machine. It panics when a required collaborator is
// missing.
func NewMachine(cfg Config) *Machine {
	switch {
	case cfg.Sessions == nil:
		panic("registration: session store cannot be nil")
	case cfg.Replies == nil:
		panic("registration: reply sender cannot be nil")
	case cfg.Mobile == nil:
		panic("registration: mobile verifier cannot be nil")
	case cfg.OTP == nil:
		panic("registration: otp verifier cannot be nil")
	case cfg.Guard == nil:
		panic("registration: abuse guard cannot be nil")
	case cfg.Registrants == nil:
		panic("registration: registrant repository cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Machine{
		sessions:    cfg.Sessions,
		replies:     cfg.Replies,
		mobile:      cfg.Mobile,
		otp:         cfg.OTP,
		guard:       cfg.Guard,
		registrants: cfg.Registrants,
		auditor:     cfg.Auditor,
		metrics:     cfg.Metrics,
		logger:      logger,
		tracer:      otel.Tracer("raffle.internal.registration"),
		locks:       newCustomerLocks(),
	}
}

// HandleInbound runs one parsed webhook message through the conversation.
func (m *Machine) HandleInbound(ctx context.Context, msg messenger.ParsedInboundMessage) error {
	ev, ok := EventFromInbound(msg)
	if !ok {
		m.logger.Debug("registration: nothing to handle", "customer_id", msg.SenderID, "message_id", msg.MessageID)
		return nil
	}
	return m.Handle(ctx, msg.SenderID, ev)
}

// Handle runs one turn: it plans the replies for ev given the customer's
// current step, sends them in order and then persists the new session. A
// failed send stops the plan and leaves the session and attempt counters
// untouched.
func (m *Machine) Handle(ctx context.Context, customerID string, ev Event) error {
	ctx, span := m.tracer.Start(ctx, "registration.handle", trace.WithAttributes(
		attribute.String("registration.event", ev.eventName()),
	))
	defer span.End()

	unlock, err := m.locks.acquire(ctx, customerID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("registration: wait for customer turn: %w", err)
	}
	defer unlock()

	current, err := m.sessions.Load(ctx, customerID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("registration: load session: %w", err)
	}

	t := newTurn(customerID, current)
	if err := m.dispatch(ctx, t, ev); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch failed")
		return err
	}
	if t.idle() {
		m.logger.Debug("registration: event ignored",
			"customer_id", customerID,
			"step", string(current.CurrentStep()),
			"event", ev.eventName(),
		)
		return nil
	}

	if err := m.deliver(ctx, t); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return err
	}

	if t.changed() {
		if err := m.sessions.Save(ctx, t.next); err != nil {
			span.RecordError(err)
			return fmt.Errorf("registration: save session: %w", err)
		}
	}
	m.applyAttempts(ctx, t)

	from, to := current.CurrentStep(), t.next.CurrentStep()
	span.SetAttributes(
		attribute.String("registration.from", string(from)),
		attribute.String("registration.to", string(to)),
	)
	m.metrics.ObserveTransition(string(from), string(to))
	m.logger.Info("registration: turn complete",
		"customer_id", customerID,
		"from", string(from),
		"to", string(to),
		"replies", len(t.plan),
	)

	for _, a := range t.audits {
		if err := compliance.Log(ctx, m.auditor, a.eventType, customerID, string(from), a.details); err != nil {
			m.logger.Error("registration: audit failed",
				"customer_id", customerID,
				"event_type", string(a.eventType),
				"error", err,
			)
		}
	}
	return nil
}

func (m *Machine) dispatch(ctx context.Context, t *turn, ev Event) error {
	switch e := ev.(type) {
	case Postback:
		if e.isGetStarted() {
			m.onGetStarted(t)
		}
		return nil
	case QuickReply:
		choice, err := ParseQuickReply(e.Payload)
		if err != nil {
			m.logger.Debug("registration: quick reply ignored", "customer_id", t.customerID, "error", err)
			return nil
		}
		switch c := choice.(type) {
		case TermsChoice:
			m.onTerms(t, c)
		case RegistrationChoice:
			m.onRegistrationChoice(t, c)
		}
		return nil
	case Text:
		return m.onText(ctx, t, e.Text)
	}
	return nil
}

func (m *Machine) deliver(ctx context.Context, t *turn) error {
	for _, kind := range t.plan {
		if err := m.replies.SendReply(ctx, t.customerID, kind); err != nil {
			return &SendError{Kind: kind, Err: err}
		}
	}
	return nil
}
