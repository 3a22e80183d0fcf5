// Package compliance keeps the consent and registration audit trail.
package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEventType represents the type of audited event.
type AuditEventType string

const (
	// EventConsentAgreed is logged when a customer accepts the privacy notice.
	EventConsentAgreed AuditEventType = "consent.agreed"
	// EventConsentDeclined is logged when a customer declines the privacy notice.
	EventConsentDeclined AuditEventType = "consent.declined"
	// EventMinorRejected is logged when a customer under 18 is turned away.
	EventMinorRejected AuditEventType = "registration.minor_rejected"
	// EventRegistrationCompleted is logged when a registrant is saved.
	EventRegistrationCompleted AuditEventType = "registration.completed"
	// EventMobileLockout is logged when failed mobile lookups hit the limit.
	EventMobileLockout AuditEventType = "abuse.mobile_lockout"
	// EventOTPLockout is logged when failed OTP attempts hit the limit.
	EventOTPLockout AuditEventType = "abuse.otp_lockout"
)

// AuditEvent represents an immutable audit record.
type AuditEvent struct {
	ID         string          `json:"id"`
	EventType  AuditEventType  `json:"event_type"`
	CustomerID string          `json:"customer_id"`
	Step       string          `json:"step,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuditDetails contains event-specific details.
type AuditDetails struct {
	Age          int    `json:"age,omitempty"`
	Mobile       string `json:"mobile,omitempty"`
	RegistrantID string `json:"registrant_id,omitempty"`
	Attempts     int    `json:"attempts,omitempty"`
}

// Auditor records audit events.
type Auditor interface {
	LogEvent(ctx context.Context, event AuditEvent) error
}

// AuditService writes audit events to Postgres.
type AuditService struct {
	db *sql.DB
}

// NewAuditService creates a new audit service.
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db}
}

// LogEvent records an audit event.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO consent_audit_events (
			id, event_type, customer_id, step, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.CustomerID,
		nullString(event.Step),
		nullJSON(event.Details),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("compliance: failed to log audit event: %w", err)
	}

	return nil
}

// Log is a convenience wrapper that encodes details.
func Log(ctx context.Context, auditor Auditor, eventType AuditEventType, customerID, step string, details AuditDetails) error {
	if auditor == nil {
		return nil
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("compliance: encode details: %w", err)
	}
	return auditor.LogEvent(ctx, AuditEvent{
		EventType:  eventType,
		CustomerID: customerID,
		Step:       step,
		Details:    detailsJSON,
	})
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 || string(raw) == "{}" {
		return nil
	}
	return []byte(raw)
}
