package compliance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/raffle-registration-bot/pkg/logging"
)

// LogAuditor writes audit events to the structured log. Used when no
// database is configured.
type LogAuditor struct {
	logger *logging.Logger

	mu     sync.Mutex
	events []AuditEvent
}

// NewLogAuditor creates a log-backed auditor.
func NewLogAuditor(logger *logging.Logger) *LogAuditor {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogAuditor{logger: logger}
}

func (a *LogAuditor) LogEvent(_ context.Context, event AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	a.mu.Lock()
	a.events = append(a.events, event)
	a.mu.Unlock()

	a.logger.Info("audit event",
		"event_type", string(event.EventType),
		"customer_id", event.CustomerID,
		"step", event.Step,
		"details", string(event.Details),
	)
	return nil
}

// Events returns a copy of the events logged so far.
func (a *LogAuditor) Events() []AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]AuditEvent, len(a.events))
	copy(out, a.events)
	return out
}
