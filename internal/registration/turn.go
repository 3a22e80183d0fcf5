package registration

import (
	"github.com/wolfman30/raffle-registration-bot/internal/abuse"
	"github.com/wolfman30/raffle-registration-bot/internal/compliance"
	"github.com/wolfman30/raffle-registration-bot/internal/replies"
	"github.com/wolfman30/raffle-registration-bot/internal/session"
)

type auditEntry struct {
	eventType compliance.AuditEventType
	details   compliance.AuditDetails
}

type attemptOp struct {
	attempt abuse.Attempt
	reset   bool
}

// turn is the outcome of one event: the ordered replies to send, and the
// session, attempt counters and audits to commit once they are all
// delivered.
type turn struct {
	customerID string
	current    session.Session
	next       session.Session
	plan       []replies.Kind
	attempts   []attemptOp
	audits     []auditEntry
}

func newTurn(customerID string, current session.Session) *turn {
	current.CustomerID = customerID
	return &turn{customerID: customerID, current: current, next: current}
}

func (t *turn) reply(kinds ...replies.Kind) {
	t.plan = append(t.plan, kinds...)
}

func (t *turn) audit(eventType compliance.AuditEventType, details compliance.AuditDetails) {
	t.audits = append(t.audits, auditEntry{eventType: eventType, details: details})
}

func (t *turn) recordFailure(attempt abuse.Attempt) {
	t.attempts = append(t.attempts, attemptOp{attempt: attempt})
}

func (t *turn) resetAttempts(attempt abuse.Attempt) {
	t.attempts = append(t.attempts, attemptOp{attempt: attempt, reset: true})
}

func (t *turn) moveTo(step session.Step) {
	t.next.Step = step
}

func (t *turn) step() session.Step {
	return t.current.CurrentStep()
}

func (t *turn) changed() bool {
	return t.next != t.current
}

func (t *turn) idle() bool {
	return len(t.plan) == 0 && !t.changed()
}
