package registration

import (
	"errors"
	"fmt"

	"github.com/wolfman30/raffle-registration-bot/internal/replies"
)

// ErrVerifier wraps failures of the mobile or OTP verification backend.
// The turn is abandoned without a reply.
var ErrVerifier = errors.New("registration: verifier failed")

// SendError reports the reply that could not be delivered. Replies planned
// after it were not sent.
type SendError struct {
	Kind replies.Kind
	Err  error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("registration: send %s: %v", e.Kind, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}
