package registration

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/wolfman30/raffle-registration-bot/internal/channels/messenger"
	"github.com/wolfman30/raffle-registration-bot/internal/replies"
)

const (
	getStartedTitle   = "get started"
	getStartedPayload = "GET_STARTED"
)

var (
	// ErrMalformedPayload is returned for quick reply payloads that are not JSON.
	ErrMalformedPayload = errors.New("registration: malformed quick reply payload")
	// ErrUnknownChoice is returned for JSON payloads with no known topic.
	ErrUnknownChoice = errors.New("registration: unknown quick reply topic")
)

// Event is one inbound customer action: a Postback, a QuickReply or a Text.
type Event interface {
	eventName() string
}

// Postback is a tap on a persistent button such as Get Started.
type Postback struct {
	Title   string
	Payload string
}

// QuickReply is a tap on a quick reply button, carrying its raw payload.
type QuickReply struct {
	Payload string
}

// Text is a typed message.
type Text struct {
	Text string
}

func (Postback) eventName() string   { return "postback" }
func (QuickReply) eventName() string { return "quick_reply" }
func (Text) eventName() string       { return "text" }

// EventFromInbound converts a parsed webhook message. Quick replies win over
// the text Messenger sends alongside them. The second result is false when
// the message carries nothing the conversation can use.
func EventFromInbound(msg messenger.ParsedInboundMessage) (Event, bool) {
	switch {
	case msg.IsPostback:
		return Postback{Title: msg.PostbackTitle, Payload: msg.PostbackPayload}, true
	case msg.HasQuickReply:
		return QuickReply{Payload: msg.QuickReplyPayload}, true
	case msg.Text != "":
		return Text{Text: msg.Text}, true
	}
	return nil, false
}

func (p Postback) isGetStarted() bool {
	return strings.EqualFold(strings.TrimSpace(p.Title), getStartedTitle) ||
		strings.EqualFold(strings.TrimSpace(p.Payload), getStartedPayload)
}

// Choice is a decoded quick reply: TermsChoice or RegistrationChoice.
type Choice interface {
	choiceName() string
}

// TermsChoice answers the privacy consent prompt.
type TermsChoice struct {
	Agree bool
}

// RegistrationChoice answers "are you already registered?".
type RegistrationChoice struct {
	Registered bool
}

func (TermsChoice) choiceName() string        { return "terms" }
func (RegistrationChoice) choiceName() string { return "registration" }

// ParseQuickReply decodes a payload produced by the reply catalog.
func ParseQuickReply(payload string) (Choice, error) {
	if !IsWellFormedJSON(payload) {
		return nil, ErrMalformedPayload
	}
	var decoded replies.QuickReplyPayload
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, ErrUnknownChoice
	}
	switch {
	case decoded.Terms != nil:
		return TermsChoice{Agree: decoded.Terms.Agree}, nil
	case decoded.Registration != nil:
		return RegistrationChoice{Registered: decoded.Registration.Registered}, nil
	}
	return nil, ErrUnknownChoice
}
