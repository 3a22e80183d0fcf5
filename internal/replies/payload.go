package replies

import "encoding/json"

// QuickReplyPayload is the JSON carried by the catalog's quick reply buttons.
// Exactly one topic is set.
type QuickReplyPayload struct {
	Terms        *TermsAnswer        `json:"terms,omitempty"`
	Registration *RegistrationAnswer `json:"registration,omitempty"`
}

// TermsAnswer is the privacy consent choice.
type TermsAnswer struct {
	Agree bool `json:"agree"`
}

// RegistrationAnswer is the "already registered?" choice.
type RegistrationAnswer struct {
	Registered bool `json:"registered"`
}

// TermsPayload encodes {"terms":{"agree":<agree>}}.
func TermsPayload(agree bool) string {
	return mustMarshal(QuickReplyPayload{Terms: &TermsAnswer{Agree: agree}})
}

// RegistrationPayload encodes {"registration":{"registered":<registered>}}.
func RegistrationPayload(registered bool) string {
	return mustMarshal(QuickReplyPayload{Registration: &RegistrationAnswer{Registered: registered}})
}

func mustMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
