package registration

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	phoneShapePattern  = regexp.MustCompile(`(((\+|00[- .()]*)[0-9]{1,2}|0)([- .()]*[0-9]){9,11})`)
	localMobilePattern = regexp.MustCompile(`^09[0-9]{9}$`)
	agePattern         = regexp.MustCompile(`^(100|0|[1-9][0-9]?)$`)
	otpPattern         = regexp.MustCompile(`^[0-9]{6}([^0-9]|$)`)
)

// LooksLikePhoneNumber reports whether text contains something shaped like a
// phone number in any common notation.
func LooksLikePhoneNumber(text string) bool {
	return phoneShapePattern.MatchString(strings.TrimSpace(text))
}

// IsPhoneNumberWellFormed reports whether text is exactly a local mobile
// number: "09" followed by nine digits.
func IsPhoneNumberWellFormed(text string) bool {
	return localMobilePattern.MatchString(strings.TrimSpace(text))
}

// LooksLikeAge reports whether text is a whole number from 0 to 100 without
// leading zeros.
func LooksLikeAge(text string) bool {
	return agePattern.MatchString(strings.TrimSpace(text))
}

// LooksLikeOTPCode reports whether text starts with exactly six digits.
func LooksLikeOTPCode(text string) bool {
	return otpPattern.MatchString(strings.TrimSpace(text))
}

// IsWellFormedJSON reports whether text parses as JSON.
func IsWellFormedJSON(text string) bool {
	return json.Valid([]byte(text))
}

// otpCode returns the leading six digits of text. Callers check
// LooksLikeOTPCode first.
func otpCode(text string) string {
	return strings.TrimSpace(text)[:6]
}
