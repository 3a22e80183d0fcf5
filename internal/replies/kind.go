package replies

import "fmt"

// Kind identifies one canned reply of the registration conversation.
type Kind int

const (
	PrivacyTemplate Kind = iota + 1
	PrivacyNoticeTemplate
	PrivacyPrompt
	RegisteredToCampaign
	GetMobileNumber
	InvalidPhoneFormat
	RetryMobileNumber
	NumerousInvalidRegistrationAttempts
	GetAge
	RegistrationMobileNumber
	NoToMinors
	OTPValidationNotification
	GetOTPCode
	RetryOTPCode
	NumerousInvalidOTPRequest
	GetName
	RegistrationCompletion
)

var kindNames = map[Kind]string{
	PrivacyTemplate:                     "privacy_template",
	PrivacyNoticeTemplate:               "privacy_notice_template",
	PrivacyPrompt:                       "privacy_prompt",
	RegisteredToCampaign:                "registered_to_campaign",
	GetMobileNumber:                     "get_mobile_number",
	InvalidPhoneFormat:                  "invalid_phone_format",
	RetryMobileNumber:                   "retry_mobile_number",
	NumerousInvalidRegistrationAttempts: "numerous_invalid_registration_attempts",
	GetAge:                              "get_age",
	RegistrationMobileNumber:            "registration_mobile_number",
	NoToMinors:                          "no_to_minors",
	OTPValidationNotification:           "otp_validation_notification",
	GetOTPCode:                          "get_otp_code",
	RetryOTPCode:                        "retry_otp_code",
	NumerousInvalidOTPRequest:           "numerous_invalid_otp_request",
	GetName:                             "get_name",
	RegistrationCompletion:              "registration_completion",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is a known reply.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// All returns every reply kind in declaration order.
func All() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for k := PrivacyTemplate; k <= RegistrationCompletion; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}
