package replies

import (
	"fmt"
	"strings"

	"github.com/wolfman30/raffle-registration-bot/internal/channels/messenger"
)

// Campaign carries the copy that varies between raffle campaigns.
type Campaign struct {
	Brand    string `yaml:"brand"`
	Product  string `yaml:"product"`
	Name     string `yaml:"name"`
	PageURL  string `yaml:"page_url"`
	Contact  string `yaml:"contact"`
	PermitNo string `yaml:"permit_no"`
	SeriesNo string `yaml:"series_no"`
}

// Catalog renders reply kinds into Send API requests.
type Catalog struct {
	campaign Campaign
}

// NewCatalog creates a catalog for the given campaign.
func NewCatalog(campaign Campaign) *Catalog {
	return &Catalog{campaign: campaign}
}

// Render builds the outbound message for kind addressed to customerID.
// It panics on a kind that is not part of All.
func (c *Catalog) Render(customerID string, kind Kind) messenger.SendRequest {
	recipient := messenger.SendRecipient{ID: customerID}

	switch kind {
	case PrivacyTemplate:
		subtitle := fmt.Sprintf("Please agree our Privacy Notice to understand how we will collect and use your personal data. "+
			"For any questions on the use of your personal data, please contact %s. Visit %s for more info.",
			c.campaign.Contact, displayURL(c.campaign.PageURL))
		return messenger.SendRequest{Recipient: recipient, Message: c.privacyCard(subtitle)}
	case PrivacyNoticeTemplate:
		return messenger.SendRequest{
			Recipient: recipient,
			Message:   c.privacyCard("You need to agree to our Privacy Policy for you to proceed."),
		}
	case PrivacyPrompt:
		return quickReplies(recipient, "Do you Agree?",
			messenger.QuickReplyOption{ContentType: "text", Title: "YES I AGREE!", Payload: TermsPayload(true)},
			messenger.QuickReplyOption{ContentType: "text", Title: "NO I DISAGREE!", Payload: TermsPayload(false)},
		)
	case RegisteredToCampaign:
		return quickReplies(recipient, fmt.Sprintf("Are you already registered to %s?", c.campaign.Name),
			messenger.QuickReplyOption{ContentType: "text", Title: "Yes", Payload: RegistrationPayload(true)},
			messenger.QuickReplyOption{ContentType: "text", Title: "Not Yet", Payload: RegistrationPayload(false)},
		)
	case GetMobileNumber:
		return text(recipient, "Please enter your registered mobile number.")
	case InvalidPhoneFormat:
		return text(recipient, "Sorry the format you entered is invalid. Please use the valid format and try again (09xxxxxxx).")
	case RetryMobileNumber:
		return text(recipient, "Sorry the mobile number you've enter is invalid. Please try again.")
	case NumerousInvalidRegistrationAttempts:
		return text(recipient, "You’ve made numerous invalid registration attempts. Please agree again to our Privacy Policy for you to proceed.")
	case GetAge:
		return text(recipient, "Please enter your age.")
	case RegistrationMobileNumber:
		return text(recipient, "Enter your mobile number.")
	case NoToMinors:
		return text(recipient, fmt.Sprintf("Sorry this %s promo requires you to be 18 years old or older. Thank you.", c.campaign.Brand))
	case OTPValidationNotification:
		return text(recipient, "You will receive an OTP code to authenticate your mobile number. Please check your mobile phone.")
	case GetOTPCode:
		return text(recipient, "Please enter the OTP code sent to your mobile number.")
	case RetryOTPCode:
		return text(recipient, "Sorry incorrect OTP, please try again.")
	case NumerousInvalidOTPRequest:
		return text(recipient, "You’ve made numerous invalid attempts. Please register again")
	case GetName:
		return text(recipient, "Please enter your First Name and Last Name (Juan Dela Cruz).")
	case RegistrationCompletion:
		return text(recipient, fmt.Sprintf("Congratulations and thank you for buying %s! You may now start collecting your raffle entries. "+
			"Per DOH-FDA-CFRR Permit No. %s s. %s. Please choose one of the options below to start.",
			c.campaign.Product, c.campaign.PermitNo, c.campaign.SeriesNo))
	}
	panic(fmt.Sprintf("replies: no catalog entry for %s", kind))
}

func (c *Catalog) privacyCard(subtitle string) messenger.SendMessage {
	return messenger.SendMessage{
		Attachment: &messenger.Attachment{
			Type: "template",
			Payload: messenger.Payload{
				TemplateType: "generic",
				Elements: []messenger.Element{{
					Title:    "Privacy",
					Subtitle: subtitle,
					DefaultAction: &messenger.DefaultAction{
						Type:               "web_url",
						URL:                c.campaign.PageURL,
						WebviewHeightRatio: "COMPACT",
					},
					Buttons: []messenger.Button{{
						Type:  "web_url",
						URL:   c.campaign.PageURL,
						Title: "Click Here",
					}},
				}},
			},
		},
	}
}

func text(recipient messenger.SendRecipient, body string) messenger.SendRequest {
	return messenger.SendRequest{
		Recipient:     recipient,
		MessagingType: messenger.MessagingTypeResponse,
		Message:       messenger.SendMessage{Text: body},
	}
}

func quickReplies(recipient messenger.SendRecipient, body string, options ...messenger.QuickReplyOption) messenger.SendRequest {
	req := text(recipient, body)
	req.Message.QuickReplies = options
	return req
}

// displayURL strips the scheme for inline mentions ("www.facebook.com/...").
func displayURL(u string) string {
	u = strings.TrimPrefix(u, "https://")
	return strings.TrimPrefix(u, "http://")
}
