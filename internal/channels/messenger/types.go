package messenger

import "time"

// ObjectPage is the only webhook object this channel subscribes to.
const ObjectPage = "page"

// MessagingTypeResponse marks a send as a reply to a user-initiated message.
const MessagingTypeResponse = "RESPONSE"

// WebhookEvent is the top-level structure received from Meta's webhook.
type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry represents a single entry in the webhook payload.
type Entry struct {
	ID        string      `json:"id"`
	Time      int64       `json:"time"`
	Messaging []Messaging `json:"messaging"`
}

// Messaging represents a single messaging event.
type Messaging struct {
	Sender    Sender    `json:"sender"`
	Recipient Recipient `json:"recipient"`
	Timestamp int64     `json:"timestamp"`
	Message   *Message  `json:"message,omitempty"`
	Postback  *Postback `json:"postback,omitempty"`
}

// Sender identifies who sent the message.
type Sender struct {
	ID string `json:"id"`
}

// Recipient identifies the page that received the message.
type Recipient struct {
	ID string `json:"id"`
}

// Message contains the message content.
type Message struct {
	MID        string      `json:"mid"`
	Text       string      `json:"text"`
	IsEcho     bool        `json:"is_echo,omitempty"`
	QuickReply *QuickReply `json:"quick_reply,omitempty"`
}

// QuickReply carries the payload of the quick reply button the user tapped.
type QuickReply struct {
	Payload string `json:"payload"`
}

// Postback represents a postback event (persistent menu or Get Started tap).
type Postback struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// SendRequest is the payload sent to the Graph API to send a message.
type SendRequest struct {
	Recipient     SendRecipient `json:"recipient"`
	MessagingType string        `json:"messaging_type,omitempty"`
	Message       SendMessage   `json:"message"`
}

// SendRecipient identifies who to send the message to.
type SendRecipient struct {
	ID string `json:"id"`
}

// SendMessage is the message content for outbound messages.
type SendMessage struct {
	Text         string             `json:"text,omitempty"`
	QuickReplies []QuickReplyOption `json:"quick_replies,omitempty"`
	Attachment   *Attachment        `json:"attachment,omitempty"`
}

// QuickReplyOption is a tappable choice shown under a text message.
type QuickReplyOption struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Payload     string `json:"payload"`
}

// Attachment represents a structured message attachment.
type Attachment struct {
	Type    string  `json:"type"`
	Payload Payload `json:"payload"`
}

// Payload is the template attachment payload.
type Payload struct {
	TemplateType string    `json:"template_type"`
	Text         string    `json:"text,omitempty"`
	Elements     []Element `json:"elements,omitempty"`
	Buttons      []Button  `json:"buttons,omitempty"`
}

// Element is one card of a generic template.
type Element struct {
	Title         string         `json:"title"`
	Subtitle      string         `json:"subtitle,omitempty"`
	DefaultAction *DefaultAction `json:"default_action,omitempty"`
	Buttons       []Button       `json:"buttons,omitempty"`
}

// DefaultAction is the action taken when the card itself is tapped.
type DefaultAction struct {
	Type                string `json:"type"`
	URL                 string `json:"url"`
	MessengerExtensions bool   `json:"messenger_extensions"`
	WebviewHeightRatio  string `json:"webview_height_ratio,omitempty"`
}

// Button represents a button in a template.
type Button struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// SendResponse is the response from the Graph API after sending a message.
type SendResponse struct {
	RecipientID string     `json:"recipient_id"`
	MessageID   string     `json:"message_id"`
	Error       *SendError `json:"error,omitempty"`
}

// SendError represents an error returned by the Graph API.
type SendError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`
}

// ParsedInboundMessage is the normalized result of parsing one messaging event.
type ParsedInboundMessage struct {
	SenderID          string
	RecipientID       string
	MessageID         string
	Timestamp         time.Time
	IsPostback        bool
	PostbackTitle     string
	PostbackPayload   string
	HasQuickReply     bool
	QuickReplyPayload string
	Text              string
}
