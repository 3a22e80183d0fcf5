package messenger

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/raffle-registration-bot/internal/observability/metrics"
	"github.com/wolfman30/raffle-registration-bot/pkg/logging"
)

const (
	maxWebhookBody        = 1 << 20
	defaultProcessTimeout = 30 * time.Second
	eventReceivedBody     = "EVENT_RECEIVED"
)

// InboundHandler processes one parsed messaging event.
type InboundHandler func(ctx context.Context, msg ParsedInboundMessage) error

// WebhookHandler handles Messenger webhook verification and inbound deliveries.
type WebhookHandler struct {
	verifyToken    string
	appSecret      string
	onMessage      InboundHandler
	processTimeout time.Duration
	metrics        *metrics.RegistrationMetrics
	logger         *logging.Logger

	wg sync.WaitGroup
}

// NewWebhookHandler creates a new webhook handler. onMessage runs once per
// entry, each in its own goroutine, after the delivery has been acknowledged.
// When appSecret is empty the X-Hub-Signature-256 check is skipped.
func NewWebhookHandler(verifyToken, appSecret string, onMessage InboundHandler, logger *logging.Logger) *WebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		verifyToken:    verifyToken,
		appSecret:      appSecret,
		onMessage:      onMessage,
		processTimeout: defaultProcessTimeout,
		logger:         logger,
	}
}

// WithProcessTimeout bounds how long a single entry may take.
func (h *WebhookHandler) WithProcessTimeout(d time.Duration) *WebhookHandler {
	if d > 0 {
		h.processTimeout = d
	}
	return h
}

// WithMetrics attaches inbound counters.
func (h *WebhookHandler) WithMetrics(m *metrics.RegistrationMetrics) *WebhookHandler {
	h.metrics = m
	return h
}

// HandleVerification handles the GET webhook verification challenge from Meta.
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && h.verifyToken != "" && token == h.verifyToken {
		h.logger.Info("messenger: webhook verified")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleInbound handles POST webhook deliveries.
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if h.appSecret != "" && !VerifySignature(h.appSecret, body, r.Header.Get("X-Hub-Signature-256")) {
		h.logger.Warn("messenger: invalid webhook signature")
		h.metrics.ObserveInbound("delivery", "unauthorized")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.metrics.ObserveInbound("delivery", "malformed")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if event.Object != ObjectPage {
		h.metrics.ObserveInbound("delivery", "not_page")
		http.NotFound(w, r)
		return
	}

	// Acknowledge before processing; Meta retries slow deliveries.
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, eventReceivedBody)

	for _, msg := range ParseWebhookEvent(event) {
		h.dispatch(r.Context(), msg)
	}
	h.metrics.ObserveWebhookLatency(time.Since(start).Seconds())
}

// dispatch runs one entry detached from the request; a failure or panic in
// one entry never reaches its siblings.
func (h *WebhookHandler) dispatch(parent context.Context, msg ParsedInboundMessage) {
	if h.onMessage == nil {
		return
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), h.processTimeout)
		defer cancel()
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("messenger: panic while processing entry",
					"sender_id", msg.SenderID,
					"panic", fmt.Sprint(rec),
				)
				h.metrics.ObserveInbound(eventType(msg), "panic")
			}
		}()

		if err := h.onMessage(ctx, msg); err != nil {
			h.logger.Error("messenger: failed to process entry",
				"sender_id", msg.SenderID,
				"message_id", msg.MessageID,
				"error", err,
			)
			h.metrics.ObserveInbound(eventType(msg), "failed")
			return
		}
		h.metrics.ObserveInbound(eventType(msg), "processed")
	}()
}

// Wait blocks until in-flight entries finish or ctx is done.
func (h *WebhookHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ParseWebhookEvent extracts the first messaging event of every entry.
// Echoes of the page's own messages and events without a sender are dropped.
func ParseWebhookEvent(event WebhookEvent) []ParsedInboundMessage {
	var messages []ParsedInboundMessage
	for _, entry := range event.Entry {
		if len(entry.Messaging) == 0 {
			continue
		}
		m := entry.Messaging[0]
		if strings.TrimSpace(m.Sender.ID) == "" {
			continue
		}
		parsed := ParsedInboundMessage{
			SenderID:    m.Sender.ID,
			RecipientID: m.Recipient.ID,
			Timestamp:   time.UnixMilli(m.Timestamp),
		}
		switch {
		case m.Postback != nil:
			parsed.IsPostback = true
			parsed.PostbackTitle = m.Postback.Title
			parsed.PostbackPayload = m.Postback.Payload
		case m.Message != nil:
			if m.Message.IsEcho {
				continue
			}
			parsed.MessageID = m.Message.MID
			parsed.Text = m.Message.Text
			if m.Message.QuickReply != nil {
				parsed.HasQuickReply = true
				parsed.QuickReplyPayload = m.Message.QuickReply.Payload
			}
		default:
			continue
		}
		messages = append(messages, parsed)
	}
	return messages
}

// VerifySignature verifies the X-Hub-Signature-256 header.
func VerifySignature(appSecret string, body []byte, signature string) bool {
	if appSecret == "" || signature == "" {
		return false
	}

	// Signature format: "sha256=<hex>"
	const prefix = "sha256="
	if !strings.HasPrefix(signature, prefix) || len(signature) == len(prefix) {
		return false
	}
	sigHex := signature[len(prefix):]

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sigHex))
}

func eventType(msg ParsedInboundMessage) string {
	switch {
	case msg.IsPostback:
		return "postback"
	case msg.HasQuickReply:
		return "quick_reply"
	default:
		return "text"
	}
}
