package messenger

import (
	"context"
	"net/http"
	"time"

	"github.com/wolfman30/raffle-registration-bot/internal/observability/metrics"
	"github.com/wolfman30/raffle-registration-bot/pkg/logging"
)

// ProcessedProvider namespaces Messenger message ids in the processed-event store.
const ProcessedProvider = "messenger"

// Processor consumes one inbound messaging event.
type Processor interface {
	HandleInbound(ctx context.Context, msg ParsedInboundMessage) error
}

// ProcessedStore remembers message ids that were already handled.
type ProcessedStore interface {
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// AdapterConfig holds dependencies for the Messenger adapter.
type AdapterConfig struct {
	PageAccessToken string
	AppSecret       string
	VerifyToken     string
	ClientOptions   []ClientOption
	ProcessTimeout  time.Duration
	Processor       Processor
	Processed       ProcessedStore
	Metrics         *metrics.RegistrationMetrics
	Logger          *logging.Logger
}

// Adapter is the Messenger channel adapter. It accepts webhook deliveries,
// drops redelivered messages and hands each event to the Processor; it also
// sends outbound messages through the Send API.
type Adapter struct {
	client    *Client
	webhook   *WebhookHandler
	processor Processor
	processed ProcessedStore
	logger    *logging.Logger
}

// NewAdapter creates a new Messenger adapter.
func NewAdapter(cfg AdapterConfig) *Adapter {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	a := &Adapter{
		client:    NewClient(cfg.PageAccessToken, cfg.ClientOptions...),
		processor: cfg.Processor,
		processed: cfg.Processed,
		logger:    logger,
	}
	a.webhook = NewWebhookHandler(cfg.VerifyToken, cfg.AppSecret, a.handleInboundMessage, logger).
		WithProcessTimeout(cfg.ProcessTimeout).
		WithMetrics(cfg.Metrics)
	return a
}

// SetGraphAPIBase overrides the Graph API base URL (useful for testing).
func (a *Adapter) SetGraphAPIBase(base string) {
	a.client.SetGraphAPIBase(base)
}

// SetProcessor wires the consumer after construction; the state machine
// needs the adapter as its sender, so the two are built in two steps.
func (a *Adapter) SetProcessor(p Processor) {
	a.processor = p
}

// HandleVerification handles GET /webhook (Meta challenge).
func (a *Adapter) HandleVerification(w http.ResponseWriter, r *http.Request) {
	a.webhook.HandleVerification(w, r)
}

// HandleWebhook handles POST /webhook (inbound deliveries).
func (a *Adapter) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	a.webhook.HandleInbound(w, r)
}

// Send posts one message through the Send API.
func (a *Adapter) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	resp, err := a.client.Send(ctx, req)
	if err != nil {
		a.logger.Error("messenger: failed to send message",
			"recipient_id", req.Recipient.ID,
			"error", err,
		)
	}
	return resp, err
}

// Wait blocks until in-flight webhook entries are processed or ctx is done.
func (a *Adapter) Wait(ctx context.Context) error {
	return a.webhook.Wait(ctx)
}

func (a *Adapter) handleInboundMessage(ctx context.Context, msg ParsedInboundMessage) error {
	a.logger.Debug("messenger: inbound event",
		"sender_id", msg.SenderID,
		"message_id", msg.MessageID,
		"is_postback", msg.IsPostback,
		"has_quick_reply", msg.HasQuickReply,
		"timestamp", msg.Timestamp,
	)

	if msg.MessageID != "" && a.processed != nil {
		first, err := a.processed.MarkProcessed(ctx, ProcessedProvider, msg.MessageID)
		if err != nil {
			a.logger.Warn("messenger: dedup check failed, processing anyway",
				"message_id", msg.MessageID,
				"error", err,
			)
		} else if !first {
			a.logger.Info("messenger: duplicate delivery skipped", "message_id", msg.MessageID)
			return nil
		}
	}

	if a.processor == nil {
		a.logger.Warn("messenger: no processor configured, dropping event", "sender_id", msg.SenderID)
		return nil
	}
	return a.processor.HandleInbound(ctx, msg)
}
