package replies

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/raffle-registration-bot/internal/channels/messenger"
	"github.com/wolfman30/raffle-registration-bot/internal/observability/metrics"
	"github.com/wolfman30/raffle-registration-bot/pkg/logging"
)

// MessageSender posts a rendered request to the Send API.
type MessageSender interface {
	Send(ctx context.Context, req messenger.SendRequest) (*messenger.SendResponse, error)
}

// Sender renders catalog replies and delivers them one at a time.
type Sender struct {
	catalog *Catalog
	out     MessageSender
	metrics *metrics.RegistrationMetrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewSender wires a catalog to an outbound transport.
func NewSender(catalog *Catalog, out MessageSender, logger *logging.Logger) *Sender {
	if catalog == nil {
		panic("replies: catalog cannot be nil")
	}
	if out == nil {
		panic("replies: message sender cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Sender{
		catalog: catalog,
		out:     out,
		logger:  logger,
		tracer:  otel.Tracer("raffle.internal.replies"),
	}
}

// WithMetrics attaches reply counters.
func (s *Sender) WithMetrics(m *metrics.RegistrationMetrics) *Sender {
	s.metrics = m
	return s
}

// SendReply renders kind for customerID and sends it.
func (s *Sender) SendReply(ctx context.Context, customerID string, kind Kind) error {
	ctx, span := s.tracer.Start(ctx, "replies.send", trace.WithAttributes(
		attribute.String("reply.kind", kind.String()),
	))
	defer span.End()

	req := s.catalog.Render(customerID, kind)
	if _, err := s.out.Send(ctx, req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		s.metrics.ObserveReply(kind.String(), "failed")
		return fmt.Errorf("replies: send %s: %w", kind, err)
	}

	s.metrics.ObserveReply(kind.String(), "sent")
	s.logger.Debug("reply sent", "customer_id", customerID, "kind", kind.String())
	return nil
}
