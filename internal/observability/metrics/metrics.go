package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegistrationMetrics exposes counters/histograms for the registration bot.
type RegistrationMetrics struct {
	inboundTotal      *prometheus.CounterVec
	repliesTotal      *prometheus.CounterVec
	verificationTotal *prometheus.CounterVec
	transitionsTotal  *prometheus.CounterVec
	webhookLatency    prometheus.Histogram
}

func NewRegistrationMetrics(reg prometheus.Registerer) *RegistrationMetrics {
	m := &RegistrationMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raffle",
			Subsystem: "messenger",
			Name:      "inbound_events_total",
			Help:      "Inbound Messenger events by type and processing status",
		}, []string{"event_type", "status"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raffle",
			Subsystem: "messenger",
			Name:      "replies_total",
			Help:      "Outbound replies by kind and send status",
		}, []string{"kind", "status"}),
		verificationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raffle",
			Subsystem: "registration",
			Name:      "verifications_total",
			Help:      "Mobile and OTP verification outcomes",
		}, []string{"verifier", "outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raffle",
			Subsystem: "registration",
			Name:      "step_transitions_total",
			Help:      "Conversation step transitions",
		}, []string{"from", "to"}),
		webhookLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "raffle",
			Subsystem: "messenger",
			Name:      "webhook_ack_latency_seconds",
			Help:      "Time from webhook receipt to acknowledgement",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.repliesTotal, m.verificationTotal, m.transitionsTotal, m.webhookLatency)
	return m
}

func (m *RegistrationMetrics) ObserveInbound(eventType, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(eventType, status).Inc()
}

func (m *RegistrationMetrics) ObserveReply(kind, status string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(kind, status).Inc()
}

func (m *RegistrationMetrics) ObserveVerification(verifier, outcome string) {
	if m == nil {
		return
	}
	m.verificationTotal.WithLabelValues(verifier, outcome).Inc()
}

func (m *RegistrationMetrics) ObserveTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *RegistrationMetrics) ObserveWebhookLatency(seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.Observe(seconds)
}
