package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/raffle-registration-bot/internal/http/middleware"
	"github.com/wolfman30/raffle-registration-bot/pkg/logging"
)

// WebhookHandler serves the Messenger webhook endpoints.
type WebhookHandler interface {
	HandleVerification(w http.ResponseWriter, r *http.Request)
	HandleWebhook(w http.ResponseWriter, r *http.Request)
}

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Webhook        WebhookHandler
	MetricsHandler http.Handler

	// WebhookLimiter throttles POST /webhook per client IP (optional).
	WebhookLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Webhook != nil {
		r.Route("/webhook", func(webhook chi.Router) {
			webhook.Get("/", cfg.Webhook.HandleVerification)
			if cfg.WebhookLimiter != nil {
				webhook.With(httpmiddleware.RateLimit(cfg.WebhookLimiter)).Post("/", cfg.Webhook.HandleWebhook)
			} else {
				webhook.Post("/", cfg.Webhook.HandleWebhook)
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
