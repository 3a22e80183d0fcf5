package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpmiddleware "github.com/wolfman30/raffle-registration-bot/internal/http/middleware"
	"github.com/wolfman30/raffle-registration-bot/internal/observability/metrics"
	"github.com/wolfman30/raffle-registration-bot/pkg/logging"
)

type stubWebhook struct {
	verifications int
	deliveries    int
}

func (s *stubWebhook) HandleVerification(w http.ResponseWriter, r *http.Request) {
	s.verifications++
	_, _ = io.WriteString(w, r.URL.Query().Get("hub.challenge"))
}

func (s *stubWebhook) HandleWebhook(w http.ResponseWriter, _ *http.Request) {
	s.deliveries++
	_, _ = io.WriteString(w, "EVENT_RECEIVED")
}

func newTestRouter(t *testing.T, limiter *httpmiddleware.RateLimiter) (http.Handler, *stubWebhook) {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.NewRegistrationMetrics(reg)
	m.ObserveInbound("text", "processed")

	webhook := &stubWebhook{}
	return New(&Config{
		Logger:         logging.Discard(),
		Webhook:        webhook,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		WebhookLimiter: limiter,
	}), webhook
}

func TestRouterHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterWebhookRoutes(t *testing.T) {
	router, webhook := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.challenge=abc", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Body.String() != "abc" {
		t.Fatalf("unexpected verification response %d %q", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"object":"page"}`))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	if webhook.verifications != 1 || webhook.deliveries != 1 {
		t.Fatalf("unexpected handler calls %+v", webhook)
	}

	req = httptest.NewRequest(http.MethodDelete, "/webhook", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestRouterRateLimitsWebhook(t *testing.T) {
	router, webhook := newTestRouter(t, httpmiddleware.NewRateLimiter(0, 1))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rr.Code)
		}
	}
	if webhook.deliveries != 1 {
		t.Fatalf("expected one delivery, got %d", webhook.deliveries)
	}

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.challenge=x", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("verification must not be rate limited, got %d", rr.Code)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "raffle_messenger_inbound_events_total") {
		t.Fatalf("metrics output missing inbound counter:\n%s", rr.Body.String())
	}
}
