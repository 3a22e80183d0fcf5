package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/raffle-registration-bot/internal/observability/metrics"
)

const defaultTimeout = 5 * time.Second

type mobileLookupRequest struct {
	CustomerID string `json:"customer_id"`
	Mobile     string `json:"mobile"`
}

type mobileLookupResponse struct {
	Registered bool `json:"registered"`
}

type otpVerifyRequest struct {
	CustomerID string `json:"customer_id"`
	Mobile     string `json:"mobile"`
	Code       string `json:"code"`
}

type otpVerifyResponse struct {
	Valid bool `json:"valid"`
}

// HTTPClient talks to the registration backend over JSON/HTTP.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *metrics.RegistrationMetrics
	tracer     trace.Tracer
}

// NewHTTPClient creates a verifier for the backend at baseURL.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer("raffle.internal.verification"),
	}
}

// WithMetrics attaches verification counters.
func (c *HTTPClient) WithMetrics(m *metrics.RegistrationMetrics) *HTTPClient {
	c.metrics = m
	return c
}

func (c *HTTPClient) IsRegistered(ctx context.Context, customerID, mobile string) (bool, error) {
	var resp mobileLookupResponse
	err := c.post(ctx, "verification.mobile_lookup", "/v1/mobile/lookup",
		mobileLookupRequest{CustomerID: customerID, Mobile: mobile}, &resp)
	if err != nil {
		c.metrics.ObserveVerification("mobile", "error")
		return false, err
	}
	c.metrics.ObserveVerification("mobile", outcome(resp.Registered))
	return resp.Registered, nil
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, customerID, mobile, code string) (bool, error) {
	var resp otpVerifyResponse
	err := c.post(ctx, "verification.otp_verify", "/v1/otp/verify",
		otpVerifyRequest{CustomerID: customerID, Mobile: mobile, Code: code}, &resp)
	if err != nil {
		c.metrics.ObserveVerification("otp", "error")
		return false, err
	}
	c.metrics.ObserveVerification("otp", outcome(resp.Valid))
	return resp.Valid, nil
}

func (c *HTTPClient) post(ctx context.Context, spanName, path string, in, out any) error {
	ctx, span := c.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("http.route", path),
	))
	defer span.End()

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("verification: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("verification: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: read %s: %v", ErrUnavailable, path, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		span.SetStatus(codes.Error, "server error")
		return fmt.Errorf("%w: %s returned %d", ErrUnavailable, path, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		span.SetStatus(codes.Error, "client error")
		return fmt.Errorf("verification: %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("verification: decode %s response: %w", path, err)
	}
	return nil
}

func outcome(ok bool) string {
	if ok {
		return "positive"
	}
	return "negative"
}
