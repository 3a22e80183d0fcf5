package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultGraphAPIBase = "https://graph.facebook.com/v18.0"
	defaultHTTPTimeout  = 10 * time.Second
	defaultMaxAttempts  = 3
	defaultBaseDelay    = 250 * time.Millisecond
	maxRetryDelay       = 5 * time.Second
)

var tracer = otel.Tracer("raffle.internal.channels.messenger")

// APIError is a failed Graph API send.
type APIError struct {
	StatusCode int
	Code       int
	Type       string
	Message    string
	FBTraceID  string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("messenger: API error %d (status %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("messenger: unexpected status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Client sends messages via the Messenger Send API.
type Client struct {
	pageAccessToken string
	graphAPIBase    string
	httpClient      *http.Client
	maxAttempts     int
	baseDelay       time.Duration
	sleep           func(ctx context.Context, d time.Duration) error
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithTimeout bounds every individual HTTP attempt.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithRetry sets the attempt budget and the first backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) ClientOption {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if baseDelay > 0 {
			c.baseDelay = baseDelay
		}
	}
}

// WithGraphAPIBase overrides the Graph API base URL.
func WithGraphAPIBase(base string) ClientOption {
	return func(c *Client) {
		if base != "" {
			c.graphAPIBase = base
		}
	}
}

// NewClient creates a new Send API client.
func NewClient(pageAccessToken string, opts ...ClientOption) *Client {
	c := &Client{
		pageAccessToken: pageAccessToken,
		graphAPIBase:    defaultGraphAPIBase,
		httpClient:      &http.Client{Timeout: defaultHTTPTimeout},
		maxAttempts:     defaultMaxAttempts,
		baseDelay:       defaultBaseDelay,
		sleep:           sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetGraphAPIBase overrides the Graph API base URL (useful for testing).
func (c *Client) SetGraphAPIBase(base string) {
	c.graphAPIBase = base
}

// Send posts one message, retrying transient failures within the attempt budget.
func (c *Client) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	ctx, span := tracer.Start(ctx, "messenger.send")
	defer span.End()
	span.SetAttributes(attribute.String("messenger.recipient_id", req.Recipient.ID))

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("messenger: marshal send request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
				break
			}
		}
		resp, err := c.post(ctx, body)
		if err == nil {
			span.SetAttributes(attribute.Int("messenger.attempts", attempt+1))
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil || !ShouldRetry(err) {
			break
		}
	}
	span.RecordError(lastErr)
	return nil, lastErr
}

func (c *Client) post(ctx context.Context, body []byte) (*SendResponse, error) {
	endpoint := fmt.Sprintf("%s/me/messages?access_token=%s", c.graphAPIBase, url.QueryEscape(c.pageAccessToken))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("messenger: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("messenger: send message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("messenger: read response: %w", err)
	}

	var sendResp SendResponse
	if jsonErr := json.Unmarshal(respBody, &sendResp); jsonErr != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("messenger: unmarshal response: %w", jsonErr)
	}
	if sendResp.Error != nil {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Code:       sendResp.Error.Code,
			Type:       sendResp.Error.Type,
			Message:    sendResp.Error.Message,
			FBTraceID:  sendResp.Error.FBTraceID,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return &sendResp, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := c.baseDelay * time.Duration(1<<(attempt-1))
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

// ShouldRetry reports whether a send error is transient: throttling, 5xx,
// or a timeout/dial failure on the way to the Graph API.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Timeout() || opErr.Op == "dial"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
