package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendTextMessage(t *testing.T) {
	var received SendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/me/messages", r.URL.Path)
		assert.Equal(t, "test_token", r.URL.Query().Get("access_token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SendResponse{RecipientID: "psid-1", MessageID: "mid_001"})
	}))
	defer server.Close()

	client := NewClient("test_token", WithGraphAPIBase(server.URL))
	resp, err := client.Send(context.Background(), SendRequest{
		Recipient:     SendRecipient{ID: "psid-1"},
		MessagingType: MessagingTypeResponse,
		Message:       SendMessage{Text: "Please enter your age."},
	})
	require.NoError(t, err)
	assert.Equal(t, "mid_001", resp.MessageID)
	assert.Equal(t, "psid-1", received.Recipient.ID)
	assert.Equal(t, MessagingTypeResponse, received.MessagingType)
	assert.Equal(t, "Please enter your age.", received.Message.Text)
}

func TestSendAPIErrorIsNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(SendResponse{
			Error: &SendError{Code: 100, Message: "Invalid token", Type: "OAuthException"},
		})
	}))
	defer server.Close()

	client := NewClient("bad_token", WithGraphAPIBase(server.URL), WithRetry(3, time.Millisecond))
	_, err := client.Send(context.Background(), SendRequest{Recipient: SendRecipient{ID: "psid-1"}})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 100, apiErr.Code)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSendRetriesServerErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(SendResponse{RecipientID: "psid-1", MessageID: "mid_002"})
	}))
	defer server.Close()

	client := NewClient("token", WithGraphAPIBase(server.URL), WithRetry(3, time.Millisecond))
	resp, err := client.Send(context.Background(), SendRequest{Recipient: SendRecipient{ID: "psid-1"}})
	require.NoError(t, err)
	assert.Equal(t, "mid_002", resp.MessageID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestSendGivesUpAfterMaxAttempts(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("token", WithGraphAPIBase(server.URL), WithRetry(3, time.Millisecond))
	_, err := client.Send(context.Background(), SendRequest{Recipient: SendRecipient{ID: "psid-1"}})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestSendStopsWhenContextCancelled(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient("token", WithGraphAPIBase(server.URL), WithRetry(5, time.Millisecond))
	client.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}
	_, err := client.Send(ctx, SendRequest{Recipient: SendRecipient{ID: "psid-1"}})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestBackoffIsCapped(t *testing.T) {
	client := NewClient("token", WithRetry(10, time.Second))
	assert.Equal(t, time.Second, client.backoff(1))
	assert.Equal(t, 2*time.Second, client.backoff(2))
	assert.Equal(t, maxRetryDelay, client.backoff(8))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"server error", &APIError{StatusCode: 500}, true},
		{"throttled", &APIError{StatusCode: 429}, true},
		{"bad request", &APIError{StatusCode: 400, Code: 100}, false},
		{"dial failure", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"read failure", &net.OpError{Op: "read", Err: errors.New("reset")}, false},
		{"timeout", timeoutErr{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRetry(tt.err))
		})
	}
}
