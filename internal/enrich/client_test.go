//nolint:testpackage // Client tests point the base URL at a local server
package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonesrussell/pocketish/internal/config"
	"github.com/jonesrussell/pocketish/internal/logger"
)

func newTestClient(baseURL string, maxAttempts int) *Client {
	return NewClient(config.EnrichmentConfig{
		APIKey:      "test-key",
		Model:       "test-model",
		BaseURL:     baseURL,
		MaxAttempts: maxAttempts,
		Timeout:     5 * time.Second,
	}, logger.NewNop())
}

func TestNewClient_NoAPIKey(t *testing.T) {
	client := NewClient(config.EnrichmentConfig{}, logger.NewNop())
	if client != nil {
		t.Error("NewClient() without API key should return nil")
	}
}

func TestClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"content": "{\"summary\": \"ok\"}"}}]}`))
	}))
	defer server.Close()

	content, completeErr := newTestClient(server.URL, 3).Complete(context.Background(), []Message{
		{Role: "user", Content: "hello"},
	})
	if completeErr != nil {
		t.Fatalf("Complete() error = %v", completeErr)
	}
	if content != `{"summary": "ok"}` {
		t.Errorf("Complete() content = %q", content)
	}
}

func TestClient_Complete_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "second try"}}]}`))
	}))
	defer server.Close()

	content, completeErr := newTestClient(server.URL, 3).Complete(context.Background(), []Message{
		{Role: "user", Content: "hello"},
	})
	if completeErr != nil {
		t.Fatalf("Complete() error = %v", completeErr)
	}
	if content != "second try" {
		t.Errorf("Complete() content = %q", content)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server saw %d calls, want 2", got)
	}
}

func TestClient_Complete_FatalNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	_, completeErr := newTestClient(server.URL, 3).Complete(context.Background(), []Message{
		{Role: "user", Content: "hello"},
	})
	if completeErr == nil {
		t.Fatal("Complete() expected error for 400 response")
	}
	if IsTransient(completeErr) {
		t.Error("Complete() 400 should be fatal, not transient")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want 1 (no retry)", got)
	}
}
