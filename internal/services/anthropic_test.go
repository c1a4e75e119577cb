package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Pacifique5/AI-BOT/internal/models"
)

func newTestAnthropic(t *testing.T, handler http.HandlerFunc) Anthropic {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a := NewAnthropic("test-key", "claude-3-5-haiku-latest", 1024, 0.7, discardLogger())
	a.endpoint = srv.URL
	return a
}

func TestAnthropicCompleteFlattensContentBlocks(t *testing.T) {
	a := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"content": [
				{"type": "text", "text": "Hello"},
				{"type": "tool_use", "id": "x"},
				{"type": "text", "text": " world"}
			]
		}`))
	})

	reply, err := a.Complete(context.Background(), []models.ChatMessage{
		{Role: models.RoleUser, Content: "Hi"},
	}, "persona")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "Hello world" {
		t.Errorf("Complete() reply = %q, want %q", reply, "Hello world")
	}
}

func TestAnthropicCompleteUpstreamError(t *testing.T) {
	a := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "rate_limit_error", "message": "Rate limited"}}`))
	})

	_, err := a.Complete(context.Background(), []models.ChatMessage{
		{Role: models.RoleUser, Content: "Hi"},
	}, "persona")

	var upstreamErr *models.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("Complete() error = %v, want *models.UpstreamError", err)
	}
	if upstreamErr.Status != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", upstreamErr.Status)
	}
	if upstreamErr.Message != "Rate limited" {
		t.Errorf("message = %q", upstreamErr.Message)
	}
}

func TestAnthropicCompleteMissingText(t *testing.T) {
	a := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content": []}`))
	})

	_, err := a.Complete(context.Background(), []models.ChatMessage{
		{Role: models.RoleUser, Content: "Hi"},
	}, "persona")

	var upstreamErr *models.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("Complete() error = %v, want *models.UpstreamError", err)
	}
}
