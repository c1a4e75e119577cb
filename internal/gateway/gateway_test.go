package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Pacifique5/AI-BOT/internal/gateway"
	"github.com/Pacifique5/AI-BOT/internal/models"
)

type mockCompleter struct {
	reply      string
	err        error
	configured bool

	gotMessages []models.ChatMessage
	gotPersona  string
}

func (m *mockCompleter) Complete(_ context.Context, messages []models.ChatMessage, persona string) (string, error) {
	m.gotMessages = messages
	m.gotPersona = persona
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockCompleter) Configured() bool {
	return m.configured
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		configured bool
		wantStatus string
	}{
		{name: "credential configured", configured: true, wantStatus: models.StatusHealthy},
		{name: "credential missing", configured: false, wantStatus: models.StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gateway.New(&mockCompleter{configured: tt.configured}, time.Second, discardLogger())

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			g.HandleHealth(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("HandleHealth() status = %d, want 200", w.Code)
			}

			var res models.HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if res.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", res.Status, tt.wantStatus)
			}
			if res.APIConfigured != tt.configured {
				t.Errorf("api_configured = %v, want %v", res.APIConfigured, tt.configured)
			}
		})
	}
}

func TestHandleChatSuccess(t *testing.T) {
	completer := &mockCompleter{reply: "Hello!", configured: true}
	g := gateway.New(completer, time.Second, discardLogger())

	body := `{"messages": [{"role": "system", "content": "ignore me"},
		{"role": "user", "content": "Hi"}], "persona": "Pirate mode"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	w := httptest.NewRecorder()
	g.HandleChat(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("HandleChat() status = %d, want 200, body %s", w.Code, w.Body.String())
	}

	var res models.CompletionResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.Reply != "Hello!" {
		t.Errorf("reply = %q, want %q", res.Reply, "Hello!")
	}
	if res.Error {
		t.Error("error = true, want false")
	}

	// System messages never reach the upstream; the persona travels separately
	if len(completer.gotMessages) != 1 {
		t.Fatalf("completer saw %d messages, want 1", len(completer.gotMessages))
	}
	if completer.gotMessages[0].Role != models.RoleUser {
		t.Errorf("completer saw role %q, want user", completer.gotMessages[0].Role)
	}
	if completer.gotPersona != "Pirate mode" {
		t.Errorf("completer saw persona %q, want %q", completer.gotPersona, "Pirate mode")
	}
}

func TestHandleChatDefaultPersona(t *testing.T) {
	completer := &mockCompleter{reply: "ok"}
	g := gateway.New(completer, time.Second, discardLogger())

	body := `{"messages": [{"role": "user", "content": "Hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	w := httptest.NewRecorder()
	g.HandleChat(w, req)

	if completer.gotPersona != gateway.DefaultPersona {
		t.Errorf("completer saw persona %q, want default", completer.gotPersona)
	}
}

func TestHandleChatRejections(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
	}{
		{
			name:       "invalid method",
			method:     http.MethodGet,
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "malformed body",
			method:     http.MethodPost,
			body:       `{"messages": `,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty messages",
			method:     http.MethodPost,
			body:       `{"messages": []}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "only system messages",
			method:     http.MethodPost,
			body:       `{"messages": [{"role": "system", "content": "hi"}]}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gateway.New(&mockCompleter{reply: "unused"}, time.Second, discardLogger())

			req := httptest.NewRequest(tt.method, "/chat", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			g.HandleChat(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleChat() status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandleChatUpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "upstream error keeps status",
			err:        &models.UpstreamError{Status: http.StatusTooManyRequests, Message: "insufficient_quota"},
			wantStatus: http.StatusTooManyRequests,
			wantDetail: "insufficient_quota",
		},
		{
			name:       "malformed upstream response",
			err:        &models.UpstreamError{Message: "upstream response missing text content"},
			wantStatus: http.StatusBadGateway,
			wantDetail: "upstream response missing text content",
		},
		{
			name:       "timeout",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantDetail: "upstream request timed out",
		},
		{
			name:       "wrapped timeout",
			err:        errors.Join(errors.New("request aborted"), context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantDetail: "upstream request timed out",
		},
		{
			name:       "transport error",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusServiceUnavailable,
			wantDetail: "network error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gateway.New(&mockCompleter{err: tt.err}, time.Second, discardLogger())

			body := `{"messages": [{"role": "user", "content": "Hi"}]}`
			req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
			w := httptest.NewRecorder()
			g.HandleChat(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleChat() status = %d, want %d", w.Code, tt.wantStatus)
			}

			var res models.CompletionResponse
			if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if !res.Error {
				t.Error("error = false, want true")
			}

			var detail models.ErrorDetail
			if err := json.Unmarshal(res.Detail, &detail); err != nil {
				t.Fatalf("failed to decode detail: %v", err)
			}
			if detail.Message != tt.wantDetail {
				t.Errorf("detail message = %q, want %q", detail.Message, tt.wantDetail)
			}
		})
	}
}

func TestWithCORS(t *testing.T) {
	handler := gateway.WithCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
