package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Pacifique5/AI-BOT/internal/models"
)

// Completer abstracts the upstream completion API. Complete performs exactly one round trip: it
// forwards a transcript plus persona and returns the reply flattened into a plain string. Configured
// reports whether the credential the upstream needs is present, without contacting it.
type Completer interface {
	Complete(ctx context.Context, messages []models.ChatMessage, persona string) (string, error)
	Configured() bool
}

// Gateway is the stateless proxy surface in front of the completion API. It exposes a chat endpoint
// that forwards transcripts and a liveness probe reporting credential configuration. Each request is
// independent; there are no retries and no shared mutable state.
type Gateway struct {
	completer Completer
	timeout   time.Duration

	logger *slog.Logger
}

// DefaultPersona is substituted when a chat request carries no persona string.
const DefaultPersona = "You are a helpful assistant."

// New creates a Gateway forwarding to the given completer. Every upstream call is bounded by timeout.
func New(completer Completer, timeout time.Duration, logger *slog.Logger) Gateway {
	return Gateway{
		completer: completer,
		timeout:   timeout,
		logger:    logger.With(slog.String("module", "gateway")),
	}
}

// HandleHealth serves the liveness probe. It reports whether the upstream credential is configured
// and never contacts the upstream API itself.
func (g Gateway) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	res := models.HealthResponse{
		Status:        models.StatusHealthy,
		APIConfigured: g.completer.Configured(),
	}
	if !res.APIConfigured {
		res.Status = models.StatusUnhealthy
	}

	writeJSON(w, http.StatusOK, res)
}

// HandleChat forwards a transcript to the upstream completion API and writes the flattened result.
// System-role messages are stripped before forwarding; the persona travels separately and falls back
// to DefaultPersona when empty. Upstream failures of any kind are normalized into an
// {error, detail} payload rather than propagated.
func (g Gateway) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.logger.Error("Failed to decode chat request", slog.String("err", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msgs := make([]models.ChatMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Role == models.RoleSystem {
			continue
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		writeError(w, http.StatusBadRequest, "include at least one user/assistant message")
		return
	}

	persona := req.Persona
	if persona == "" {
		persona = DefaultPersona
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.timeout)
	defer cancel()

	reply, err := g.completer.Complete(ctx, msgs, persona)
	if err != nil {
		status, msg := classifyError(err)
		g.logger.Error("Upstream call failed",
			slog.Int("status", status),
			slog.String("err", err.Error()))
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, models.CompletionResponse{Reply: reply})
}

// classifyError maps an upstream failure onto an HTTP status and a human-readable message. Timeouts
// become 504, errors the upstream itself reported keep their status, and anything else is treated as
// a transport failure.
func classifyError(err error) (int, string) {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "upstream request timed out"
	}

	var upstreamErr *models.UpstreamError
	if errors.As(err, &upstreamErr) {
		status := upstreamErr.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		return status, upstreamErr.Message
	}

	return http.StatusServiceUnavailable, "network error: " + err.Error()
}

func writeError(w http.ResponseWriter, status int, message string) {
	detail, _ := json.Marshal(models.ErrorDetail{Message: message})
	writeJSON(w, status, models.CompletionResponse{
		Error:  true,
		Detail: detail,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WithCORS wraps a handler with permissive cross-origin headers so browser front-ends served from
// other origins can call the gateway directly.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
