package handlers

import (
	"log/slog"
	"net/http"
)

// HandleChat processes a chat submission from the web form. It blocks for the single round trip to
// the completion gateway, then renders the updated transcript as the response and publishes the same
// update over SSE so any other open view of the session redraws too.
//
// The handler expects a "message" form field. Empty input is rejected, and a submission arriving
// while the session already has a request in flight is ignored rather than queued, mirroring the
// disabled state of the form.
func (m Main) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	msg := r.FormValue("message")
	if msg == "" {
		m.logger.Error("Message is required")
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	ctrl, sessionID := m.ensureSession(w, r)

	if !ctrl.Submit(r.Context(), msg) {
		// Whitespace-only input or a request already in flight; the transcript is unchanged.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	views, err := messageViews(ctrl.Messages())
	if err != nil {
		m.logger.Error("Failed to render messages", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.publishTranscript(sessionID, views)
	m.publishConnectivity(sessionID, ctrl.Connectivity())

	if err := m.templates.ExecuteTemplate(w, "transcript", transcriptData{Messages: views}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleConnectivity reports the session's view of the gateway. A POST re-runs the liveness probe on
// demand before reporting; a GET returns the current state without probing.
func (m Main) HandleConnectivity(w http.ResponseWriter, r *http.Request) {
	ctrl, sessionID := m.ensureSession(w, r)

	status := ctrl.Connectivity()
	if r.Method == http.MethodPost {
		status = ctrl.CheckHealth(r.Context())
		m.publishConnectivity(sessionID, status)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(status))
}
