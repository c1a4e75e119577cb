package handlers

import (
	"log/slog"
	"net/http"
)

// HandleHome renders the chat page with the session's current transcript and connectivity state. A
// browser visiting for the first time gets a fresh session cookie and an empty transcript.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	ctrl, _ := m.ensureSession(w, r)

	views, err := messageViews(ctrl.Messages())
	if err != nil {
		m.logger.Error("Failed to render messages", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := homePageData{
		Messages:     views,
		Connectivity: string(ctrl.Connectivity()),
	}
	if err := m.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
