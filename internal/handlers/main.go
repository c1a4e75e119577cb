package handlers

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	aibot "github.com/Pacifique5/AI-BOT"
	"github.com/Pacifique5/AI-BOT/internal/models"
	"github.com/Pacifique5/AI-BOT/internal/session"
	"github.com/tmaxmax/go-sse"
)

// Main handles the web front-end of the chat application: the home page, the chat form, and the
// server-sent events pushing transcript and connectivity updates to the browser.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template

	sessions *session.Manager

	logger *slog.Logger
}

const sessionCookieName = "chat_session"

const errLoggerKey = "err"

// SSE event types for real-time updates.
var (
	transcriptSSEType   = sse.Type("transcript")
	connectivitySSEType = sse.Type("connectivity")
)

// NewMain creates a new Main instance backed by the given session manager. It parses the required
// HTML templates from the embedded filesystem and configures the SSE server so each browser session
// only receives events for its own transcript.
func NewMain(sessions *session.Manager, logger *slog.Logger) (Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.ParseFS(
		aibot.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, err
	}

	return Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				topics := []string{sse.DefaultTopic}

				// Events are scoped per chat session, identified by the same cookie the page handlers use
				if cookie, err := s.Req.Cookie(sessionCookieName); err == nil {
					topics = append(topics, sessionTopic(cookie.Value))
				}

				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      topics,
				}, true
			},
		},
		templates: tmpl,
		sessions:  sessions,
		logger:    logger.With(slog.String("module", "handlers")),
	}, nil
}

func sessionTopic(sessionID string) string {
	return "session-" + sessionID
}

// HandleSSE serves the event stream carrying transcript and connectivity updates.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	m.sseSrv.ServeHTTP(w, r)
}

// Shutdown gracefully terminates the Main instance's SSE server. It broadcasts a close message to all
// connected clients and waits up to 5 seconds for connections to terminate. After the timeout, any
// remaining connections are forcefully closed.
func (m Main) Shutdown(ctx context.Context) error {
	e := &sse.Message{Type: sse.Type("closeChat")}
	// We create a close event that complies with SSE spec requiring data
	e.AppendData("bye")

	// We ignore the error here since we're shutting down anyway
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}

// ensureSession resolves the controller for the request's session cookie, creating a new session and
// cookie when none exists yet. New sessions immediately probe the gateway's liveness in the
// background and push the result over SSE.
func (m Main) ensureSession(w http.ResponseWriter, r *http.Request) (*session.Controller, string) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if ctrl, ok := m.sessions.Controller(cookie.Value); ok {
			return ctrl, cookie.Value
		}
	}

	id, ctrl := m.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})

	go func() {
		status := ctrl.CheckHealth(context.Background())
		m.publishConnectivity(id, status)
	}()

	return ctrl, id
}

func (m Main) publishTranscript(sessionID string, views []messageView) {
	var sb strings.Builder
	if err := m.templates.ExecuteTemplate(&sb, "transcript", transcriptData{Messages: views}); err != nil {
		m.logger.Error("Failed to execute transcript template", slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := sse.Message{Type: transcriptSSEType}
	msg.AppendData(sb.String())
	if err := m.sseSrv.Publish(&msg, sessionTopic(sessionID)); err != nil {
		m.logger.Error("Failed to publish transcript", slog.String(errLoggerKey, err.Error()))
	}
}

func (m Main) publishConnectivity(sessionID string, status models.ConnectivityStatus) {
	msg := sse.Message{Type: connectivitySSEType}
	msg.AppendData(string(status))
	if err := m.sseSrv.Publish(&msg, sessionTopic(sessionID)); err != nil {
		m.logger.Error("Failed to publish connectivity", slog.String(errLoggerKey, err.Error()))
	}
}

type messageView struct {
	ID        int64
	Role      string
	Content   template.HTML
	Timestamp time.Time
}

type transcriptData struct {
	Messages []messageView
}

type homePageData struct {
	Messages     []messageView
	Connectivity string
}

func messageViews(msgs []models.Message) ([]messageView, error) {
	views := make([]messageView, len(msgs))
	for i, msg := range msgs {
		content, err := models.RenderContent(msg.Content)
		if err != nil {
			return nil, err
		}
		views[i] = messageView{
			ID:        msg.ID,
			Role:      string(msg.Role),
			Content:   template.HTML(content), // goldmark escapes raw HTML in the markdown source
			Timestamp: msg.Timestamp,
		}
	}
	return views, nil
}
