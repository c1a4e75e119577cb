package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Pacifique5/AI-BOT/internal/models"
)

// NetworkFailureNotice is appended to the transcript when a completion request never produced a
// response at all.
const NetworkFailureNotice = "Unable to reach the server. Please check your connection and try again."

const probeTimeout = 3 * time.Second

// Controller owns the conversational state of one session and drives the request lifecycle against
// the completion gateway. It maintains the append-only transcript, enforces a single request in
// flight, and translates every outcome, reply or failure, into a transcript entry.
type Controller struct {
	gatewayURL string
	persona    string

	client *http.Client
	logger *slog.Logger

	mu           sync.Mutex
	conv         Conversation
	inFlight     bool
	connectivity models.ConnectivityStatus
}

// NewController creates a Controller talking to the gateway at gatewayURL. The persona string is sent
// with every completion request; timeout bounds each completion round trip.
func NewController(gatewayURL, persona string, timeout time.Duration, logger *slog.Logger) *Controller {
	return &Controller{
		gatewayURL:   strings.TrimSuffix(gatewayURL, "/"),
		persona:      persona,
		client:       &http.Client{Timeout: timeout},
		logger:       logger.With(slog.String("module", "session")),
		connectivity: models.ConnectivityUnknown,
	}
}

// Submit appends the user's text to the transcript and performs one blocking round trip to the
// gateway, appending the assistant's reply or a synthesized error entry when it returns. It reports
// whether the submission was accepted: empty or whitespace-only input is ignored, as is any submit
// arriving while a request is already in flight.
func (c *Controller) Submit(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return false
	}
	c.inFlight = true
	c.conv.Append(models.RoleUser, text)
	req := models.CompletionRequest{
		Messages: c.conv.ChatMessages(),
		Persona:  c.persona,
	}
	connectivity := c.connectivity
	c.mu.Unlock()

	var content string
	// The deferred completion clears the in-flight flag on every path, so a failure can never wedge
	// the session.
	defer func() {
		c.mu.Lock()
		c.conv.Append(models.RoleAssistant, content)
		c.connectivity = connectivity
		c.inFlight = false
		c.mu.Unlock()
	}()

	content, connectivity = c.roundTrip(ctx, req)
	return true
}

// roundTrip performs the single completion call and flattens whatever comes back into the text of
// the next assistant transcript entry plus the resulting connectivity state.
func (c *Controller) roundTrip(ctx context.Context, req models.CompletionRequest) (string, models.ConnectivityStatus) {
	body, err := json.Marshal(req)
	if err != nil {
		return "Error: " + err.Error(), c.Connectivity()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "Error: " + err.Error(), c.Connectivity()
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("Completion request failed", slog.String("err", err.Error()))
		return NetworkFailureNotice, models.ConnectivityDisconnected
	}
	defer resp.Body.Close()

	// A response of any status means the gateway is reachable.
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("Failed to read completion response", slog.String("err", err.Error()))
		return NetworkFailureNotice, models.ConnectivityDisconnected
	}

	var res models.CompletionResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			models.ConnectivityConnected
	}

	if res.Error {
		return "Error: " + extractDetail(res.Detail), models.ConnectivityConnected
	}
	if res.Reply != "" {
		return res.Reply, models.ConnectivityConnected
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			models.ConnectivityConnected
	}
	return "Error: empty reply from server", models.ConnectivityConnected
}

// extractDetail flattens the error detail of a gateway response into a message. The fallback chain
// is: the detail's message field, then the detail as a plain string, then a generic notice.
func extractDetail(detail json.RawMessage) string {
	if len(detail) > 0 {
		var structured models.ErrorDetail
		if err := json.Unmarshal(detail, &structured); err == nil && structured.Message != "" {
			return structured.Message
		}

		var plain string
		if err := json.Unmarshal(detail, &plain); err == nil && plain != "" {
			return plain
		}
	}
	return "request failed"
}

// CheckHealth probes the gateway's liveness endpoint with a short timeout and records the result.
// Any failure, whether timeout, transport error, or a non-2xx status, counts as disconnected; the
// status stays unknown only before the first attempt completes.
func (c *Controller) CheckHealth(ctx context.Context) models.ConnectivityStatus {
	status := models.ConnectivityDisconnected

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.gatewayURL+"/health", nil)
	if err == nil {
		resp, doErr := c.client.Do(req)
		if doErr == nil {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				status = models.ConnectivityConnected
			}
			resp.Body.Close()
		} else {
			c.logger.Warn("Liveness probe failed", slog.String("err", doErr.Error()))
		}
	}

	c.mu.Lock()
	c.connectivity = status
	c.mu.Unlock()
	return status
}

// Messages returns a copy of the session transcript in insertion order.
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Messages()
}

// Connectivity returns the session's current view of the gateway.
func (c *Controller) Connectivity() models.ConnectivityStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectivity
}

// InFlight reports whether a completion request is currently outstanding.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}
