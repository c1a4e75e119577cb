package models

import "encoding/json"

// ChatMessage is the wire form of a transcript entry: a role and content pair with the transcript
// identifier stripped. The gateway and the upstream providers only ever see this shape.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the payload the front-end posts to the gateway. It carries the visible
// transcript in order plus the persona string steering the upstream model. It is built fresh from the
// conversation on every turn.
type CompletionRequest struct {
	Messages []ChatMessage `json:"messages"`
	Persona  string        `json:"persona,omitempty"`
}

// CompletionResponse is the flattened payload the gateway returns: either a plain-string reply, or an
// error flag with a best-effort detail. Reply is never a structured object.
type CompletionResponse struct {
	Reply  string          `json:"reply,omitempty"`
	Error  bool            `json:"error,omitempty"`
	Detail json.RawMessage `json:"detail,omitempty"`
}

// ErrorDetail is the structured detail shape the gateway emits on failure.
type ErrorDetail struct {
	Message string `json:"message"`
}

// HealthResponse is the liveness probe payload. APIConfigured reports whether the upstream credential
// is present in configuration; the probe never contacts the upstream itself.
type HealthResponse struct {
	Status        string `json:"status"`
	APIConfigured bool   `json:"api_configured"`
}

const (
	// StatusHealthy is reported when the upstream credential is configured.
	StatusHealthy = "healthy"
	// StatusUnhealthy is reported when the upstream credential is missing.
	StatusUnhealthy = "unhealthy"
)

// ConnectivityStatus tracks the front-end's view of the gateway, derived from the liveness probe and
// updated opportunistically after every completion call.
type ConnectivityStatus string

const (
	// ConnectivityUnknown is the state before the first probe or completion call finishes.
	ConnectivityUnknown ConnectivityStatus = "unknown"
	// ConnectivityConnected means the last probe or completion round trip reached the gateway.
	ConnectivityConnected ConnectivityStatus = "connected"
	// ConnectivityDisconnected means the last probe or completion attempt failed at the transport level.
	ConnectivityDisconnected ConnectivityStatus = "disconnected"
)
