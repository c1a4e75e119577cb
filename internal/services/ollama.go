package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Pacifique5/AI-BOT/internal/models"
	"github.com/ollama/ollama/api"
)

// Ollama provides an implementation of the Completer interface for a locally hosted Ollama server.
// No credential is required; the upstream is addressed by host URL alone.
type Ollama struct {
	host        string
	model       string
	temperature float32

	client *api.Client
}

// NewOllama creates a new Ollama instance with the specified host URL and model name. The host
// parameter should be a valid URL pointing to an Ollama server. If the provided host URL is invalid,
// the function will panic.
func NewOllama(host, model string, temperature float32) Ollama {
	u, err := url.Parse(host)
	if err != nil {
		panic(err)
	}

	return Ollama{
		host:        host,
		model:       model,
		temperature: temperature,
		client:      api.NewClient(u, &http.Client{}),
	}
}

// Configured reports whether the upstream is addressable. Ollama has no credential, so a non-empty
// host is the whole requirement.
func (o Ollama) Configured() bool {
	return o.host != ""
}

// Complete sends the transcript to the Ollama chat API without streaming and returns the final reply
// content. The persona is delivered as the leading system message.
func (o Ollama) Complete(ctx context.Context, messages []models.ChatMessage, persona string) (string, error) {
	msgs := make([]api.Message, 0, len(messages)+1)
	msgs = append(msgs, api.Message{
		Role:    "system",
		Content: persona,
	})
	for _, msg := range messages {
		msgs = append(msgs, api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	f := false
	req := api.ChatRequest{
		Model:    o.model,
		Messages: msgs,
		Stream:   &f,
		Options: map[string]any{
			"temperature": o.temperature,
		},
	}

	var sb strings.Builder
	if err := o.client.Chat(ctx, &req, func(res api.ChatResponse) error {
		sb.WriteString(res.Message.Content)
		return nil
	}); err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", &models.UpstreamError{Status: statusErr.StatusCode, Message: statusErr.ErrorMessage}
		}
		return "", fmt.Errorf("error sending request: %w", err)
	}

	if sb.Len() == 0 {
		return "", &models.UpstreamError{Message: "upstream response missing text content"}
	}

	return sb.String(), nil
}
