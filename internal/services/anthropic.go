package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Pacifique5/AI-BOT/internal/models"
)

// Anthropic provides an implementation of the Completer interface for the Anthropic messages API
// using Claude models. Replies arrive as a list of content blocks, which Complete flattens into a
// single string.
type Anthropic struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float32

	endpoint string
	client   *http.Client

	logger *slog.Logger
}

type anthropicChatRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Temperature float32            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicChatResponse struct {
	Content []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

const anthropicAPIEndpoint = "https://api.anthropic.com/v1"

// NewAnthropic creates a new Anthropic instance with the specified API key, model name, maximum token
// limit, and sampling temperature.
func NewAnthropic(apiKey, model string, maxTokens int, temperature float32, logger *slog.Logger) Anthropic {
	return Anthropic{
		apiKey:      apiKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		endpoint:    anthropicAPIEndpoint,
		client:      &http.Client{},
		logger:      logger.With(slog.String("module", "anthropic")),
	}
}

// Configured reports whether the API key required by the upstream is present.
func (a Anthropic) Configured() bool {
	return a.apiKey != ""
}

// Complete sends the transcript to the Anthropic messages API and returns the reply flattened into a
// plain string. The persona is delivered through the request's system field.
func (a Anthropic) Complete(ctx context.Context, messages []models.ChatMessage, persona string) (string, error) {
	msgs := make([]anthropicMessage, len(messages))
	for i, msg := range messages {
		msgs[i] = anthropicMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	reqBody := anthropicChatRequest{
		Model:       a.model,
		Messages:    msgs,
		System:      persona,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	a.logger.Debug("Request Body", slog.String("body", string(jsonBody)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.endpoint+"/messages", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e anthropicError
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
			return "", &models.UpstreamError{Status: resp.StatusCode, Message: resp.Status}
		}
		return "", &models.UpstreamError{Status: resp.StatusCode, Message: e.Error.Message}
	}

	var res anthropicChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}

	var sb strings.Builder
	for _, block := range res.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &models.UpstreamError{Message: "upstream response missing text content"}
	}

	return sb.String(), nil
}
