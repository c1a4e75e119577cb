package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Pacifique5/AI-BOT/internal/models"
	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAI provides an implementation of the Completer interface for OpenAI's chat completion API, or
// any OpenAI-compatible endpoint reachable through a custom base URL.
type OpenAI struct {
	apiKey      string
	model       string
	temperature float32

	client *goopenai.Client

	logger *slog.Logger
}

// NewOpenAI creates a new OpenAI instance with the specified API key, base URL, model name, and
// sampling temperature. An empty baseURL targets the official OpenAI endpoint.
func NewOpenAI(apiKey, baseURL, model string, temperature float32, logger *slog.Logger) OpenAI {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return OpenAI{
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		client:      goopenai.NewClientWithConfig(cfg),
		logger:      logger.With(slog.String("module", "openai")),
	}
}

// Configured reports whether the API key required by the upstream is present.
func (o OpenAI) Configured() bool {
	return o.apiKey != ""
}

// Complete sends the transcript to the chat completion API and returns the assistant's reply as a
// plain string. The persona is delivered as the leading system message. Upstream failures are
// returned as *models.UpstreamError so the gateway can pass the status through.
func (o OpenAI) Complete(ctx context.Context, messages []models.ChatMessage, persona string) (string, error) {
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(messages)+1)
	msgs = append(msgs, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleSystem,
		Content: persona,
	})
	for _, msg := range messages {
		msgs = append(msgs, goopenai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	req := goopenai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    msgs,
		Temperature: o.temperature,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return "", &models.UpstreamError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		var reqErr *goopenai.RequestError
		if errors.As(err, &reqErr) {
			return "", &models.UpstreamError{Status: reqErr.HTTPStatusCode, Message: reqErr.Error()}
		}
		return "", fmt.Errorf("error sending request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", &models.UpstreamError{Message: "upstream response missing choices"}
	}

	reply := extractText(resp.Choices[0].Message)
	if reply == "" {
		return "", &models.UpstreamError{Message: "upstream response missing text content"}
	}

	o.logger.Debug("Received completion", slog.Int("replyLen", len(reply)))

	return reply, nil
}

// extractText flattens a chat completion message into a plain string. The fallback chain is: the
// message's string content, then the concatenated text of its multi-part content. Callers treat an
// empty result as a malformed upstream response.
func extractText(msg goopenai.ChatCompletionMessage) string {
	if msg.Content != "" {
		return msg.Content
	}

	var sb strings.Builder
	for _, part := range msg.MultiContent {
		if part.Type == goopenai.ChatMessagePartTypeText {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
