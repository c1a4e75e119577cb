package session

import (
	"time"

	"github.com/Pacifique5/AI-BOT/internal/models"
)

// Conversation holds the ordered, append-only transcript of a single chat session. Messages live only
// in memory and the sequence ends with the session. IDs are monotonically increasing within the
// conversation so insertion order is recoverable from the records themselves.
//
// Conversation is not safe for concurrent use; the owning Controller serializes access.
type Conversation struct {
	messages []models.Message
	nextID   int64
}

// Append adds a new immutable message to the end of the transcript and returns it. Appended messages
// are never removed or rewritten, including on request failure.
func (c *Conversation) Append(role models.Role, content string) models.Message {
	c.nextID++
	msg := models.Message{
		ID:        c.nextID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	c.messages = append(c.messages, msg)
	return msg
}

// Messages returns a copy of the transcript in insertion order.
func (c *Conversation) Messages() []models.Message {
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages in the transcript.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// ChatMessages returns the transcript in wire form: IDs stripped and system-role messages filtered
// out, ready to be replayed to the completion gateway.
func (c *Conversation) ChatMessages() []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(c.messages))
	for _, msg := range c.messages {
		if msg.Role == models.RoleSystem {
			continue
		}
		out = append(out, models.ChatMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return out
}
