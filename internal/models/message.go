package models

import "time"

// Message represents an individual entry in a conversation transcript. It contains the core components
// of a chat message: a per-conversation identifier used for ordering, the participant's role, the text
// content, and the time the message was created. Messages are immutable once appended.
type Message struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Role represents the role of a message participant.
type Role string

const (
	// RoleUser represents a message typed by the user.
	RoleUser Role = "user"
	// RoleAssistant represents a reply produced by the upstream model, or a synthesized error entry
	// standing in for one.
	RoleAssistant Role = "assistant"
	// RoleSystem represents an instruction message. System messages are never transmitted upstream;
	// the persona string is delivered separately.
	RoleSystem Role = "system"
)
