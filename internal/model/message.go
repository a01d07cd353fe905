package model

import "time"

// MessageType distinguishes user-authored messages from system replies.
type MessageType string

// Message types.
const (
	MessageTypeUser   MessageType = "user"
	MessageTypeSystem MessageType = "system"
)

// IsValid reports whether the message type is a known value.
func (t MessageType) IsValid() bool {
	return t == MessageTypeUser || t == MessageTypeSystem
}

// Message is a single entry in a chat, insertion-ordered.
type Message struct {
	ID        string      `json:"id"`
	ChatID    string      `json:"chatId"`
	Message   string      `json:"message"`
	Type      MessageType `json:"type"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// MessageInput holds the caller-supplied fields for creating a message.
type MessageInput struct {
	ChatID  string
	Message string
	Type    MessageType
}

// MessageFilter selects messages by exact match on the populated fields.
type MessageFilter struct {
	ID     *string
	ChatID *string
	Type   *MessageType
}

// Match reports whether the message satisfies every populated filter field.
func (f MessageFilter) Match(m Message) bool {
	if f.ID != nil && *f.ID != m.ID {
		return false
	}
	if f.ChatID != nil && *f.ChatID != m.ChatID {
		return false
	}
	if f.Type != nil && *f.Type != m.Type {
		return false
	}
	return true
}
