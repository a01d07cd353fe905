package model

import "time"

// Chat is a conversation owned by a single user.
type Chat struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChatInput holds the caller-supplied fields for creating a chat.
type ChatInput struct {
	Name    string
	OwnerID string
}

// ChatFilter selects chats by exact match on the populated fields.
type ChatFilter struct {
	ID      *string
	OwnerID *string
}

// Match reports whether the chat satisfies every populated filter field.
func (f ChatFilter) Match(c Chat) bool {
	if f.ID != nil && *f.ID != c.ID {
		return false
	}
	if f.OwnerID != nil && *f.OwnerID != c.OwnerID {
		return false
	}
	return true
}
