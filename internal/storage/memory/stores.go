package memory

import (
	"time"

	"github.com/parlor/parlor/internal/model"
	"github.com/parlor/parlor/internal/storage"
)

// NewUserStore creates an in-memory user store. Email uniqueness is
// enforced inside Create, atomically with the insert.
func NewUserStore() *Store[model.User, model.UserInput, model.UserFilter] {
	return NewStore(Hooks[model.User, model.UserInput, model.UserFilter]{
		Build: func(input model.UserInput, id string, now time.Time) model.User {
			return model.User{
				ID:        id,
				Name:      input.Name,
				Email:     input.Email,
				Password:  input.Password,
				CreatedAt: now,
				UpdatedAt: now,
			}
		},
		Merge: func(current model.User, patch model.UserInput, now time.Time) model.User {
			if patch.Name != "" {
				current.Name = patch.Name
			}
			if patch.Email != "" {
				current.Email = patch.Email
			}
			if patch.Password != "" {
				current.Password = patch.Password
			}
			current.UpdatedAt = now
			return current
		},
		ID: func(u model.User) string { return u.ID },
		Conflicts: func(existing model.User, input model.UserInput) bool {
			return existing.Email == input.Email
		},
	})
}

// NewChatStore creates an in-memory chat store.
func NewChatStore() *Store[model.Chat, model.ChatInput, model.ChatFilter] {
	return NewStore(Hooks[model.Chat, model.ChatInput, model.ChatFilter]{
		Build: func(input model.ChatInput, id string, now time.Time) model.Chat {
			return model.Chat{
				ID:        id,
				Name:      input.Name,
				OwnerID:   input.OwnerID,
				CreatedAt: now,
				UpdatedAt: now,
			}
		},
		Merge: func(current model.Chat, patch model.ChatInput, now time.Time) model.Chat {
			if patch.Name != "" {
				current.Name = patch.Name
			}
			if patch.OwnerID != "" {
				current.OwnerID = patch.OwnerID
			}
			current.UpdatedAt = now
			return current
		},
		ID: func(c model.Chat) string { return c.ID },
	})
}

// NewMessageStore creates an in-memory message store.
func NewMessageStore() *Store[model.Message, model.MessageInput, model.MessageFilter] {
	return NewStore(Hooks[model.Message, model.MessageInput, model.MessageFilter]{
		Build: func(input model.MessageInput, id string, now time.Time) model.Message {
			return model.Message{
				ID:        id,
				ChatID:    input.ChatID,
				Message:   input.Message,
				Type:      input.Type,
				CreatedAt: now,
				UpdatedAt: now,
			}
		},
		Merge: func(current model.Message, patch model.MessageInput, now time.Time) model.Message {
			if patch.Message != "" {
				current.Message = patch.Message
			}
			if patch.ChatID != "" {
				current.ChatID = patch.ChatID
			}
			if patch.Type != "" {
				current.Type = patch.Type
			}
			current.UpdatedAt = now
			return current
		},
		ID: func(m model.Message) string { return m.ID },
	})
}

// Interface checks. If a store stops satisfying the contract, these
// lines fail to compile.
var (
	_ storage.Resource[model.User, model.UserInput, model.UserFilter]          = (*Store[model.User, model.UserInput, model.UserFilter])(nil)
	_ storage.Resource[model.Chat, model.ChatInput, model.ChatFilter]          = (*Store[model.Chat, model.ChatInput, model.ChatFilter])(nil)
	_ storage.Resource[model.Message, model.MessageInput, model.MessageFilter] = (*Store[model.Message, model.MessageInput, model.MessageFilter])(nil)
)
