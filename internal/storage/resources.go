package storage

import "github.com/parlor/parlor/internal/model"

// Instantiated resource contracts for the three entity types. Swapping
// a backend means providing another implementation of these, nothing
// more.
type (
	UserResource    = Resource[model.User, model.UserInput, model.UserFilter]
	ChatResource    = Resource[model.Chat, model.ChatInput, model.ChatFilter]
	MessageResource = Resource[model.Message, model.MessageInput, model.MessageFilter]
)
