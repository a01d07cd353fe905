package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/parlor/parlor/internal/metrics"
	"github.com/parlor/parlor/internal/model"
	"github.com/parlor/parlor/internal/storage"
)

// ErrNotFound indicates the requested chat or message does not exist
// for the caller. Cross-tenant lookups surface the same error as truly
// missing entities.
var ErrNotFound = errors.New("not found")

// systemReplyText is the placeholder reply created after every user
// message.
const systemReplyText = "dummy response"

// ChatService handles chats and their messages, always scoped to the
// owning user where the operation demands it.
type ChatService struct {
	chats    storage.ChatResource
	messages storage.MessageResource
	metrics  metrics.Recorder
}

// NewChatService creates a ChatService.
func NewChatService(chats storage.ChatResource, messages storage.MessageResource, recorder metrics.Recorder) *ChatService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ChatService{chats: chats, messages: messages, metrics: recorder}
}

// CreateChat creates a chat owned by the given user.
func (s *ChatService) CreateChat(ctx context.Context, ownerID, name string) (model.Chat, error) {
	chat, err := s.chats.Create(ctx, model.ChatInput{Name: name, OwnerID: ownerID})
	if err != nil {
		return model.Chat{}, fmt.Errorf("create chat: %w", err)
	}
	s.metrics.IncChatCreated()
	return chat, nil
}

// ListChats returns every chat owned by the user, oldest first.
func (s *ChatService) ListChats(ctx context.Context, ownerID string) ([]model.Chat, error) {
	chats, err := s.chats.FindAll(ctx, model.ChatFilter{OwnerID: &ownerID})
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// GetChat returns the chat only if the caller owns it. Another user's
// chat yields ErrNotFound, indistinguishable from a missing id.
func (s *ChatService) GetChat(ctx context.Context, ownerID, chatID string) (model.Chat, error) {
	chat, err := s.chats.Find(ctx, model.ChatFilter{ID: &chatID, OwnerID: &ownerID})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Chat{}, ErrNotFound
		}
		return model.Chat{}, fmt.Errorf("get chat: %w", err)
	}
	return chat, nil
}

// ListMessages returns the chat's messages in posting order.
func (s *ChatService) ListMessages(ctx context.Context, chatID string) ([]model.Message, error) {
	messages, err := s.messages.FindAll(ctx, model.MessageFilter{ChatID: &chatID})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// PostMessage stores the user's message, then a system placeholder
// reply, strictly in that order. Both are durable before the reply is
// returned; no concurrent sub-operations are issued.
func (s *ChatService) PostMessage(ctx context.Context, chatID, text string) (model.Message, error) {
	if _, err := s.chats.Get(ctx, chatID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Message{}, ErrNotFound
		}
		return model.Message{}, fmt.Errorf("post message: %w", err)
	}

	if _, err := s.messages.Create(ctx, model.MessageInput{
		ChatID:  chatID,
		Message: text,
		Type:    model.MessageTypeUser,
	}); err != nil {
		return model.Message{}, fmt.Errorf("post message: %w", err)
	}

	reply, err := s.messages.Create(ctx, model.MessageInput{
		ChatID:  chatID,
		Message: systemReplyText,
		Type:    model.MessageTypeSystem,
	})
	if err != nil {
		return model.Message{}, fmt.Errorf("post reply: %w", err)
	}

	s.metrics.IncMessagePosted()
	return reply, nil
}

// DeleteMessage removes a message and returns it. Deleting an id that
// is already gone yields ErrNotFound, never a fault, so the operation
// is safe to repeat.
func (s *ChatService) DeleteMessage(ctx context.Context, id string) (model.Message, error) {
	msg, err := s.messages.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Message{}, ErrNotFound
		}
		return model.Message{}, fmt.Errorf("delete message: %w", err)
	}
	return msg, nil
}
