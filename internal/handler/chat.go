package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parlor/parlor/internal/auth"
	"github.com/parlor/parlor/internal/handler/dto"
	"github.com/parlor/parlor/internal/middleware"
	"github.com/parlor/parlor/internal/service"
)

// ChatHandler handles chat and message requests. Every route runs
// behind the auth gate, so the user id is always present in context.
type ChatHandler struct {
	svc    *service.ChatService
	logger *slog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(svc *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/chat.
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustUserIDFromContext(r.Context())

	var req dto.CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, []dto.Issue{{
			Path:    []string{},
			Code:    dto.CodeInvalidType,
			Message: "Invalid JSON body",
		}})
		return
	}
	if issues := req.Validate(); len(issues) > 0 {
		writeValidationError(w, issues)
		return
	}

	chat, err := h.svc.CreateChat(r.Context(), userID, req.Name)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	// A new chat changes every cached read under /chat for this path.
	middleware.InvalidateCache(r.Context(), r.URL.Path)

	h.logger.Info("chat_created", "chat_id", chat.ID, "owner_id", userID)
	writeData(w, http.StatusCreated, chat)
}

// List handles GET /api/v1/chat.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustUserIDFromContext(r.Context())

	chats, err := h.svc.ListChats(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	middleware.MarkCacheable(r.Context())
	writeData(w, http.StatusOK, chats)
}

// Get handles GET /api/v1/chat/{id}. Another user's chat is
// indistinguishable from a missing one: both return null data.
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustUserIDFromContext(r.Context())
	chatID := chi.URLParam(r, "id")

	chat, err := h.svc.GetChat(r.Context(), userID, chatID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			middleware.MarkCacheable(r.Context())
			writeData(w, http.StatusOK, nil)
			return
		}
		h.handleServiceError(w, err)
		return
	}

	middleware.MarkCacheable(r.Context())
	writeData(w, http.StatusOK, chat)
}

// ListMessages handles GET /api/v1/chat/{id}/message.
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "id")

	messages, err := h.svc.ListMessages(r.Context(), chatID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	middleware.MarkCacheable(r.Context())
	writeData(w, http.StatusOK, messages)
}

// PostMessage handles POST /api/v1/chat/{id}/message. The user message
// and the system reply are both persisted before responding; the reply
// is what comes back.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "id")

	var req dto.PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, []dto.Issue{{
			Path:    []string{},
			Code:    dto.CodeInvalidType,
			Message: "Invalid JSON body",
		}})
		return
	}
	if issues := req.Validate(); len(issues) > 0 {
		writeValidationError(w, issues)
		return
	}

	reply, err := h.svc.PostMessage(r.Context(), chatID, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeData(w, http.StatusOK, nil)
			return
		}
		h.handleServiceError(w, err)
		return
	}

	// New messages stale every cached read under this chat's message
	// path.
	middleware.InvalidateCache(r.Context(), r.URL.Path)

	h.logger.Info("message_posted", "chat_id", chatID, "message_id", reply.ID)
	writeData(w, http.StatusCreated, reply)
}

// DeleteMessage handles DELETE /api/v1/chat. The id travels in the
// body; deleting an already-deleted id returns null data, not an error.
func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	var req dto.DeleteMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, []dto.Issue{{
			Path:    []string{},
			Code:    dto.CodeInvalidType,
			Message: "Invalid JSON body",
		}})
		return
	}
	if issues := req.Validate(); len(issues) > 0 {
		writeValidationError(w, issues)
		return
	}

	msg, err := h.svc.DeleteMessage(r.Context(), req.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			middleware.InvalidateCache(r.Context(), r.URL.Path)
			writeData(w, http.StatusOK, nil)
			return
		}
		h.handleServiceError(w, err)
		return
	}

	middleware.InvalidateCache(r.Context(), r.URL.Path)

	h.logger.Info("message_deleted", "message_id", msg.ID)
	writeData(w, http.StatusOK, msg)
}

// handleServiceError maps unexpected service errors to a generic 500.
// Storage failures are logged with detail but never leak internals.
func (h *ChatHandler) handleServiceError(w http.ResponseWriter, err error) {
	h.logger.Error("internal_error", "error", err)
	writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: ErrCodeInternal})
}
