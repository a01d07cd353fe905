package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parlor/parlor/internal/model"
	"github.com/parlor/parlor/internal/storage"
)

// ChatStore persists chats in the chats table.
type ChatStore struct {
	pool *pgxpool.Pool
}

// NewChatStore creates a chat store backed by the shared pool.
func NewChatStore(db *DB) *ChatStore {
	return &ChatStore{pool: db.pool}
}

var _ storage.Resource[model.Chat, model.ChatInput, model.ChatFilter] = (*ChatStore)(nil)

const chatColumns = "id, name, owner_id, created_at, updated_at"

func scanChat(row pgx.Row) (model.Chat, error) {
	var c model.Chat
	err := row.Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create inserts a new chat.
func (s *ChatStore) Create(ctx context.Context, input model.ChatInput) (model.Chat, error) {
	now := time.Now().UTC()
	chat := model.Chat{
		ID:        storage.NewID(),
		Name:      input.Name,
		OwnerID:   input.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO chats (id, name, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, query,
		chat.ID, chat.Name, chat.OwnerID, chat.CreatedAt, chat.UpdatedAt,
	)
	if err != nil {
		return model.Chat{}, mapError(err, "failed to create chat")
	}
	return chat, nil
}

func chatWhere(filter model.ChatFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.ID != nil {
		args = append(args, *filter.ID)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Find returns the first chat matching the filter.
func (s *ChatStore) Find(ctx context.Context, filter model.ChatFilter) (model.Chat, error) {
	where, args := chatWhere(filter)
	query := "SELECT " + chatColumns + " FROM chats" + where + " ORDER BY id LIMIT 1"

	chat, err := scanChat(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Chat{}, storage.ErrNotFound
		}
		return model.Chat{}, fmt.Errorf("failed to find chat: %w", err)
	}
	return chat, nil
}

// FindAll returns every matching chat in insertion order.
func (s *ChatStore) FindAll(ctx context.Context, filter model.ChatFilter) ([]model.Chat, error) {
	where, args := chatWhere(filter)
	query := "SELECT " + chatColumns + " FROM chats" + where + " ORDER BY id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	chats := make([]model.Chat, 0)
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chats: %w", err)
	}
	return chats, nil
}

// Get returns the chat with the given id.
func (s *ChatStore) Get(ctx context.Context, id string) (model.Chat, error) {
	return s.Find(ctx, model.ChatFilter{ID: &id})
}

// Update merges the non-zero patch fields and refreshes updated_at.
func (s *ChatStore) Update(ctx context.Context, id string, patch model.ChatInput) (model.Chat, error) {
	query := `
		UPDATE chats
		SET name       = COALESCE(NULLIF($2, ''), name),
		    owner_id   = COALESCE(NULLIF($3, ''), owner_id),
		    updated_at = $4
		WHERE id = $1
		RETURNING ` + chatColumns

	chat, err := scanChat(s.pool.QueryRow(ctx, query,
		id, patch.Name, patch.OwnerID, time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Chat{}, storage.ErrNotFound
		}
		return model.Chat{}, mapError(err, "failed to update chat")
	}
	return chat, nil
}

// Delete removes the chat and returns it.
func (s *ChatStore) Delete(ctx context.Context, id string) (model.Chat, error) {
	query := "DELETE FROM chats WHERE id = $1 RETURNING " + chatColumns

	chat, err := scanChat(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Chat{}, storage.ErrNotFound
		}
		return model.Chat{}, fmt.Errorf("failed to delete chat: %w", err)
	}
	return chat, nil
}
