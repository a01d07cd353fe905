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

// MessageStore persists messages in the messages table.
type MessageStore struct {
	pool *pgxpool.Pool
}

// NewMessageStore creates a message store backed by the shared pool.
func NewMessageStore(db *DB) *MessageStore {
	return &MessageStore{pool: db.pool}
}

var _ storage.Resource[model.Message, model.MessageInput, model.MessageFilter] = (*MessageStore)(nil)

const messageColumns = "id, chat_id, message, type, created_at, updated_at"

func scanMessage(row pgx.Row) (model.Message, error) {
	var m model.Message
	err := row.Scan(&m.ID, &m.ChatID, &m.Message, &m.Type, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create inserts a new message.
func (s *MessageStore) Create(ctx context.Context, input model.MessageInput) (model.Message, error) {
	now := time.Now().UTC()
	msg := model.Message{
		ID:        storage.NewID(),
		ChatID:    input.ChatID,
		Message:   input.Message,
		Type:      input.Type,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO messages (id, chat_id, message, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, query,
		msg.ID, msg.ChatID, msg.Message, msg.Type, msg.CreatedAt, msg.UpdatedAt,
	)
	if err != nil {
		return model.Message{}, mapError(err, "failed to create message")
	}
	return msg, nil
}

func messageWhere(filter model.MessageFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.ID != nil {
		args = append(args, *filter.ID)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if filter.ChatID != nil {
		args = append(args, *filter.ChatID)
		conds = append(conds, fmt.Sprintf("chat_id = $%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Find returns the first message matching the filter.
func (s *MessageStore) Find(ctx context.Context, filter model.MessageFilter) (model.Message, error) {
	where, args := messageWhere(filter)
	query := "SELECT " + messageColumns + " FROM messages" + where + " ORDER BY id LIMIT 1"

	msg, err := scanMessage(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, storage.ErrNotFound
		}
		return model.Message{}, fmt.Errorf("failed to find message: %w", err)
	}
	return msg, nil
}

// FindAll returns every matching message in insertion order.
// ULID ids are time-ordered, so ORDER BY id preserves posting order.
func (s *MessageStore) FindAll(ctx context.Context, filter model.MessageFilter) ([]model.Message, error) {
	where, args := messageWhere(filter)
	query := "SELECT " + messageColumns + " FROM messages" + where + " ORDER BY id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

// Get returns the message with the given id.
func (s *MessageStore) Get(ctx context.Context, id string) (model.Message, error) {
	return s.Find(ctx, model.MessageFilter{ID: &id})
}

// Update merges the non-zero patch fields and refreshes updated_at.
func (s *MessageStore) Update(ctx context.Context, id string, patch model.MessageInput) (model.Message, error) {
	query := `
		UPDATE messages
		SET chat_id    = COALESCE(NULLIF($2, ''), chat_id),
		    message    = COALESCE(NULLIF($3, ''), message),
		    type       = COALESCE(NULLIF($4, ''), type),
		    updated_at = $5
		WHERE id = $1
		RETURNING ` + messageColumns

	msg, err := scanMessage(s.pool.QueryRow(ctx, query,
		id, patch.ChatID, patch.Message, string(patch.Type), time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, storage.ErrNotFound
		}
		return model.Message{}, mapError(err, "failed to update message")
	}
	return msg, nil
}

// Delete removes the message and returns it.
func (s *MessageStore) Delete(ctx context.Context, id string) (model.Message, error) {
	query := "DELETE FROM messages WHERE id = $1 RETURNING " + messageColumns

	msg, err := scanMessage(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, storage.ErrNotFound
		}
		return model.Message{}, fmt.Errorf("failed to delete message: %w", err)
	}
	return msg, nil
}
