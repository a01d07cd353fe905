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

// UserStore persists users in the users table.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a user store backed by the shared pool.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{pool: db.pool}
}

var _ storage.Resource[model.User, model.UserInput, model.UserFilter] = (*UserStore)(nil)

const userColumns = "id, name, email, password, created_at, updated_at"

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a new user. A duplicate email surfaces as
// storage.ErrConflict via the unique index.
func (s *UserStore) Create(ctx context.Context, input model.UserInput) (model.User, error) {
	now := time.Now().UTC()
	user := model.User{
		ID:        storage.NewID(),
		Name:      input.Name,
		Email:     input.Email,
		Password:  input.Password,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO users (id, name, email, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.Password, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, mapError(err, "failed to create user")
	}
	return user, nil
}

// userWhere builds a WHERE clause from the populated filter fields.
func userWhere(filter model.UserFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.ID != nil {
		args = append(args, *filter.ID)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if filter.Email != nil {
		args = append(args, *filter.Email)
		conds = append(conds, fmt.Sprintf("email = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Find returns the first user matching the filter.
func (s *UserStore) Find(ctx context.Context, filter model.UserFilter) (model.User, error) {
	where, args := userWhere(filter)
	query := "SELECT " + userColumns + " FROM users" + where + " ORDER BY id LIMIT 1"

	user, err := scanUser(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, storage.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindAll returns every matching user in insertion order.
func (s *UserStore) FindAll(ctx context.Context, filter model.UserFilter) ([]model.User, error) {
	where, args := userWhere(filter)
	query := "SELECT " + userColumns + " FROM users" + where + " ORDER BY id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return users, nil
}

// Get returns the user with the given id.
func (s *UserStore) Get(ctx context.Context, id string) (model.User, error) {
	return s.Find(ctx, model.UserFilter{ID: &id})
}

// Update merges the non-zero patch fields and refreshes updated_at.
func (s *UserStore) Update(ctx context.Context, id string, patch model.UserInput) (model.User, error) {
	query := `
		UPDATE users
		SET name       = COALESCE(NULLIF($2, ''), name),
		    email      = COALESCE(NULLIF($3, ''), email),
		    password   = COALESCE(NULLIF($4, ''), password),
		    updated_at = $5
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(s.pool.QueryRow(ctx, query,
		id, patch.Name, patch.Email, patch.Password, time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, storage.ErrNotFound
		}
		return model.User{}, mapError(err, "failed to update user")
	}
	return user, nil
}

// Delete removes the user and returns it.
func (s *UserStore) Delete(ctx context.Context, id string) (model.User, error) {
	query := "DELETE FROM users WHERE id = $1 RETURNING " + userColumns

	user, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, storage.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to delete user: %w", err)
	}
	return user, nil
}
