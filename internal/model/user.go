// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered account.
// The password hash is never serialized in API responses or token payloads.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserInput holds the caller-supplied fields for creating a user.
// ID and timestamps are assigned by the storage layer.
type UserInput struct {
	Name     string
	Email    string
	Password string
}

// UserFilter selects users by exact match on the populated fields.
// Nil fields are ignored.
type UserFilter struct {
	ID    *string
	Email *string
}

// Match reports whether the user satisfies every populated filter field.
func (f UserFilter) Match(u User) bool {
	if f.ID != nil && *f.ID != u.ID {
		return false
	}
	if f.Email != nil && *f.Email != u.Email {
		return false
	}
	return true
}
