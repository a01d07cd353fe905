// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/parlor/parlor/internal/auth"
	"github.com/parlor/parlor/internal/metrics"
	"github.com/parlor/parlor/internal/model"
	"github.com/parlor/parlor/internal/storage"
)

// Service errors.
var (
	// ErrUserExists indicates the email is already registered.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password. One error for both cases: no user-existence oracle.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthService handles registration and login.
type AuthService struct {
	users   storage.UserResource
	tokens  *auth.Tokens
	metrics metrics.Recorder
}

// NewAuthService creates an AuthService.
func NewAuthService(users storage.UserResource, tokens *auth.Tokens, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{users: users, tokens: tokens, metrics: recorder}
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register hashes the password and persists a new user. The storage
// backend enforces email uniqueness atomically with the insert, so a
// duplicate surfaces as ErrUserExists even under concurrent requests.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (model.User, error) {
	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("register: %w", err)
	}

	user, err := s.users.Create(ctx, model.UserInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: hashed,
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return model.User{}, ErrUserExists
		}
		return model.User{}, fmt.Errorf("register: %w", err)
	}

	s.metrics.IncUserRegistered()
	return user, nil
}

// Login verifies credentials and issues a signed token carrying a
// sanitized snapshot of the user.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.Find(ctx, model.UserFilter{Email: &email})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("login: %w", err)
	}

	if !auth.VerifyPassword(password, user.Password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return token, nil
}
