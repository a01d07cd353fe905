package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parlor/parlor/internal/auth"
	"github.com/parlor/parlor/internal/metrics"
	"github.com/parlor/parlor/internal/storage/memory"
)

func newAuthService() *AuthService {
	tokens := auth.NewTokens("test-secret", time.Hour)
	return NewAuthService(memory.NewUserStore(), tokens, metrics.NewNoop())
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	user, err := svc.Register(ctx, RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.ID == "" {
		t.Error("expected generated id")
	}
	if user.Password == "s3cret" {
		t.Error("stored password must be hashed")
	}
	if !auth.VerifyPassword("s3cret", user.Password) {
		t.Error("stored hash must verify against the original password")
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	input := RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "s3cret"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	_, err := svc.Register(ctx, input)
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	if _, err := svc.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "s3cret"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, err := svc.Login(ctx, "alice@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	claims, err := svc.tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.User.Email != "alice@example.com" {
		t.Errorf("expected user snapshot in claims, got %s", claims.User.Email)
	}
	if claims.User.Password != "" {
		t.Error("claims must not carry the password hash")
	}
}

func TestAuthService_Login_BadCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	if _, err := svc.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "s3cret"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Unknown email and wrong password map to the same error.
	_, unknownErr := svc.Login(ctx, "nobody@example.com", "s3cret")
	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", unknownErr)
	}

	_, wrongErr := svc.Login(ctx, "alice@example.com", "wrong")
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongErr)
	}
}
