// Seeds a user directly into the database, bypassing the API.
// Useful for bootstrapping a fresh deployment before the first login.
//
// Usage: go run scripts/seed-user.go -email admin@example.com -password s3cret
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/parlor/parlor/internal/auth"
	"github.com/parlor/parlor/internal/model"
	"github.com/parlor/parlor/internal/storage"
	"github.com/parlor/parlor/internal/storage/postgres"
)

type output struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "", "User email (required)")
		password    = flag.String("password", "", "User password (required)")
		name        = flag.String("name", "seed", "User display name")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "-email and -password are required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "schema: %v\n", err)
		os.Exit(1)
	}

	hashed, err := auth.HashPassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}

	user, err := postgres.NewUserStore(db).Create(ctx, model.UserInput{
		Name:     *name,
		Email:    *email,
		Password: hashed,
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			fmt.Fprintf(os.Stderr, "user %s already exists\n", *email)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "create user: %v\n", err)
		os.Exit(1)
	}

	out := output{UserID: user.ID, Email: user.Email, Name: user.Name}

	if *format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("user_id: %s\nemail: %s\nname: %s\n", out.UserID, out.Email, out.Name)
}
