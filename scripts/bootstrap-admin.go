package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shelfmark/shelfmark/internal/auth"
	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/repository"
)

type output struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		username    = flag.String("username", "admin", "Username for the bootstrap account")
		email       = flag.String("email", "admin@shelfmark.local", "Account email")
		password    = flag.String("password", os.Getenv("BOOTSTRAP_PASSWORD"), "Account password")
		role        = flag.String("role", model.RoleAdmin, "Account role (reader, librarian, admin)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *password == "" {
		fmt.Fprintln(os.Stderr, "password is required (flag or BOOTSTRAP_PASSWORD)")
		os.Exit(1)
	}
	if len(*password) < 8 {
		fmt.Fprintln(os.Stderr, "password must be at least 8 characters")
		os.Exit(1)
	}
	if !isValidRole(*role) {
		fmt.Fprintln(os.Stderr, "invalid role; use reader, librarian, or admin")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	user, err := ensureUser(ctx, repo, *username, *email, *password, *role)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	out := output{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.UserID)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func isValidRole(role string) bool {
	switch role {
	case model.RoleReader, model.RoleLibrarian, model.RoleAdmin:
		return true
	}
	return false
}

func ensureUser(ctx context.Context, repo *repository.Repository, username, email, password, role string) (*model.User, error) {
	existing, err := repo.GetUserByUsername(ctx, username)
	if err == nil {
		if existing.Role != role {
			return nil, fmt.Errorf("user %s exists with different role: %s", username, existing.Role)
		}
		return existing, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Username:     username,
		Role:         role,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
