// Package testutil provides shared helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shelfmark/shelfmark/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 731731

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// resetSchema applies the down then up migration for one numbered schema.
func resetSchema(ctx context.Context, pool *pgxpool.Pool, name string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	downSQL, err := os.ReadFile(filepath.Join(root, "migrations", name+".down.sql"))
	if err != nil {
		return fmt.Errorf("read %s down migration: %w", name, err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		return fmt.Errorf("apply %s down migration: %w", name, err)
	}

	upSQL, err := os.ReadFile(filepath.Join(root, "migrations", name+".up.sql"))
	if err != nil {
		return fmt.Errorf("read %s up migration: %w", name, err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("apply %s up migration: %w", name, err)
	}

	return nil
}

// ResetCoreSchema rebuilds the users, books, loans, and reviews tables.
// Migrations run in reverse for teardown so foreign keys drop cleanly.
func ResetCoreSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	apply := func(name, direction string) error {
		sql, err := os.ReadFile(filepath.Join(root, "migrations", name+"."+direction+".sql"))
		if err != nil {
			return fmt.Errorf("read %s %s migration: %w", name, direction, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s %s migration: %w", name, direction, err)
		}
		return nil
	}

	schemas := []string{"000001_users", "000002_books", "000003_loans", "000004_reviews"}

	for i := len(schemas) - 1; i >= 0; i-- {
		if err := apply(schemas[i], "down"); err != nil {
			return err
		}
	}
	for _, name := range schemas {
		if err := apply(name, "up"); err != nil {
			return err
		}
	}

	return nil
}

// ResetLoanEventsSchema drops and recreates the circulation stats tables.
func ResetLoanEventsSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000005_loan_events")
}

// ResetWebhooksSchema drops and recreates the webhook delivery tables.
func ResetWebhooksSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000006_webhooks")
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a test user with sensible defaults.
func NewTestUser(t testing.TB, username string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	return &model.User{
		ID:           UniqueID("usr"),
		Username:     username,
		Role:         model.RoleReader,
		Email:        username + "@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$dGVzdHNhbHQ$dGVzdGhhc2g",
		CreatedAt:    now,
	}
}

// NewTestBook creates a test book with sensible defaults.
func NewTestBook(t testing.TB, title string, copies int) *model.Book {
	t.Helper()
	now := time.Now().UTC()
	return &model.Book{
		ID:              UniqueID("bk"),
		ISBN:            UniqueISBN(),
		Title:           title,
		Author:          "Test Author",
		Publisher:       "Test Press",
		PublishYear:     2020,
		TotalCopies:     copies,
		AvailableCopies: copies,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NewTestLoan creates an open loan for the given book and user.
func NewTestLoan(t testing.TB, bookID, userID string) *model.Loan {
	t.Helper()
	now := time.Now().UTC()
	return &model.Loan{
		ID:        UniqueID("ln"),
		BookID:    bookID,
		UserID:    userID,
		LoanDate:  now,
		DueDate:   now.Add(14 * 24 * time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestReview creates a test review with sensible defaults.
func NewTestReview(t testing.TB, bookID, userID string) *model.Review {
	t.Helper()
	now := time.Now().UTC()
	return &model.Review{
		ID:        UniqueID("rv"),
		BookID:    bookID,
		UserID:    userID,
		Rating:    4,
		Comment:   "Worth a second read.",
		Date:      now,
		CreatedAt: now,
	}
}

var isbnCounter int64

// UniqueISBN generates a unique 13-digit ISBN-shaped string for tests.
func UniqueISBN() string {
	isbnCounter++
	return fmt.Sprintf("978%010d", (time.Now().UnixNano()+isbnCounter)%10_000_000_000)
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
