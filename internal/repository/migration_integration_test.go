//go:build integration

package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfmark/shelfmark/internal/testutil"
)

// ============================================================================
// Migration Integration Tests
// ============================================================================

func TestIntegrationMigration_ApplyAllTables(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	// Verify all expected tables exist
	tables := []string{
		"users",
		"books",
		"loans",
		"reviews",
		"loan_events",
		"daily_circulation",
		"webhook_endpoints",
		"webhook_deliveries",
	}

	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			exists, err := tableExists(ctx, pool, table)
			if err != nil {
				t.Fatalf("tableExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Table %q should exist after migrations", table)
			}
		})
	}
}

func TestIntegrationMigration_BooksTableSchema(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	expectedColumns := []string{
		"id",
		"isbn",
		"title",
		"author",
		"publisher",
		"publish_year",
		"total_copies",
		"available_copies",
		"created_at",
		"updated_at",
	}

	for _, col := range expectedColumns {
		t.Run(col, func(t *testing.T) {
			exists, err := columnExists(ctx, pool, "books", col)
			if err != nil {
				t.Fatalf("columnExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Column %q should exist in books table", col)
			}
		})
	}
}

func TestIntegrationMigration_BooksConstraints(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	// available_copies can never exceed total_copies
	_, err := pool.Exec(ctx, `
		INSERT INTO books (id, isbn, title, author, total_copies, available_copies)
		VALUES ('test-id', '9780000000001', 'Test', 'Author', 2, 3)
	`)
	if err == nil {
		t.Error("Expected check constraint violation for available > total")
	}

	// available_copies can never go negative
	_, err = pool.Exec(ctx, `
		INSERT INTO books (id, isbn, title, author, total_copies, available_copies)
		VALUES ('test-id', '9780000000001', 'Test', 'Author', 2, -1)
	`)
	if err == nil {
		t.Error("Expected check constraint violation for negative available_copies")
	}

	// ISBN is unique
	_, err = pool.Exec(ctx, `
		INSERT INTO books (id, isbn, title, author, total_copies, available_copies)
		VALUES ('test-a', '9780000000002', 'First', 'Author', 1, 1)
	`)
	if err != nil {
		t.Fatalf("insert first book: %v", err)
	}
	defer pool.Exec(ctx, `DELETE FROM books WHERE id = 'test-a'`)

	_, err = pool.Exec(ctx, `
		INSERT INTO books (id, isbn, title, author, total_copies, available_copies)
		VALUES ('test-b', '9780000000002', 'Second', 'Author', 1, 1)
	`)
	if err == nil {
		t.Error("Expected unique violation for duplicate ISBN")
	}
}

func TestIntegrationMigration_UsersConstraints(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	// Role is constrained to the three known roles
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, username, role, email, password_hash)
		VALUES ('test-id', 'constraint-check', 'superuser', 'x@example.com', 'hash')
	`)
	if err == nil {
		t.Error("Expected check constraint violation for unknown role")
	}
}

func TestIntegrationMigration_ReviewsConstraints(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	// Rating outside 1..5 is rejected at the schema level too
	_, err := pool.Exec(ctx, `
		INSERT INTO reviews (id, book_id, user_id, rating, review_date)
		VALUES ('test-id', 'no-such-book', 'no-such-user', 6, NOW())
	`)
	if err == nil {
		t.Error("Expected constraint violation for rating > 5")
	}
}

func TestIntegrationMigration_LoanEventsTablesSchema(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	eventCols := []string{
		"id",
		"event_id",
		"loan_id",
		"book_id",
		"user_id",
		"event_type",
		"occurred_at",
		"created_at",
	}

	for _, col := range eventCols {
		exists, err := columnExists(ctx, pool, "loan_events", col)
		if err != nil {
			t.Fatalf("columnExists failed: %v", err)
		}
		if !exists {
			t.Errorf("Column %q should exist in loan_events table", col)
		}
	}

	statsColumns := []string{
		"id",
		"date",
		"checkouts",
		"returns",
		"created_at",
		"updated_at",
	}

	for _, col := range statsColumns {
		exists, err := columnExists(ctx, pool, "daily_circulation", col)
		if err != nil {
			t.Fatalf("columnExists failed: %v", err)
		}
		if !exists {
			t.Errorf("Column %q should exist in daily_circulation table", col)
		}
	}
}

func TestIntegrationMigration_WebhookTablesSchema(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	endpointCols := []string{
		"id",
		"user_id",
		"target_url",
		"secret_enc",
		"enabled",
		"event_types",
		"name",
		"created_at",
		"updated_at",
		"deleted_at",
	}

	for _, col := range endpointCols {
		exists, err := columnExists(ctx, pool, "webhook_endpoints", col)
		if err != nil {
			t.Fatalf("columnExists failed: %v", err)
		}
		if !exists {
			t.Errorf("Column %q should exist in webhook_endpoints table", col)
		}
	}

	deliveryCols := []string{
		"id",
		"endpoint_id",
		"event_id",
		"event_type",
		"payload_json",
		"status",
		"attempt_count",
		"max_attempts",
		"next_retry_at",
		"last_attempt_at",
		"last_http_status",
		"last_error",
		"created_at",
		"updated_at",
	}

	for _, col := range deliveryCols {
		exists, err := columnExists(ctx, pool, "webhook_deliveries", col)
		if err != nil {
			t.Fatalf("columnExists failed: %v", err)
		}
		if !exists {
			t.Errorf("Column %q should exist in webhook_deliveries table", col)
		}
	}
}

func TestIntegrationMigration_RollbackReviews(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatalf("ProjectRoot failed: %v", err)
	}

	// Apply down migration
	downPath := filepath.Join(root, "migrations", "000004_reviews.down.sql")
	downSQL, err := os.ReadFile(downPath)
	if err != nil {
		t.Fatalf("read down migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		t.Fatalf("apply down migration: %v", err)
	}

	// Verify table doesn't exist
	exists, err := tableExists(ctx, pool, "reviews")
	if err != nil {
		t.Fatalf("tableExists failed: %v", err)
	}
	if exists {
		t.Error("reviews table should not exist after rollback")
	}

	// Re-apply up migration for cleanup
	upPath := filepath.Join(root, "migrations", "000004_reviews.up.sql")
	upSQL, err := os.ReadFile(upPath)
	if err != nil {
		t.Fatalf("read up migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		t.Fatalf("reapply up migration: %v", err)
	}
}

func TestIntegrationMigration_Idempotency(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatalf("ProjectRoot failed: %v", err)
	}

	// Every up migration uses IF NOT EXISTS; applying twice must not fail
	for _, name := range []string{
		"000001_users",
		"000002_books",
		"000003_loans",
		"000004_reviews",
		"000005_loan_events",
		"000006_webhooks",
	} {
		upPath := filepath.Join(root, "migrations", name+".up.sql")
		upSQL, err := os.ReadFile(upPath)
		if err != nil {
			t.Fatalf("read %s up migration: %v", name, err)
		}
		if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
			t.Fatalf("second apply of %s should not fail: %v", name, err)
		}
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns
			WHERE table_schema = 'public'
			AND table_name = $1
			AND column_name = $2
		)
	`, tableName, columnName).Scan(&exists)
	return exists, err
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	// Make sure all tables exist before asserting on them
	if err := testutil.ResetCoreSchema(ctx, pool); err != nil {
		t.Fatalf("reset core schema: %v", err)
	}
	if err := testutil.ResetLoanEventsSchema(ctx, pool); err != nil {
		t.Fatalf("reset loan events schema: %v", err)
	}
	if err := testutil.ResetWebhooksSchema(ctx, pool); err != nil {
		t.Fatalf("reset webhooks schema: %v", err)
	}

	return ctx, pool
}
