package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shelfmark/shelfmark/internal/model"
)

// Common errors for book repository operations.
var (
	ErrBookNotFound = errors.New("book not found")
	ErrISBNExists   = errors.New("isbn already exists")
	ErrNoCopies     = errors.New("available copies would become negative")
)

const bookColumns = `id, isbn, title, author, publisher, publish_year, total_copies, available_copies, created_at, updated_at`

// CreateBook inserts a new book into the catalog.
func (r *Repository) CreateBook(ctx context.Context, book *model.Book) error {
	query := `
		INSERT INTO books (id, isbn, title, author, publisher, publish_year, total_copies, available_copies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.exec(ctx, query,
		book.ID,
		book.ISBN,
		book.Title,
		book.Author,
		book.Publisher,
		book.PublishYear,
		book.TotalCopies,
		book.AvailableCopies,
		book.CreatedAt,
		book.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrISBNExists
		}
		return fmt.Errorf("failed to create book: %w", err)
	}

	return nil
}

// GetBookByID retrieves a book by its ID.
func (r *Repository) GetBookByID(ctx context.Context, id string) (*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	book, err := scanBook(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book by ID: %w", err)
	}

	return book, nil
}

// GetBookByTitle retrieves a book by its title (natural key lookup).
func (r *Repository) GetBookByTitle(ctx context.Context, title string) (*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE title = $1`

	book, err := scanBook(r.queryRow(ctx, query, title))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book by title: %w", err)
	}

	return book, nil
}

// GetBookForUpdate retrieves a book by ID with a row lock.
// Must be called inside WithTx; the lock serializes concurrent
// availability changes against the same book.
func (r *Repository) GetBookForUpdate(ctx context.Context, id string) (*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1 FOR UPDATE`

	book, err := scanBook(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to lock book: %w", err)
	}

	return book, nil
}

// GetBookByTitleForUpdate retrieves a book by title with a row lock.
func (r *Repository) GetBookByTitleForUpdate(ctx context.Context, title string) (*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE title = $1 FOR UPDATE`

	book, err := scanBook(r.queryRow(ctx, query, title))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to lock book by title: %w", err)
	}

	return book, nil
}

// ListBooks retrieves all books ordered by title.
func (r *Repository) ListBooks(ctx context.Context) ([]*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY title, id`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []*model.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}

	return books, nil
}

// AdjustAvailableCopies changes a book's available copy count by delta
// (negative for checkout, positive for return). The CHECK constraint on
// the table rejects adjustments that would leave the count out of range.
func (r *Repository) AdjustAvailableCopies(ctx context.Context, id string, delta int) error {
	query := `
		UPDATE books
		SET available_copies = available_copies + $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.exec(ctx, query, id, delta)
	if err != nil {
		if isCheckViolation(err) {
			return ErrNoCopies
		}
		return fmt.Errorf("failed to adjust available copies: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrBookNotFound
	}

	return nil
}

// DeleteBook removes a book from the catalog permanently.
func (r *Repository) DeleteBook(ctx context.Context, id string) error {
	query := `DELETE FROM books WHERE id = $1`

	result, err := r.exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrBookNotFound
	}

	return nil
}

// scanBook scans a single row into a Book model.
func scanBook(row pgx.Row) (*model.Book, error) {
	var book model.Book
	err := row.Scan(
		&book.ID,
		&book.ISBN,
		&book.Title,
		&book.Author,
		&book.Publisher,
		&book.PublishYear,
		&book.TotalCopies,
		&book.AvailableCopies,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	return &book, err
}
