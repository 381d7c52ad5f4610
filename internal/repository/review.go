package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shelfmark/shelfmark/internal/model"
)

// ErrReviewNotFound is returned when a review lookup misses.
var ErrReviewNotFound = errors.New("review not found")

const reviewColumns = `id, book_id, user_id, rating, comment, review_date, created_at`

// CreateReview inserts a new review.
func (r *Repository) CreateReview(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (id, book_id, user_id, rating, comment, review_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.exec(ctx, query,
		review.ID,
		review.BookID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.Date,
		review.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// ListReviewsByBookID retrieves all reviews of one book.
func (r *Repository) ListReviewsByBookID(ctx context.Context, bookID string) ([]*model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE book_id = $1 ORDER BY review_date DESC, id DESC`
	return r.listReviews(ctx, query, bookID)
}

// ListReviewsByUserID retrieves all reviews written by one user.
func (r *Repository) ListReviewsByUserID(ctx context.Context, userID string) ([]*model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE user_id = $1 ORDER BY review_date DESC, id DESC`
	return r.listReviews(ctx, query, userID)
}

func (r *Repository) listReviews(ctx context.Context, query string, args ...any) ([]*model.Review, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*model.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

// ReviewExists checks if a review exists.
func (r *Repository) ReviewExists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM reviews WHERE id = $1)`

	var exists bool
	if err := r.queryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check review existence: %w", err)
	}

	return exists, nil
}

// DeleteReview removes a review permanently.
func (r *Repository) DeleteReview(ctx context.Context, id string) error {
	query := `DELETE FROM reviews WHERE id = $1`

	result, err := r.exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// scanReview scans a single row into a Review model.
func scanReview(row pgx.Row) (*model.Review, error) {
	var review model.Review
	err := row.Scan(
		&review.ID,
		&review.BookID,
		&review.UserID,
		&review.Rating,
		&review.Comment,
		&review.Date,
		&review.CreatedAt,
	)
	return &review, err
}
