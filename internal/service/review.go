package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shelfmark/shelfmark/internal/clock"
	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/repository"
)

// Review errors.
var (
	ErrReviewNotFound = errors.New("review not found")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong = errors.New("comment too long")
)

const maxCommentLength = 4096

// ReviewService handles book review business logic.
type ReviewService struct {
	repo  *repository.Repository
	clock clock.Clock
}

// NewReviewService creates a new ReviewService.
func NewReviewService(repo *repository.Repository, clk clock.Clock) *ReviewService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &ReviewService{
		repo:  repo,
		clock: clk,
	}
}

// CreateReviewInput defines input for posting a review.
type CreateReviewInput struct {
	Book     BookRef
	Reviewer BorrowerRef
	Rating   int
	Comment  string
	Date     *time.Time
}

// CreateReview posts a review against a book.
// Both the book and the reviewer must exist.
func (s *ReviewService) CreateReview(ctx context.Context, input CreateReviewInput) (*model.Review, error) {
	if input.Book.ID == "" && input.Book.Title == "" {
		return nil, ErrMissingBookRef
	}
	if input.Reviewer.ID == "" && input.Reviewer.Username == "" {
		return nil, ErrMissingBorrowerRef
	}

	if !model.IsValidRating(input.Rating) {
		return nil, ErrInvalidRating
	}
	if len(input.Comment) > maxCommentLength {
		return nil, ErrCommentTooLong
	}

	book, err := s.resolveBook(ctx, input.Book)
	if err != nil {
		return nil, err
	}

	user, err := s.resolveUser(ctx, input.Reviewer)
	if err != nil {
		return nil, err
	}

	date := s.clock.Now()
	if input.Date != nil {
		date = input.Date.UTC()
	}

	review := &model.Review{
		ID:        ulid.Make().String(),
		BookID:    book.ID,
		UserID:    user.ID,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		Date:      date,
		CreatedAt: s.clock.Now(),
	}

	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	return review, nil
}

// ListReviewsByBook retrieves reviews for a book, newest first.
// Returns ErrBookNotFound for an unknown book.
func (s *ReviewService) ListReviewsByBook(ctx context.Context, bookID string) ([]*model.Review, error) {
	if _, err := s.repo.GetBookByID(ctx, bookID); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return nil, fmt.Errorf("%q: %w", bookID, ErrBookNotFound)
		}
		return nil, err
	}

	return s.repo.ListReviewsByBookID(ctx, bookID)
}

// ListReviewsByUser retrieves reviews a user posted, newest first.
// Returns ErrUserNotFound for an unknown user.
func (s *ReviewService) ListReviewsByUser(ctx context.Context, userID string) ([]*model.Review, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%q: %w", userID, ErrUserNotFound)
		}
		return nil, err
	}

	return s.repo.ListReviewsByUserID(ctx, userID)
}

// DeleteReview removes a review.
func (s *ReviewService) DeleteReview(ctx context.Context, id string) error {
	if err := s.repo.DeleteReview(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	return nil
}

func (s *ReviewService) resolveBook(ctx context.Context, ref BookRef) (*model.Book, error) {
	var (
		book *model.Book
		err  error
	)
	key := ref.ID
	if ref.ID != "" {
		book, err = s.repo.GetBookByID(ctx, ref.ID)
	} else {
		key = ref.Title
		book, err = s.repo.GetBookByTitle(ctx, ref.Title)
	}
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return nil, fmt.Errorf("%q: %w", key, ErrBookNotFound)
		}
		return nil, err
	}
	return book, nil
}

func (s *ReviewService) resolveUser(ctx context.Context, ref BorrowerRef) (*model.User, error) {
	var (
		user *model.User
		err  error
	)
	key := ref.ID
	if ref.ID != "" {
		user, err = s.repo.GetUserByID(ctx, ref.ID)
	} else {
		key = ref.Username
		user, err = s.repo.GetUserByUsername(ctx, ref.Username)
	}
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%q: %w", key, ErrUserNotFound)
		}
		return nil, err
	}
	return user, nil
}
