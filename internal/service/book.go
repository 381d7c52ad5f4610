package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shelfmark/shelfmark/internal/cache"
	"github.com/shelfmark/shelfmark/internal/metrics"
	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/repository"
)

// Catalog errors.
var (
	ErrInvalidISBN      = errors.New("invalid ISBN")
	ErrMissingTitle     = errors.New("title required")
	ErrMissingAuthor    = errors.New("author required")
	ErrInvalidCopyCount = errors.New("invalid copy count")
	ErrISBNExists       = errors.New("ISBN already registered")
)

const maxTitleLength = 512

// BookService handles catalog business logic.
type BookService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	metrics metrics.Recorder
}

// NewBookService creates a new BookService.
func NewBookService(repo *repository.Repository, cache *cache.Cache, recorder metrics.Recorder) *BookService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &BookService{
		repo:    repo,
		cache:   cache,
		metrics: recorder,
	}
}

// CreateBookInput defines input for registering a book.
type CreateBookInput struct {
	ISBN            string
	Title           string
	Author          string
	Publisher       string
	PublishYear     int
	TotalCopies     int
	AvailableCopies *int
}

// CreateBook registers a new catalog entry.
// Available copies default to the total unless given explicitly.
func (s *BookService) CreateBook(ctx context.Context, input CreateBookInput) (*model.Book, error) {
	isbn, err := normalizeISBN(input.ISBN)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" || len(title) > maxTitleLength {
		return nil, ErrMissingTitle
	}

	if strings.TrimSpace(input.Author) == "" {
		return nil, ErrMissingAuthor
	}

	if input.TotalCopies < 0 {
		return nil, ErrInvalidCopyCount
	}

	available := input.TotalCopies
	if input.AvailableCopies != nil {
		available = *input.AvailableCopies
	}
	if available < 0 || available > input.TotalCopies {
		return nil, ErrInvalidCopyCount
	}

	now := time.Now().UTC()
	book := &model.Book{
		ID:              ulid.Make().String(),
		ISBN:            isbn,
		Title:           title,
		Author:          strings.TrimSpace(input.Author),
		Publisher:       strings.TrimSpace(input.Publisher),
		PublishYear:     input.PublishYear,
		TotalCopies:     input.TotalCopies,
		AvailableCopies: available,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.CreateBook(ctx, book); err != nil {
		if errors.Is(err, repository.ErrISBNExists) {
			return nil, ErrISBNExists
		}
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	return book, nil
}

// GetBook retrieves a book by ID.
// This is the hot path - optimized for speed with cache-first lookup.
func (s *BookService) GetBook(ctx context.Context, id string) (*model.Book, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveLookupDuration(time.Since(start))
	}()

	// Step 1: Try cache
	cached, err := s.cache.GetBook(ctx, id)
	if err == nil {
		s.metrics.IncBookCacheHit()
		return cached.ToBook(id), nil
	}

	// Step 2: Check negative cache
	if !errors.Is(err, cache.ErrCacheMiss) {
		// Redis error - fall through to DB
	} else {
		s.metrics.IncBookCacheMiss()
		isNegative, _ := s.cache.IsNegativelyCached(ctx, id)
		if isNegative {
			return nil, ErrBookNotFound
		}
	}

	// Step 3: DB lookup
	book, err := s.repo.GetBookByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			_ = s.cache.SetNegativeCache(ctx, id)
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	// Step 4: Backfill cache
	if err := s.cache.SetBook(ctx, book); err != nil {
		// Log but don't fail
		_ = err
	}

	return book, nil
}

// GetBookByTitle retrieves a book by exact title, going through the
// cached title index when possible.
func (s *BookService) GetBookByTitle(ctx context.Context, title string) (*model.Book, error) {
	if id, err := s.cache.GetTitleIndex(ctx, title); err == nil {
		book, err := s.GetBook(ctx, id)
		if err == nil {
			return book, nil
		}
		// Stale index entry - fall through to DB
	}

	book, err := s.repo.GetBookByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return nil, fmt.Errorf("%q: %w", title, ErrBookNotFound)
		}
		return nil, err
	}

	_ = s.cache.SetBook(ctx, book)
	_ = s.cache.SetTitleIndex(ctx, book.Title, book.ID)

	return book, nil
}

// ListBooks retrieves the full catalog ordered by title.
func (s *BookService) ListBooks(ctx context.Context) ([]*model.Book, error) {
	return s.repo.ListBooks(ctx)
}

// DeleteBook removes a catalog entry and evicts it from cache.
func (s *BookService) DeleteBook(ctx context.Context, id string) error {
	if err := s.repo.DeleteBook(ctx, id); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return ErrBookNotFound
		}
		return err
	}

	if err := s.cache.DeleteBook(ctx, id); err != nil {
		_ = err // Log but don't fail
	}

	return nil
}

// normalizeISBN strips separators and validates ISBN-10 or ISBN-13 shape.
func normalizeISBN(isbn string) (string, error) {
	normalized := strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, isbn)

	if len(normalized) != 10 && len(normalized) != 13 {
		return "", ErrInvalidISBN
	}

	for i, r := range normalized {
		if r >= '0' && r <= '9' {
			continue
		}
		// ISBN-10 allows X as the final check digit
		if len(normalized) == 10 && i == 9 && (r == 'X' || r == 'x') {
			continue
		}
		return "", ErrInvalidISBN
	}

	return strings.ToUpper(normalized), nil
}
