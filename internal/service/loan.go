// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shelfmark/shelfmark/internal/clock"
	"github.com/shelfmark/shelfmark/internal/metrics"
	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/repository"
)

// Service errors.
var (
	ErrBookNotFound        = errors.New("book not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrLoanNotFound        = errors.New("loan not found")
	ErrNoAvailableCopies   = errors.New("no copies available")
	ErrLoanAlreadyReturned = errors.New("loan already returned")
	ErrMissingBookRef      = errors.New("book id or title required")
	ErrMissingBorrowerRef  = errors.New("user id or username required")
)

// DefaultLoanPeriod is used when no loan period is configured.
const DefaultLoanPeriod = 14 * 24 * time.Hour

// BookRef identifies a book by ID or, failing that, by exact title.
type BookRef struct {
	ID    string
	Title string
}

// BorrowerRef identifies a user by ID or, failing that, by username.
type BorrowerRef struct {
	ID       string
	Username string
}

// LoanStore is the persistence surface the loan workflow needs.
// *repository.Repository satisfies it; unit tests use an in-memory fake.
type LoanStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetBookForUpdate(ctx context.Context, id string) (*model.Book, error)
	GetBookByTitleForUpdate(ctx context.Context, title string) (*model.Book, error)
	AdjustAvailableCopies(ctx context.Context, id string, delta int) error

	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	CreateLoan(ctx context.Context, loan *model.Loan) error
	GetLoanForUpdate(ctx context.Context, id string) (*model.Loan, error)
	GetLoanDetail(ctx context.Context, id string) (*model.LoanDetail, error)
	ListLoanDetails(ctx context.Context) ([]*model.LoanDetail, error)
	ListLoanDetailsByUserID(ctx context.Context, userID string) ([]*model.LoanDetail, error)
	ListLoanDetailsByUsername(ctx context.Context, username string) ([]*model.LoanDetail, error)
	SetLoanReturnDate(ctx context.Context, id string, returnDate time.Time) error
	DeleteLoan(ctx context.Context, id string) error
}

// BookCacheInvalidator drops cached book entries whose copy counts changed.
// *cache.Cache satisfies it.
type BookCacheInvalidator interface {
	DeleteBook(ctx context.Context, id string) error
}

// EventSink receives loan lifecycle events after the surrounding
// transaction commits. Implementations must not block.
type EventSink interface {
	LoanCheckedOut(ctx context.Context, loan *model.Loan)
	LoanReturned(ctx context.Context, loan *model.Loan)
}

// LoanService handles the checkout and return workflow.
type LoanService struct {
	store      LoanStore
	cache      BookCacheInvalidator
	clock      clock.Clock
	loanPeriod time.Duration
	metrics    metrics.Recorder
	sinks      []EventSink
}

// NewLoanService creates a new LoanService.
func NewLoanService(store LoanStore, cache BookCacheInvalidator, clk clock.Clock, loanPeriod time.Duration, recorder metrics.Recorder, sinks ...EventSink) *LoanService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if loanPeriod <= 0 {
		loanPeriod = DefaultLoanPeriod
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &LoanService{
		store:      store,
		cache:      cache,
		clock:      clk,
		loanPeriod: loanPeriod,
		metrics:    recorder,
		sinks:      sinks,
	}
}

// CreateLoanInput defines input for checking out a book.
type CreateLoanInput struct {
	Book     BookRef
	Borrower BorrowerRef
	LoanDate *time.Time
	DueDate  *time.Time
}

// CreateLoan checks out one copy of a book to a borrower.
//
// The book row is locked for the duration of the transaction, so the
// availability check and the decrement are atomic even under concurrent
// checkouts of the last copy.
func (s *LoanService) CreateLoan(ctx context.Context, input CreateLoanInput) (*model.LoanDetail, error) {
	if input.Book.ID == "" && input.Book.Title == "" {
		return nil, ErrMissingBookRef
	}
	if input.Borrower.ID == "" && input.Borrower.Username == "" {
		return nil, ErrMissingBorrowerRef
	}

	loanDate := s.clock.Now()
	if input.LoanDate != nil {
		loanDate = input.LoanDate.UTC()
	}
	// An explicit due date is taken as given, even one in the past.
	// Backdated records imported from another system stay importable.
	dueDate := loanDate.Add(s.loanPeriod)
	if input.DueDate != nil {
		dueDate = input.DueDate.UTC()
	}

	var loan *model.Loan
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		book, err := s.resolveBookForUpdate(ctx, input.Book)
		if err != nil {
			return err
		}

		user, err := s.resolveBorrower(ctx, input.Borrower)
		if err != nil {
			return err
		}

		if !book.IsAvailable() {
			return ErrNoAvailableCopies
		}

		if err := s.store.AdjustAvailableCopies(ctx, book.ID, -1); err != nil {
			if errors.Is(err, repository.ErrNoCopies) {
				return ErrNoAvailableCopies
			}
			return fmt.Errorf("decrement available copies: %w", err)
		}

		now := s.clock.Now()
		loan = &model.Loan{
			ID:        ulid.Make().String(),
			BookID:    book.ID,
			UserID:    user.ID,
			LoanDate:  loanDate,
			DueDate:   dueDate,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := s.store.CreateLoan(ctx, loan); err != nil {
			return fmt.Errorf("create loan: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoAvailableCopies) {
			s.metrics.IncLoanRejected()
		}
		return nil, err
	}

	s.metrics.IncLoanCreated()
	s.invalidateBook(ctx, loan.BookID)

	for _, sink := range s.sinks {
		sink.LoanCheckedOut(ctx, loan)
	}

	return s.getDetail(ctx, loan.ID)
}

// GetLoan retrieves a loan with its book title and borrower username.
func (s *LoanService) GetLoan(ctx context.Context, id string) (*model.LoanDetail, error) {
	return s.getDetail(ctx, id)
}

// ListLoans retrieves loans, optionally filtered to one borrower.
func (s *LoanService) ListLoans(ctx context.Context, borrower *BorrowerRef) ([]*model.LoanDetail, error) {
	switch {
	case borrower == nil:
		return s.store.ListLoanDetails(ctx)
	case borrower.ID != "":
		return s.store.ListLoanDetailsByUserID(ctx, borrower.ID)
	case borrower.Username != "":
		return s.store.ListLoanDetailsByUsername(ctx, borrower.Username)
	default:
		return nil, ErrMissingBorrowerRef
	}
}

// ReturnLoan closes a loan and restores the copy to circulation.
//
// Closing an already-returned loan is rejected rather than ignored so a
// copy can never be restored twice.
func (s *LoanService) ReturnLoan(ctx context.Context, id string, returnDate *time.Time) (*model.LoanDetail, error) {
	var loan *model.Loan
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		l, err := s.store.GetLoanForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrLoanNotFound) {
				return ErrLoanNotFound
			}
			return err
		}

		if l.IsReturned() {
			return ErrLoanAlreadyReturned
		}

		rd := s.clock.Now()
		if returnDate != nil {
			rd = returnDate.UTC()
		}

		if err := s.store.SetLoanReturnDate(ctx, id, rd); err != nil {
			return fmt.Errorf("set return date: %w", err)
		}

		if err := s.store.AdjustAvailableCopies(ctx, l.BookID, 1); err != nil {
			return fmt.Errorf("increment available copies: %w", err)
		}

		l.ReturnDate = &rd
		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncLoanReturned()
	s.invalidateBook(ctx, loan.BookID)

	for _, sink := range s.sinks {
		sink.LoanReturned(ctx, loan)
	}

	return s.getDetail(ctx, id)
}

// DeleteLoan removes a loan record.
//
// Availability is deliberately untouched: deleting the record of an
// outstanding loan does not bring the copy back, that is what returning
// is for.
func (s *LoanService) DeleteLoan(ctx context.Context, id string) error {
	if err := s.store.DeleteLoan(ctx, id); err != nil {
		if errors.Is(err, repository.ErrLoanNotFound) {
			return ErrLoanNotFound
		}
		return err
	}

	s.metrics.IncLoanDeleted()

	return nil
}

func (s *LoanService) getDetail(ctx context.Context, id string) (*model.LoanDetail, error) {
	detail, err := s.store.GetLoanDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLoanNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return detail, nil
}

func (s *LoanService) resolveBookForUpdate(ctx context.Context, ref BookRef) (*model.Book, error) {
	var (
		book *model.Book
		err  error
	)
	key := ref.ID
	if ref.ID != "" {
		book, err = s.store.GetBookForUpdate(ctx, ref.ID)
	} else {
		key = ref.Title
		book, err = s.store.GetBookByTitleForUpdate(ctx, ref.Title)
	}
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return nil, fmt.Errorf("%q: %w", key, ErrBookNotFound)
		}
		return nil, err
	}
	return book, nil
}

func (s *LoanService) resolveBorrower(ctx context.Context, ref BorrowerRef) (*model.User, error) {
	var (
		user *model.User
		err  error
	)
	key := ref.ID
	if ref.ID != "" {
		user, err = s.store.GetUserByID(ctx, ref.ID)
	} else {
		key = ref.Username
		user, err = s.store.GetUserByUsername(ctx, ref.Username)
	}
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%q: %w", key, ErrUserNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *LoanService) invalidateBook(ctx context.Context, bookID string) {
	if s.cache == nil {
		return
	}
	// Log but don't fail - eventual consistency is acceptable
	_ = s.cache.DeleteBook(ctx, bookID)
}
