package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/repository"
)

// fakeLoanStore is an in-memory LoanStore. WithTx snapshots all state and
// restores it when the callback fails, matching real rollback semantics.
type fakeLoanStore struct {
	books map[string]*model.Book
	users map[string]*model.User
	loans map[string]*model.Loan
}

func newFakeLoanStore() *fakeLoanStore {
	return &fakeLoanStore{
		books: make(map[string]*model.Book),
		users: make(map[string]*model.User),
		loans: make(map[string]*model.Loan),
	}
}

func (f *fakeLoanStore) addBook(id, title string, total, available int) *model.Book {
	book := &model.Book{
		ID:              id,
		ISBN:            fmt.Sprintf("978000000%04d", len(f.books)),
		Title:           title,
		Author:          "Test Author",
		TotalCopies:     total,
		AvailableCopies: available,
	}
	f.books[id] = book
	return book
}

func (f *fakeLoanStore) addUser(id, username string) *model.User {
	user := &model.User{
		ID:       id,
		Username: username,
		Role:     model.RoleReader,
		Email:    username + "@example.com",
	}
	f.users[id] = user
	return user
}

func (f *fakeLoanStore) snapshot() (map[string]*model.Book, map[string]*model.User, map[string]*model.Loan) {
	books := make(map[string]*model.Book, len(f.books))
	for k, v := range f.books {
		c := *v
		books[k] = &c
	}
	users := make(map[string]*model.User, len(f.users))
	for k, v := range f.users {
		c := *v
		users[k] = &c
	}
	loans := make(map[string]*model.Loan, len(f.loans))
	for k, v := range f.loans {
		c := *v
		if v.ReturnDate != nil {
			rd := *v.ReturnDate
			c.ReturnDate = &rd
		}
		loans[k] = &c
	}
	return books, users, loans
}

func (f *fakeLoanStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	books, users, loans := f.snapshot()
	if err := fn(ctx); err != nil {
		f.books, f.users, f.loans = books, users, loans
		return err
	}
	return nil
}

func (f *fakeLoanStore) GetBookForUpdate(ctx context.Context, id string) (*model.Book, error) {
	book, ok := f.books[id]
	if !ok {
		return nil, repository.ErrBookNotFound
	}
	return book, nil
}

func (f *fakeLoanStore) GetBookByTitleForUpdate(ctx context.Context, title string) (*model.Book, error) {
	for _, book := range f.books {
		if book.Title == title {
			return book, nil
		}
	}
	return nil, repository.ErrBookNotFound
}

func (f *fakeLoanStore) AdjustAvailableCopies(ctx context.Context, id string, delta int) error {
	book, ok := f.books[id]
	if !ok {
		return repository.ErrBookNotFound
	}
	next := book.AvailableCopies + delta
	if next < 0 || next > book.TotalCopies {
		return repository.ErrNoCopies
	}
	book.AvailableCopies = next
	return nil
}

func (f *fakeLoanStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeLoanStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeLoanStore) CreateLoan(ctx context.Context, loan *model.Loan) error {
	c := *loan
	f.loans[loan.ID] = &c
	return nil
}

func (f *fakeLoanStore) GetLoanForUpdate(ctx context.Context, id string) (*model.Loan, error) {
	loan, ok := f.loans[id]
	if !ok {
		return nil, repository.ErrLoanNotFound
	}
	c := *loan
	return &c, nil
}

func (f *fakeLoanStore) GetLoanDetail(ctx context.Context, id string) (*model.LoanDetail, error) {
	loan, ok := f.loans[id]
	if !ok {
		return nil, repository.ErrLoanNotFound
	}
	return f.toDetail(loan), nil
}

func (f *fakeLoanStore) ListLoanDetails(ctx context.Context) ([]*model.LoanDetail, error) {
	details := make([]*model.LoanDetail, 0, len(f.loans))
	for _, loan := range f.loans {
		details = append(details, f.toDetail(loan))
	}
	return details, nil
}

func (f *fakeLoanStore) ListLoanDetailsByUserID(ctx context.Context, userID string) ([]*model.LoanDetail, error) {
	details := make([]*model.LoanDetail, 0)
	for _, loan := range f.loans {
		if loan.UserID == userID {
			details = append(details, f.toDetail(loan))
		}
	}
	return details, nil
}

func (f *fakeLoanStore) ListLoanDetailsByUsername(ctx context.Context, username string) ([]*model.LoanDetail, error) {
	details := make([]*model.LoanDetail, 0)
	for _, loan := range f.loans {
		if user, ok := f.users[loan.UserID]; ok && user.Username == username {
			details = append(details, f.toDetail(loan))
		}
	}
	return details, nil
}

func (f *fakeLoanStore) SetLoanReturnDate(ctx context.Context, id string, returnDate time.Time) error {
	loan, ok := f.loans[id]
	if !ok {
		return repository.ErrLoanNotFound
	}
	loan.ReturnDate = &returnDate
	return nil
}

func (f *fakeLoanStore) DeleteLoan(ctx context.Context, id string) error {
	if _, ok := f.loans[id]; !ok {
		return repository.ErrLoanNotFound
	}
	delete(f.loans, id)
	return nil
}

func (f *fakeLoanStore) toDetail(loan *model.Loan) *model.LoanDetail {
	detail := &model.LoanDetail{
		ID:       loan.ID,
		BookID:   loan.BookID,
		UserID:   loan.UserID,
		LoanDate: loan.LoanDate,
		DueDate:  loan.DueDate,
	}
	if loan.ReturnDate != nil {
		rd := *loan.ReturnDate
		detail.ReturnDate = &rd
	}
	if book, ok := f.books[loan.BookID]; ok {
		detail.BookTitle = book.Title
	}
	if user, ok := f.users[loan.UserID]; ok {
		detail.Username = user.Username
	}
	return detail
}

// fakeInvalidator records book cache invalidations.
type fakeInvalidator struct {
	deleted []string
}

func (f *fakeInvalidator) DeleteBook(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeSink records loan lifecycle events.
type fakeSink struct {
	checkedOut []*model.Loan
	returned   []*model.Loan
}

func (f *fakeSink) LoanCheckedOut(ctx context.Context, loan *model.Loan) {
	f.checkedOut = append(f.checkedOut, loan)
}

func (f *fakeSink) LoanReturned(ctx context.Context, loan *model.Loan) {
	f.returned = append(f.returned, loan)
}
