package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shelfmark/shelfmark/internal/model"
)

// ErrLoanNotFound is returned when a loan lookup misses.
var ErrLoanNotFound = errors.New("loan not found")

const loanDetailQuery = `
	SELECT l.id, l.book_id, b.title, l.user_id, u.username, l.loan_date, l.due_date, l.return_date
	FROM loans l
	JOIN books b ON b.id = l.book_id
	JOIN users u ON u.id = l.user_id
`

// CreateLoan inserts a new loan record.
func (r *Repository) CreateLoan(ctx context.Context, loan *model.Loan) error {
	query := `
		INSERT INTO loans (id, book_id, user_id, loan_date, due_date, return_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.exec(ctx, query,
		loan.ID,
		loan.BookID,
		loan.UserID,
		loan.LoanDate,
		loan.DueDate,
		loan.ReturnDate,
		loan.CreatedAt,
		loan.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}

	return nil
}

// GetLoanByID retrieves a loan by its ID.
func (r *Repository) GetLoanByID(ctx context.Context, id string) (*model.Loan, error) {
	query := `
		SELECT id, book_id, user_id, loan_date, due_date, return_date, created_at, updated_at
		FROM loans
		WHERE id = $1
	`

	loan, err := scanLoan(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to get loan by ID: %w", err)
	}

	return loan, nil
}

// GetLoanForUpdate retrieves a loan by ID with a row lock.
// Must be called inside WithTx; guards the return-date transition.
func (r *Repository) GetLoanForUpdate(ctx context.Context, id string) (*model.Loan, error) {
	query := `
		SELECT id, book_id, user_id, loan_date, due_date, return_date, created_at, updated_at
		FROM loans
		WHERE id = $1
		FOR UPDATE
	`

	loan, err := scanLoan(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to lock loan: %w", err)
	}

	return loan, nil
}

// GetLoanDetail retrieves the caller-facing projection of one loan.
func (r *Repository) GetLoanDetail(ctx context.Context, id string) (*model.LoanDetail, error) {
	query := loanDetailQuery + ` WHERE l.id = $1`

	detail, err := scanLoanDetail(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to get loan detail: %w", err)
	}

	return detail, nil
}

// ListLoanDetails retrieves projections of all loans.
func (r *Repository) ListLoanDetails(ctx context.Context) ([]*model.LoanDetail, error) {
	query := loanDetailQuery + ` ORDER BY l.loan_date DESC, l.id DESC`
	return r.listLoanDetails(ctx, query)
}

// ListLoanDetailsByUserID retrieves projections of one borrower's loans.
// Returns an empty slice for an unknown borrower (pure filter).
func (r *Repository) ListLoanDetailsByUserID(ctx context.Context, userID string) ([]*model.LoanDetail, error) {
	query := loanDetailQuery + ` WHERE l.user_id = $1 ORDER BY l.loan_date DESC, l.id DESC`
	return r.listLoanDetails(ctx, query, userID)
}

// ListLoanDetailsByUsername retrieves projections of one borrower's loans,
// looked up by the username natural key.
func (r *Repository) ListLoanDetailsByUsername(ctx context.Context, username string) ([]*model.LoanDetail, error) {
	query := loanDetailQuery + ` WHERE u.username = $1 ORDER BY l.loan_date DESC, l.id DESC`
	return r.listLoanDetails(ctx, query, username)
}

func (r *Repository) listLoanDetails(ctx context.Context, query string, args ...any) ([]*model.LoanDetail, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	details := make([]*model.LoanDetail, 0)
	for rows.Next() {
		detail, err := scanLoanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		details = append(details, detail)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loans: %w", err)
	}

	return details, nil
}

// LoanExists checks if a loan exists.
func (r *Repository) LoanExists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM loans WHERE id = $1)`

	var exists bool
	if err := r.queryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check loan existence: %w", err)
	}

	return exists, nil
}

// SetLoanReturnDate stamps the return date, closing the loan.
func (r *Repository) SetLoanReturnDate(ctx context.Context, id string, returnDate time.Time) error {
	query := `
		UPDATE loans
		SET return_date = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.exec(ctx, query, id, returnDate)
	if err != nil {
		return fmt.Errorf("failed to set return date: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLoanNotFound
	}

	return nil
}

// DeleteLoan removes a loan record permanently.
// Availability accounting is deliberately untouched; hard deletes are an
// administrative override, not a return.
func (r *Repository) DeleteLoan(ctx context.Context, id string) error {
	query := `DELETE FROM loans WHERE id = $1`

	result, err := r.exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLoanNotFound
	}

	return nil
}

// scanLoan scans a single row into a Loan model.
func scanLoan(row pgx.Row) (*model.Loan, error) {
	var loan model.Loan
	err := row.Scan(
		&loan.ID,
		&loan.BookID,
		&loan.UserID,
		&loan.LoanDate,
		&loan.DueDate,
		&loan.ReturnDate,
		&loan.CreatedAt,
		&loan.UpdatedAt,
	)
	return &loan, err
}

// scanLoanDetail scans a joined row into a LoanDetail projection.
func scanLoanDetail(row pgx.Row) (*model.LoanDetail, error) {
	var detail model.LoanDetail
	err := row.Scan(
		&detail.ID,
		&detail.BookID,
		&detail.BookTitle,
		&detail.UserID,
		&detail.Username,
		&detail.LoanDate,
		&detail.DueDate,
		&detail.ReturnDate,
	)
	return &detail, err
}
