// Package model defines domain entities for the application.
package model

import "time"

// LoanStatus represents the computed status of a loan.
type LoanStatus string

const (
	LoanStatusOutstanding LoanStatus = "outstanding"
	LoanStatusOverdue     LoanStatus = "overdue"
	LoanStatusReturned    LoanStatus = "returned"
)

// Loan represents a single checkout of a book copy by a user.
// BookID and UserID are fixed at creation and never reassigned.
type Loan struct {
	ID         string     `json:"id"`
	BookID     string     `json:"book_id"`
	UserID     string     `json:"user_id"`
	LoanDate   time.Time  `json:"loan_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// LoanDetail is the caller-facing projection of a loan, joined with the
// book title and borrower username.
type LoanDetail struct {
	ID         string     `json:"id"`
	BookID     string     `json:"book_id"`
	BookTitle  string     `json:"book_title"`
	UserID     string     `json:"user_id"`
	Username   string     `json:"username"`
	LoanDate   time.Time  `json:"loan_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

// IsReturned returns true if the loan has been closed.
func (l *Loan) IsReturned() bool {
	return l.ReturnDate != nil
}

// IsOutstanding returns true if the book copy is still out.
func (l *Loan) IsOutstanding() bool {
	return l.ReturnDate == nil
}

// Status computes the loan status as of the given instant.
func (l *Loan) Status(now time.Time) LoanStatus {
	if l.ReturnDate != nil {
		return LoanStatusReturned
	}
	if now.After(l.DueDate) {
		return LoanStatusOverdue
	}
	return LoanStatusOutstanding
}
