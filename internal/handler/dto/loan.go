package dto

import (
	"time"

	"github.com/shelfmark/shelfmark/internal/model"
)

// CreateLoanRequest represents the request body for checking out a book.
// The book may be referenced by id or title, the borrower by id or
// username. Loan and due dates are optional; the server fills them in.
type CreateLoanRequest struct {
	BookID    string     `json:"book_id,omitempty"`
	BookTitle string     `json:"book_title,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
	Username  string     `json:"username,omitempty"`
	LoanDate  *time.Time `json:"loan_date,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
}

// ReturnLoanRequest represents the request body for returning a loan.
type ReturnLoanRequest struct {
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

// LoanResponse represents a loan joined with its book and borrower.
type LoanResponse struct {
	ID         string     `json:"id"`
	BookID     string     `json:"book_id"`
	BookTitle  string     `json:"book_title"`
	UserID     string     `json:"user_id"`
	Username   string     `json:"username"`
	LoanDate   time.Time  `json:"loan_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

// LoanListResponse represents a loan listing.
type LoanListResponse struct {
	Data  []LoanResponse `json:"data"`
	Total int            `json:"total"`
}

// ToLoanResponse converts a LoanDetail projection to its response DTO.
func ToLoanResponse(detail *model.LoanDetail) *LoanResponse {
	return &LoanResponse{
		ID:         detail.ID,
		BookID:     detail.BookID,
		BookTitle:  detail.BookTitle,
		UserID:     detail.UserID,
		Username:   detail.Username,
		LoanDate:   detail.LoanDate,
		DueDate:    detail.DueDate,
		ReturnDate: detail.ReturnDate,
	}
}

// ToLoanListResponse converts a slice of LoanDetail projections.
func ToLoanListResponse(details []*model.LoanDetail) *LoanListResponse {
	responses := make([]LoanResponse, len(details))
	for i, detail := range details {
		responses[i] = *ToLoanResponse(detail)
	}
	return &LoanListResponse{Data: responses, Total: len(responses)}
}
