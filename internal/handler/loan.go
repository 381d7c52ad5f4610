package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfmark/shelfmark/internal/handler/dto"
	"github.com/shelfmark/shelfmark/internal/service"
)

// LoanHandler handles HTTP requests for the loan workflow.
type LoanHandler struct {
	svc    *service.LoanService
	logger *slog.Logger
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(svc *service.LoanService, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/loans.
func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	// Date ordering is request-shape policy, not workflow policy; the
	// service accepts any due date.
	if req.LoanDate != nil && req.DueDate != nil && !req.DueDate.After(*req.LoanDate) {
		writeError(w, http.StatusUnprocessableEntity, "DUE_BEFORE_LOAN_DATE", "Due date cannot precede the loan date")
		return
	}

	input := service.CreateLoanInput{
		Book:     service.BookRef{ID: req.BookID, Title: req.BookTitle},
		Borrower: service.BorrowerRef{ID: req.UserID, Username: req.Username},
		LoanDate: req.LoanDate,
		DueDate:  req.DueDate,
	}

	loan, err := h.svc.CreateLoan(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("loan_created",
		"loan_id", loan.ID,
		"book_id", loan.BookID,
		"user_id", loan.UserID,
		"due_date", loan.DueDate,
	)

	writeJSON(w, http.StatusCreated, dto.ToLoanResponse(loan))
}

// Get handles GET /api/v1/loans/{id}.
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Loan ID is required")
		return
	}

	loan, err := h.svc.GetLoan(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLoanResponse(loan))
}

// List handles GET /api/v1/loans.
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	loans, err := h.svc.ListLoans(r.Context(), nil)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLoanListResponse(loans))
}

// ListByUser handles GET /api/v1/users/{id}/loans.
// With ?username= the path id is ignored and the username form is used.
func (h *LoanHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	borrower := service.BorrowerRef{ID: chi.URLParam(r, "id")}
	if username := r.URL.Query().Get("username"); username != "" {
		borrower = service.BorrowerRef{Username: username}
	}
	if borrower.ID == "" && borrower.Username == "" {
		writeError(w, http.StatusBadRequest, "MISSING_BORROWER", "User ID or username is required")
		return
	}

	loans, err := h.svc.ListLoans(r.Context(), &borrower)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLoanListResponse(loans))
}

// Return handles POST /api/v1/loans/{id}/return.
func (h *LoanHandler) Return(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Loan ID is required")
		return
	}

	// Body is optional; an empty body means "returned now".
	var req dto.ReturnLoanRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
			return
		}
	}

	loan, err := h.svc.ReturnLoan(r.Context(), id, req.ReturnDate)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("loan_returned",
		"loan_id", loan.ID,
		"book_id", loan.BookID,
	)

	writeJSON(w, http.StatusOK, dto.ToLoanResponse(loan))
}

// Delete handles DELETE /api/v1/loans/{id}.
func (h *LoanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Loan ID is required")
		return
	}

	if err := h.svc.DeleteLoan(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("loan_deleted", "loan_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps loan service errors to HTTP responses.
func (h *LoanHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrLoanNotFound):
		writeError(w, http.StatusNotFound, "LOAN_NOT_FOUND", "Loan not found")
	case errors.Is(err, service.ErrBookNotFound):
		writeError(w, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrNoAvailableCopies):
		writeError(w, http.StatusConflict, "NO_AVAILABLE_COPIES", "No copies of this book are available")
	case errors.Is(err, service.ErrLoanAlreadyReturned):
		writeError(w, http.StatusConflict, "LOAN_ALREADY_RETURNED", "Loan has already been returned")
	case errors.Is(err, service.ErrMissingBookRef):
		writeError(w, http.StatusBadRequest, "MISSING_BOOK_REF", "Book ID or title is required")
	case errors.Is(err, service.ErrMissingBorrowerRef):
		writeError(w, http.StatusBadRequest, "MISSING_BORROWER_REF", "User ID or username is required")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
