package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfmark/shelfmark/internal/auth"
	"github.com/shelfmark/shelfmark/internal/handler/dto"
	"github.com/shelfmark/shelfmark/internal/service"
)

// ReviewHandler handles HTTP requests for review operations.
type ReviewHandler struct {
	svc    *service.ReviewService
	logger *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/books/{id}/reviews.
// The reviewer is the authenticated session user.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	if bookID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Book ID is required")
		return
	}

	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req dto.CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.CreateReviewInput{
		Book:     service.BookRef{ID: bookID},
		Reviewer: service.BorrowerRef{ID: authCtx.UserID},
		Rating:   req.Rating,
		Comment:  req.Comment,
		Date:     req.Date,
	}

	review, err := h.svc.CreateReview(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("review_created",
		"review_id", review.ID,
		"book_id", review.BookID,
		"rating", review.Rating,
	)

	writeJSON(w, http.StatusCreated, dto.ToReviewResponse(review))
}

// ListByBook handles GET /api/v1/books/{id}/reviews.
func (h *ReviewHandler) ListByBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	if bookID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Book ID is required")
		return
	}

	reviews, err := h.svc.ListReviewsByBook(r.Context(), bookID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToReviewListResponse(reviews))
}

// ListByUser handles GET /api/v1/users/{id}/reviews.
func (h *ReviewHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "User ID is required")
		return
	}

	reviews, err := h.svc.ListReviewsByUser(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToReviewListResponse(reviews))
}

// Delete handles DELETE /api/v1/reviews/{id}.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Review ID is required")
		return
	}

	if err := h.svc.DeleteReview(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("review_deleted", "review_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps review service errors to HTTP responses.
func (h *ReviewHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrReviewNotFound):
		writeError(w, http.StatusNotFound, "REVIEW_NOT_FOUND", "Review not found")
	case errors.Is(err, service.ErrBookNotFound):
		writeError(w, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "INVALID_RATING", "Rating must be between 1 and 5")
	case errors.Is(err, service.ErrCommentTooLong):
		writeError(w, http.StatusBadRequest, "COMMENT_TOO_LONG", "Comment exceeds maximum length")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
