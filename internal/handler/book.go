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

// BookHandler handles HTTP requests for catalog operations.
type BookHandler struct {
	svc    *service.BookService
	logger *slog.Logger
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(svc *service.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/books.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.CreateBookInput{
		ISBN:            req.ISBN,
		Title:           req.Title,
		Author:          req.Author,
		Publisher:       req.Publisher,
		PublishYear:     req.PublishYear,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: req.AvailableCopies,
	}

	book, err := h.svc.CreateBook(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("book_created",
		"book_id", book.ID,
		"isbn", book.ISBN,
		"total_copies", book.TotalCopies,
	)

	writeJSON(w, http.StatusCreated, dto.ToBookResponse(book))
}

// Get handles GET /api/v1/books/{id}.
// A ?title= query on the collection route resolves by exact title instead.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Book ID is required")
		return
	}

	book, err := h.svc.GetBook(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToBookResponse(book))
}

// List handles GET /api/v1/books and GET /api/v1/books?title=.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	if title := r.URL.Query().Get("title"); title != "" {
		book, err := h.svc.GetBookByTitle(r.Context(), title)
		if err != nil {
			h.handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dto.ToBookResponse(book))
		return
	}

	books, err := h.svc.ListBooks(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToBookListResponse(books))
}

// Delete handles DELETE /api/v1/books/{id}.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Book ID is required")
		return
	}

	if err := h.svc.DeleteBook(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("book_deleted", "book_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps catalog service errors to HTTP responses.
func (h *BookHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrBookNotFound):
		writeError(w, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found")
	case errors.Is(err, service.ErrISBNExists):
		writeError(w, http.StatusConflict, "ISBN_TAKEN", "A book with this ISBN already exists")
	case errors.Is(err, service.ErrInvalidISBN):
		writeError(w, http.StatusBadRequest, "INVALID_ISBN", "ISBN must be 10 or 13 characters")
	case errors.Is(err, service.ErrMissingTitle):
		writeError(w, http.StatusBadRequest, "INVALID_TITLE", "Title is required")
	case errors.Is(err, service.ErrMissingAuthor):
		writeError(w, http.StatusBadRequest, "INVALID_AUTHOR", "Author is required")
	case errors.Is(err, service.ErrInvalidCopyCount):
		writeError(w, http.StatusBadRequest, "INVALID_COPY_COUNT", "Copy counts must be non-negative and consistent")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
