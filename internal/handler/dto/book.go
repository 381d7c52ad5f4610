package dto

import (
	"time"

	"github.com/shelfmark/shelfmark/internal/model"
)

// CreateBookRequest represents the request body for registering a book.
type CreateBookRequest struct {
	ISBN            string `json:"isbn"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Publisher       string `json:"publisher,omitempty"`
	PublishYear     int    `json:"publish_year,omitempty"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies *int   `json:"available_copies,omitempty"`
}

// BookResponse represents a catalog entry in API responses.
type BookResponse struct {
	ID              string    `json:"id"`
	ISBN            string    `json:"isbn"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Publisher       string    `json:"publisher,omitempty"`
	PublishYear     int       `json:"publish_year,omitempty"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BookListResponse represents the catalog listing.
type BookListResponse struct {
	Data  []BookResponse `json:"data"`
	Total int            `json:"total"`
}

// ToBookResponse converts a Book model to its response DTO.
func ToBookResponse(book *model.Book) *BookResponse {
	return &BookResponse{
		ID:              book.ID,
		ISBN:            book.ISBN,
		Title:           book.Title,
		Author:          book.Author,
		Publisher:       book.Publisher,
		PublishYear:     book.PublishYear,
		TotalCopies:     book.TotalCopies,
		AvailableCopies: book.AvailableCopies,
		CreatedAt:       book.CreatedAt,
		UpdatedAt:       book.UpdatedAt,
	}
}

// ToBookListResponse converts a slice of Book models.
func ToBookListResponse(books []*model.Book) *BookListResponse {
	responses := make([]BookResponse, len(books))
	for i, book := range books {
		responses[i] = *ToBookResponse(book)
	}
	return &BookListResponse{Data: responses, Total: len(responses)}
}
