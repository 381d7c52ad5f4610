// Package model defines domain entities for the application.
package model

import "time"

// Review rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review represents a user's review of a book.
type Review struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// IsValidRating checks that a rating falls within the accepted scale.
func IsValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
