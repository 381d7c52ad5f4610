package dto

import (
	"time"

	"github.com/shelfmark/shelfmark/internal/model"
)

// CreateReviewRequest represents the request body for posting a review.
type CreateReviewRequest struct {
	Rating  int        `json:"rating"`
	Comment string     `json:"comment,omitempty"`
	Date    *time.Time `json:"date,omitempty"`
}

// ReviewResponse represents a review in API responses.
type ReviewResponse struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewListResponse represents a review listing.
type ReviewListResponse struct {
	Data  []ReviewResponse `json:"data"`
	Total int              `json:"total"`
}

// ToReviewResponse converts a Review model to its response DTO.
func ToReviewResponse(review *model.Review) *ReviewResponse {
	return &ReviewResponse{
		ID:        review.ID,
		BookID:    review.BookID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		Date:      review.Date,
		CreatedAt: review.CreatedAt,
	}
}

// ToReviewListResponse converts a slice of Review models.
func ToReviewListResponse(reviews []*model.Review) *ReviewListResponse {
	responses := make([]ReviewResponse, len(reviews))
	for i, review := range reviews {
		responses[i] = *ToReviewResponse(review)
	}
	return &ReviewListResponse{Data: responses, Total: len(responses)}
}
