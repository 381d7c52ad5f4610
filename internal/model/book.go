// Package model defines domain entities for the application.
package model

import (
	"strconv"
	"time"
)

// Book represents a catalog entry with copy accounting.
type Book struct {
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

// IsAvailable returns true if at least one copy can be loaned out.
func (b *Book) IsAvailable() bool {
	return b.AvailableCopies > 0
}

// CachedBook represents book data stored in Redis cache.
// Uses string types for Redis hash compatibility.
type CachedBook struct {
	ISBN            string `redis:"isbn"`
	Title           string `redis:"title"`
	Author          string `redis:"author"`
	Publisher       string `redis:"publisher"`
	PublishYear     string `redis:"publish_year"`
	TotalCopies     string `redis:"total_copies"`
	AvailableCopies string `redis:"available_copies"`
	UpdatedAt       string `redis:"updated_at"` // Unix timestamp
}

// ToBook converts CachedBook to the Book domain model.
func (c *CachedBook) ToBook(id string) *Book {
	book := &Book{
		ID:        id,
		ISBN:      c.ISBN,
		Title:     c.Title,
		Author:    c.Author,
		Publisher: c.Publisher,
	}

	if year, err := strconv.Atoi(c.PublishYear); err == nil {
		book.PublishYear = year
	}
	if total, err := strconv.Atoi(c.TotalCopies); err == nil {
		book.TotalCopies = total
	}
	if avail, err := strconv.Atoi(c.AvailableCopies); err == nil {
		book.AvailableCopies = avail
	}
	if ts, err := strconv.ParseInt(c.UpdatedAt, 10, 64); err == nil {
		book.UpdatedAt = time.Unix(ts, 0)
	}

	return book
}

// ToCachedBook converts a Book to its Redis hash representation.
func (b *Book) ToCachedBook() *CachedBook {
	return &CachedBook{
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Publisher:       b.Publisher,
		PublishYear:     strconv.Itoa(b.PublishYear),
		TotalCopies:     strconv.Itoa(b.TotalCopies),
		AvailableCopies: strconv.Itoa(b.AvailableCopies),
		UpdatedAt:       strconv.FormatInt(b.UpdatedAt.Unix(), 10),
	}
}
