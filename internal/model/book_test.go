package model

import (
	"testing"
	"time"
)

func TestBook_IsAvailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		available int
		want      bool
	}{
		{"no_copies", 0, false},
		{"one_copy", 1, true},
		{"many_copies", 7, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			book := &Book{AvailableCopies: test.available}
			if got := book.IsAvailable(); got != test.want {
				t.Errorf("IsAvailable() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestBook_ToCachedBook(t *testing.T) {
	t.Parallel()

	updated := time.Unix(1700000000, 0)
	book := &Book{
		ID:              "book-1",
		ISBN:            "978-0134190440",
		Title:           "The Go Programming Language",
		Author:          "Donovan & Kernighan",
		Publisher:       "Addison-Wesley",
		PublishYear:     2015,
		TotalCopies:     3,
		AvailableCopies: 2,
		UpdatedAt:       updated,
	}

	cached := book.ToCachedBook()

	if cached.Title != book.Title {
		t.Errorf("Title = %s, want %s", cached.Title, book.Title)
	}
	if cached.PublishYear != "2015" {
		t.Errorf("PublishYear = %s, want 2015", cached.PublishYear)
	}
	if cached.TotalCopies != "3" {
		t.Errorf("TotalCopies = %s, want 3", cached.TotalCopies)
	}
	if cached.AvailableCopies != "2" {
		t.Errorf("AvailableCopies = %s, want 2", cached.AvailableCopies)
	}
	if cached.UpdatedAt != "1700000000" {
		t.Errorf("UpdatedAt = %s, want 1700000000", cached.UpdatedAt)
	}
}

func TestCachedBook_ToBook_RoundTrip(t *testing.T) {
	t.Parallel()

	book := &Book{
		ID:              "book-2",
		ISBN:            "978-1491941959",
		Title:           "Concurrency in Go",
		Author:          "Katherine Cox-Buday",
		PublishYear:     2017,
		TotalCopies:     5,
		AvailableCopies: 5,
		UpdatedAt:       time.Unix(1690000000, 0),
	}

	got := book.ToCachedBook().ToBook(book.ID)

	if got.ID != book.ID {
		t.Errorf("ID = %s, want %s", got.ID, book.ID)
	}
	if got.Title != book.Title {
		t.Errorf("Title = %s, want %s", got.Title, book.Title)
	}
	if got.PublishYear != book.PublishYear {
		t.Errorf("PublishYear = %d, want %d", got.PublishYear, book.PublishYear)
	}
	if got.AvailableCopies != book.AvailableCopies {
		t.Errorf("AvailableCopies = %d, want %d", got.AvailableCopies, book.AvailableCopies)
	}
	if !got.UpdatedAt.Equal(book.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, book.UpdatedAt)
	}
}
