package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		name    string
		isbn    string
		want    string
		wantErr error
	}{
		{"isbn13 plain", "9780385490818", "9780385490818", nil},
		{"isbn13 hyphenated", "978-0-385-49081-8", "9780385490818", nil},
		{"isbn10", "0385490816", "0385490816", nil},
		{"isbn10 check X", "043942089X", "043942089X", nil},
		{"isbn10 lowercase x", "043942089x", "043942089X", nil},
		{"spaces", "978 0385490818", "9780385490818", nil},
		{"empty", "", "", ErrInvalidISBN},
		{"too short", "12345", "", ErrInvalidISBN},
		{"wrong length", "97803854908181", "", ErrInvalidISBN},
		{"letters", "978038549081a", "", ErrInvalidISBN},
		{"X not last", "04394X0891", "", ErrInvalidISBN},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := normalizeISBN(test.isbn)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
			if got != test.want {
				t.Errorf("normalizeISBN(%q) = %q, want %q", test.isbn, got, test.want)
			}
		})
	}
}

func TestCreateBookValidationErrors(t *testing.T) {
	svc := NewBookService(nil, nil, nil)

	negative := -1
	tooMany := 5

	tests := []struct {
		name    string
		input   CreateBookInput
		wantErr error
	}{
		{
			name:    "bad isbn",
			input:   CreateBookInput{ISBN: "abc", Title: "T", Author: "A", TotalCopies: 1},
			wantErr: ErrInvalidISBN,
		},
		{
			name:    "missing title",
			input:   CreateBookInput{ISBN: "9780385490818", Title: "  ", Author: "A", TotalCopies: 1},
			wantErr: ErrMissingTitle,
		},
		{
			name:    "title too long",
			input:   CreateBookInput{ISBN: "9780385490818", Title: strings.Repeat("x", maxTitleLength+1), Author: "A", TotalCopies: 1},
			wantErr: ErrMissingTitle,
		},
		{
			name:    "missing author",
			input:   CreateBookInput{ISBN: "9780385490818", Title: "T", Author: "", TotalCopies: 1},
			wantErr: ErrMissingAuthor,
		},
		{
			name:    "negative total",
			input:   CreateBookInput{ISBN: "9780385490818", Title: "T", Author: "A", TotalCopies: -1},
			wantErr: ErrInvalidCopyCount,
		},
		{
			name:    "negative available",
			input:   CreateBookInput{ISBN: "9780385490818", Title: "T", Author: "A", TotalCopies: 2, AvailableCopies: &negative},
			wantErr: ErrInvalidCopyCount,
		},
		{
			name:    "available exceeds total",
			input:   CreateBookInput{ISBN: "9780385490818", Title: "T", Author: "A", TotalCopies: 2, AvailableCopies: &tooMany},
			wantErr: ErrInvalidCopyCount,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := svc.CreateBook(context.Background(), test.input)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
		})
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	svc := NewUserService(nil, nil, 0)

	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{
			name:    "short username",
			input:   RegisterInput{Username: "ab", Password: "longenough", Email: "a@b.c"},
			wantErr: ErrInvalidUsername,
		},
		{
			name:    "bad characters",
			input:   RegisterInput{Username: "bad name!", Password: "longenough", Email: "a@b.c"},
			wantErr: ErrInvalidUsername,
		},
		{
			name:    "short password",
			input:   RegisterInput{Username: "reader1", Password: "short", Email: "a@b.c"},
			wantErr: ErrWeakPassword,
		},
		{
			name:    "unknown role",
			input:   RegisterInput{Username: "reader1", Password: "longenough", Email: "a@b.c", Role: "superuser"},
			wantErr: ErrInvalidRole,
		},
		{
			name:    "missing email",
			input:   RegisterInput{Username: "reader1", Password: "longenough", Email: ""},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "email without at",
			input:   RegisterInput{Username: "reader1", Password: "longenough", Email: "nope"},
			wantErr: ErrInvalidEmail,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), test.input)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
		})
	}
}

func TestCreateReviewValidationErrors(t *testing.T) {
	svc := NewReviewService(nil, nil)

	tests := []struct {
		name    string
		input   CreateReviewInput
		wantErr error
	}{
		{
			name:    "missing book ref",
			input:   CreateReviewInput{Reviewer: BorrowerRef{ID: "u1"}, Rating: 3},
			wantErr: ErrMissingBookRef,
		},
		{
			name:    "missing reviewer ref",
			input:   CreateReviewInput{Book: BookRef{ID: "b1"}, Rating: 3},
			wantErr: ErrMissingBorrowerRef,
		},
		{
			name:    "rating too low",
			input:   CreateReviewInput{Book: BookRef{ID: "b1"}, Reviewer: BorrowerRef{ID: "u1"}, Rating: 0},
			wantErr: ErrInvalidRating,
		},
		{
			name:    "rating too high",
			input:   CreateReviewInput{Book: BookRef{ID: "b1"}, Reviewer: BorrowerRef{ID: "u1"}, Rating: 6},
			wantErr: ErrInvalidRating,
		},
		{
			name: "comment too long",
			input: CreateReviewInput{
				Book:     BookRef{ID: "b1"},
				Reviewer: BorrowerRef{ID: "u1"},
				Rating:   4,
				Comment:  strings.Repeat("x", maxCommentLength+1),
			},
			wantErr: ErrCommentTooLong,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := svc.CreateReview(context.Background(), test.input)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
		})
	}
}
