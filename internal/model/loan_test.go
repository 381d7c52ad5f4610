package model

import (
	"testing"
	"time"
)

func TestLoan_Status(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	returned := now.Add(-24 * time.Hour)

	tests := []struct {
		name       string
		dueDate    time.Time
		returnDate *time.Time
		want       LoanStatus
	}{
		{"outstanding", now.Add(7 * 24 * time.Hour), nil, LoanStatusOutstanding},
		{"due_today", now.Add(time.Hour), nil, LoanStatusOutstanding},
		{"overdue", now.Add(-time.Hour), nil, LoanStatusOverdue},
		{"returned", now.Add(7 * 24 * time.Hour), &returned, LoanStatusReturned},
		{"returned_late", now.Add(-48 * time.Hour), &returned, LoanStatusReturned},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			loan := &Loan{DueDate: test.dueDate, ReturnDate: test.returnDate}
			if got := loan.Status(now); got != test.want {
				t.Errorf("Status() = %s, want %s", got, test.want)
			}
		})
	}
}

func TestLoan_IsReturned(t *testing.T) {
	t.Parallel()

	loan := &Loan{}
	if loan.IsReturned() {
		t.Error("new loan should not be returned")
	}
	if !loan.IsOutstanding() {
		t.Error("new loan should be outstanding")
	}

	when := time.Now()
	loan.ReturnDate = &when
	if !loan.IsReturned() {
		t.Error("loan with return date should be returned")
	}
	if loan.IsOutstanding() {
		t.Error("returned loan should not be outstanding")
	}
}

func TestIsValidRole(t *testing.T) {
	t.Parallel()

	for _, role := range ValidRoles {
		if !IsValidRole(role) {
			t.Errorf("IsValidRole(%s) = false, want true", role)
		}
	}
	if IsValidRole("superuser") {
		t.Error("IsValidRole(superuser) = true, want false")
	}
	if IsValidRole("") {
		t.Error("IsValidRole(empty) = true, want false")
	}
}

func TestAuthContext_HasRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		role     string
		required string
		want     bool
	}{
		{"reader_is_reader", RoleReader, RoleReader, true},
		{"reader_not_librarian", RoleReader, RoleLibrarian, false},
		{"librarian_is_librarian", RoleLibrarian, RoleLibrarian, true},
		{"admin_implies_librarian", RoleAdmin, RoleLibrarian, true},
		{"admin_implies_reader", RoleAdmin, RoleReader, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			authCtx := &AuthContext{Role: test.role}
			if got := authCtx.HasRole(test.required); got != test.want {
				t.Errorf("HasRole(%s) = %v, want %v", test.required, got, test.want)
			}
		})
	}
}

func TestIsValidRating(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rating int
		want   bool
	}{
		{0, false},
		{1, true},
		{3, true},
		{5, true},
		{6, false},
		{-1, false},
	}

	for _, test := range tests {
		if got := IsValidRating(test.rating); got != test.want {
			t.Errorf("IsValidRating(%d) = %v, want %v", test.rating, got, test.want)
		}
	}
}
