// Package model defines domain entities for the application.
package model

import "time"

// LoanEventType identifies a circulation lifecycle transition.
type LoanEventType string

const (
	LoanEventCheckedOut LoanEventType = "checked_out"
	LoanEventReturned   LoanEventType = "returned"
)

// IsValidLoanEventType checks if an event type is recognized.
func IsValidLoanEventType(et LoanEventType) bool {
	return et == LoanEventCheckedOut || et == LoanEventReturned
}

// LoanEvent represents a single circulation event in the audit trail.
type LoanEvent struct {
	ID      string `json:"id"`       // ULID (time-sortable)
	EventID string `json:"event_id"` // Idempotency key (Redis stream ID)

	LoanID    string        `json:"loan_id"`
	BookID    string        `json:"book_id"`
	UserID    string        `json:"user_id"`
	EventType LoanEventType `json:"event_type"`

	OccurredAt time.Time `json:"occurred_at"` // Event timestamp
	CreatedAt  time.Time `json:"created_at"`  // DB insertion time
}

// DailyCirculationStats represents pre-aggregated circulation counts per day.
type DailyCirculationStats struct {
	ID   string    `json:"id"`   // ISO date string
	Date time.Time `json:"date"` // UTC date (time component zeroed)

	Checkouts int64 `json:"checkouts"`
	Returns   int64 `json:"returns"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CirculationSummary represents aggregated circulation for API responses.
type CirculationSummary struct {
	TotalCheckouts int64 `json:"total_checkouts"`
	TotalReturns   int64 `json:"total_returns"`
}
