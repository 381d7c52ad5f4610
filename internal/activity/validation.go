package activity

import (
	"fmt"

	"github.com/shelfmark/shelfmark/internal/model"
)

const maxIDLength = 64

// ValidateLoanEventPayload validates circulation event payload fields.
func ValidateLoanEventPayload(payload LoanEventPayload) error {
	if payload.LoanID == "" {
		return fmt.Errorf("loan_id is required")
	}
	if len(payload.LoanID) > maxIDLength {
		return fmt.Errorf("loan_id too long")
	}
	if payload.BookID == "" {
		return fmt.Errorf("book_id is required")
	}
	if len(payload.BookID) > maxIDLength {
		return fmt.Errorf("book_id too long")
	}
	if payload.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if len(payload.UserID) > maxIDLength {
		return fmt.Errorf("user_id too long")
	}
	if !model.IsValidLoanEventType(model.LoanEventType(payload.EventType)) {
		return fmt.Errorf("unknown event_type %q", payload.EventType)
	}
	if payload.OccurredAt <= 0 {
		return fmt.Errorf("occurred_at must be set")
	}
	return nil
}
