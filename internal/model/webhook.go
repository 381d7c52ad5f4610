// Package model defines domain entities for the application.
package model

import "time"

// EventType represents webhook event types.
type EventType string

const (
	EventTypeLoanCheckedOut EventType = "loan.checked_out"
	EventTypeLoanReturned   EventType = "loan.returned"
)

// ValidEventTypes contains all valid event types.
var ValidEventTypes = []EventType{EventTypeLoanCheckedOut, EventTypeLoanReturned}

// IsValidEventType checks if an event type is valid.
func IsValidEventType(et EventType) bool {
	for _, v := range ValidEventTypes {
		if v == et {
			return true
		}
	}
	return false
}

// DeliveryStatus represents webhook delivery state.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusSuccess   DeliveryStatus = "success"
	DeliveryStatusFailed    DeliveryStatus = "failed"
	DeliveryStatusExhausted DeliveryStatus = "exhausted"
)

// WebhookEndpoint represents a registered delivery target for loan events.
type WebhookEndpoint struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"` // Registering librarian
	TargetURL  string      `json:"target_url"`
	SecretEnc  string      `json:"-"` // AES-GCM encrypted signing secret
	Enabled    bool        `json:"enabled"`
	EventTypes []EventType `json:"event_types"`
	Name       string      `json:"name,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	DeletedAt  *time.Time  `json:"-"`
}

// IsActive returns true if the endpoint can receive deliveries.
func (e *WebhookEndpoint) IsActive() bool {
	return e.Enabled && e.DeletedAt == nil
}

// SubscribesToEvent checks if endpoint subscribes to given event type.
func (e *WebhookEndpoint) SubscribesToEvent(et EventType) bool {
	for _, v := range e.EventTypes {
		if v == et {
			return true
		}
	}
	return false
}

// WebhookDelivery represents a delivery attempt record.
type WebhookDelivery struct {
	ID             string         `json:"id"`
	EndpointID     string         `json:"endpoint_id"`
	EventID        string         `json:"event_id"`
	EventType      EventType      `json:"event_type"`
	PayloadJSON    string         `json:"-"`
	Status         DeliveryStatus `json:"status"`
	AttemptCount   int            `json:"attempt_count"`
	MaxAttempts    int            `json:"max_attempts"`
	NextRetryAt    time.Time      `json:"next_retry_at,omitempty"`
	LastAttemptAt  *time.Time     `json:"last_attempt_at,omitempty"`
	LastHTTPStatus *int           `json:"last_http_status,omitempty"`
	LastError      string         `json:"last_error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// CanRetry returns true if delivery can be retried.
func (d *WebhookDelivery) CanRetry() bool {
	return d.Status == DeliveryStatusFailed && d.AttemptCount < d.MaxAttempts
}

// IsTerminal returns true if delivery is in a terminal state.
func (d *WebhookDelivery) IsTerminal() bool {
	return d.Status == DeliveryStatusSuccess || d.Status == DeliveryStatusExhausted
}

// WebhookPayload represents the payload sent to webhook endpoints.
type WebhookPayload struct {
	EventType string         `json:"event_type"`
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// LoanEventData represents the data field for loan events.
type LoanEventData struct {
	LoanID     string     `json:"loan_id"`
	BookID     string     `json:"book_id"`
	BookTitle  string     `json:"book_title,omitempty"`
	UserID     string     `json:"user_id"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}
