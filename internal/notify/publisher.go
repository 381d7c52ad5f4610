package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shelfmark/shelfmark/internal/model"
)

// Publisher fans loan events out into webhook delivery records.
// It satisfies the loan service's EventSink.
type Publisher struct {
	repo   *Repository
	logger *slog.Logger
}

// NewPublisher creates a webhook publisher.
func NewPublisher(repo *Repository, logger *slog.Logger) *Publisher {
	return &Publisher{
		repo:   repo,
		logger: logger.With("component", "notify.publisher"),
	}
}

// LoanCheckedOut queues deliveries for a checkout event.
func (p *Publisher) LoanCheckedOut(ctx context.Context, loan *model.Loan) {
	p.publish(ctx, loan, model.EventTypeLoanCheckedOut, loan.LoanDate)
}

// LoanReturned queues deliveries for a return event.
func (p *Publisher) LoanReturned(ctx context.Context, loan *model.Loan) {
	occurredAt := time.Now().UTC()
	if loan.ReturnDate != nil {
		occurredAt = *loan.ReturnDate
	}
	p.publish(ctx, loan, model.EventTypeLoanReturned, occurredAt)
}

// publish creates one pending delivery per subscribed endpoint. Failures
// are logged and skipped; a lost notification never fails a loan.
func (p *Publisher) publish(ctx context.Context, loan *model.Loan, eventType model.EventType, occurredAt time.Time) {
	endpoints, err := p.repo.ListActiveEndpoints(ctx, eventType)
	if err != nil {
		p.logger.Warn("failed to list webhook endpoints",
			"event_type", eventType,
			"error", err,
		)
		return
	}
	if len(endpoints) == 0 {
		return
	}

	// The event id is derived from the loan so a republished event
	// dedupes against the (endpoint, event) unique constraint.
	eventID := eventIDFor(loan.ID, eventType)

	payload := model.WebhookPayload{
		EventType: string(eventType),
		EventID:   eventID,
		Timestamp: occurredAt,
		Data: map[string]any{
			"loan_id":     loan.ID,
			"book_id":     loan.BookID,
			"user_id":     loan.UserID,
			"due_date":    loan.DueDate,
			"return_date": loan.ReturnDate,
		},
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("failed to marshal webhook payload",
			"event_id", eventID,
			"error", err,
		)
		return
	}

	now := time.Now()
	for _, endpoint := range endpoints {
		delivery := &model.WebhookDelivery{
			ID:          ulid.Make().String(),
			EndpointID:  endpoint.ID,
			EventID:     eventID,
			EventType:   eventType,
			PayloadJSON: string(payloadJSON),
			Status:      model.DeliveryStatusPending,
			MaxAttempts: DefaultMaxAttempts,
			NextRetryAt: now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := p.repo.CreateDelivery(ctx, delivery); err != nil {
			p.logger.Warn("failed to create webhook delivery",
				"endpoint_id", endpoint.ID,
				"event_id", eventID,
				"error", err,
			)
			continue
		}

		p.logger.Debug("webhook delivery queued",
			"delivery_id", delivery.ID,
			"endpoint_id", endpoint.ID,
			"event_id", eventID,
		)
	}
}

func eventIDFor(loanID string, eventType model.EventType) string {
	suffix := "checkout"
	if eventType == model.EventTypeLoanReturned {
		suffix = "return"
	}
	return fmt.Sprintf("%s:%s", loanID, suffix)
}
