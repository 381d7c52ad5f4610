// Package activity provides circulation event capture and processing.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shelfmark/shelfmark/internal/metrics"
	"github.com/shelfmark/shelfmark/internal/model"
)

const (
	// StreamKey is the Redis stream for circulation events.
	StreamKey = "stream:loan_events"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:loan_events:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// LoanEventPayload is the compressed event format for the Redis stream.
type LoanEventPayload struct {
	LoanID     string `json:"lid"` // loan_id
	BookID     string `json:"bid"` // book_id
	UserID     string `json:"uid"` // user_id
	EventType  string `json:"et"`  // checked_out | returned
	OccurredAt int64  `json:"t"`   // Unix milliseconds
}

// Publisher enqueues circulation events to the Redis stream.
// It satisfies the loan service's EventSink.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
	clock   func() time.Time
}

// NewPublisher creates a new circulation event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "activity.publisher"),
		metrics: recorder,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// LoanCheckedOut publishes a checkout event, fire-and-forget.
func (p *Publisher) LoanCheckedOut(ctx context.Context, loan *model.Loan) {
	p.PublishAsync(payloadFor(loan, model.LoanEventCheckedOut, loan.LoanDate))
}

// LoanReturned publishes a return event, fire-and-forget.
func (p *Publisher) LoanReturned(ctx context.Context, loan *model.Loan) {
	occurredAt := p.clock()
	if loan.ReturnDate != nil {
		occurredAt = *loan.ReturnDate
	}
	p.PublishAsync(payloadFor(loan, model.LoanEventReturned, occurredAt))
}

func payloadFor(loan *model.Loan, et model.LoanEventType, occurredAt time.Time) LoanEventPayload {
	return LoanEventPayload{
		LoanID:     loan.ID,
		BookID:     loan.BookID,
		UserID:     loan.UserID,
		EventType:  string(et),
		OccurredAt: occurredAt.UnixMilli(),
	}
}

// Publish adds a circulation event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event LoanEventPayload) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true, // ~MAXLEN for performance
		ID:     "*",  // Auto-generate ID
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()

	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned (fire-and-forget); a lost event
// costs a reporting row, never a loan.
func (p *Publisher) PublishAsync(event LoanEventPayload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish loan event",
				"loan_id", event.LoanID,
				"event_type", event.EventType,
				"error", err,
			)
			p.metrics.IncActivityEventPublished("dropped")
			return
		}

		p.logger.Debug("loan event published",
			"loan_id", event.LoanID,
			"event_type", event.EventType,
			"stream_id", streamID,
		)
		p.metrics.IncActivityEventPublished("success")
	}()
}
