package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/shelfmark/shelfmark/internal/model"
)

// Repository persists webhook endpoints and delivery records.
// It runs on database/sql so the event-scope arrays can use pq.Array.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a webhook repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateEndpoint inserts a new webhook endpoint.
func (r *Repository) CreateEndpoint(ctx context.Context, endpoint *model.WebhookEndpoint) error {
	query := `
		INSERT INTO webhook_endpoints (
			id, user_id, target_url, secret_enc, enabled,
			event_types, name, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		endpoint.ID,
		endpoint.UserID,
		endpoint.TargetURL,
		endpoint.SecretEnc,
		endpoint.Enabled,
		pq.Array(eventTypeStrings(endpoint.EventTypes)),
		endpoint.Name,
		endpoint.CreatedAt,
		endpoint.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook endpoint: %w", err)
	}
	return nil
}

// GetEndpoint retrieves an endpoint by id. Soft-deleted rows are invisible.
func (r *Repository) GetEndpoint(ctx context.Context, id string) (*model.WebhookEndpoint, error) {
	query := `
		SELECT id, user_id, target_url, secret_enc, enabled, event_types,
		       name, created_at, updated_at, deleted_at
		FROM webhook_endpoints
		WHERE id = $1 AND deleted_at IS NULL
	`

	var endpoint model.WebhookEndpoint
	var eventTypes []string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&endpoint.ID,
		&endpoint.UserID,
		&endpoint.TargetURL,
		&endpoint.SecretEnc,
		&endpoint.Enabled,
		pq.Array(&eventTypes),
		&endpoint.Name,
		&endpoint.CreatedAt,
		&endpoint.UpdatedAt,
		&endpoint.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%q: %w", id, ErrEndpointNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query webhook endpoint: %w", err)
	}

	endpoint.EventTypes = toEventTypes(eventTypes)
	return &endpoint, nil
}

// ListEndpointsByUser retrieves all endpoints registered by a user.
func (r *Repository) ListEndpointsByUser(ctx context.Context, userID string) ([]*model.WebhookEndpoint, error) {
	query := `
		SELECT id, user_id, target_url, secret_enc, enabled, event_types,
		       name, created_at, updated_at
		FROM webhook_endpoints
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query webhooks by user: %w", err)
	}
	defer rows.Close()

	return scanEndpoints(rows)
}

// ListActiveEndpoints retrieves enabled endpoints whose scope covers the
// event type. An empty scope subscribes to everything.
func (r *Repository) ListActiveEndpoints(ctx context.Context, eventType model.EventType) ([]*model.WebhookEndpoint, error) {
	query := `
		SELECT id, user_id, target_url, secret_enc, enabled, event_types,
		       name, created_at, updated_at
		FROM webhook_endpoints
		WHERE deleted_at IS NULL
		  AND enabled = true
		  AND (cardinality(event_types) = 0 OR $1 = ANY(event_types))
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, string(eventType))
	if err != nil {
		return nil, fmt.Errorf("query active webhooks: %w", err)
	}
	defer rows.Close()

	return scanEndpoints(rows)
}

// DeleteEndpoint soft-deletes an endpoint.
func (r *Repository) DeleteEndpoint(ctx context.Context, id string) error {
	query := `
		UPDATE webhook_endpoints
		SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("delete webhook endpoint: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%q: %w", id, ErrEndpointNotFound)
	}
	return nil
}

// CreateDelivery inserts a delivery record. A duplicate (endpoint, event)
// pair is a no-op so republished events never double-deliver.
func (r *Repository) CreateDelivery(ctx context.Context, delivery *model.WebhookDelivery) error {
	query := `
		INSERT INTO webhook_deliveries (
			id, endpoint_id, event_id, event_type, payload_json,
			status, attempt_count, max_attempts, next_retry_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (endpoint_id, event_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		delivery.ID,
		delivery.EndpointID,
		delivery.EventID,
		string(delivery.EventType),
		delivery.PayloadJSON,
		string(delivery.Status),
		delivery.AttemptCount,
		delivery.MaxAttempts,
		delivery.NextRetryAt,
		delivery.CreatedAt,
		delivery.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook delivery: %w", err)
	}
	return nil
}

// GetPendingDeliveries retrieves deliveries that are due for an attempt.
func (r *Repository) GetPendingDeliveries(ctx context.Context, limit int) ([]*model.WebhookDelivery, error) {
	query := `
		SELECT d.id, d.endpoint_id, d.event_id, d.event_type, d.payload_json,
		       d.status, d.attempt_count, d.max_attempts, d.next_retry_at,
		       d.last_attempt_at, d.last_http_status, d.last_error,
		       d.created_at, d.updated_at
		FROM webhook_deliveries d
		JOIN webhook_endpoints e ON d.endpoint_id = e.id
		WHERE d.status IN ('pending', 'failed')
		  AND d.next_retry_at <= $1
		  AND e.deleted_at IS NULL
		  AND e.enabled = true
		ORDER BY d.next_retry_at
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("query pending deliveries: %w", err)
	}
	defer rows.Close()

	return scanDeliveries(rows)
}

// UpdateDeliverySuccess marks a delivery as delivered.
func (r *Repository) UpdateDeliverySuccess(ctx context.Context, id string, httpStatus int) error {
	query := `
		UPDATE webhook_deliveries
		SET status = 'success',
		    attempt_count = attempt_count + 1,
		    last_attempt_at = $2,
		    last_http_status = $3,
		    last_error = '',
		    updated_at = $2
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, id, time.Now(), httpStatus); err != nil {
		return fmt.Errorf("update delivery success: %w", err)
	}
	return nil
}

// UpdateDeliveryFailure records a failed attempt and schedules the retry,
// or marks the delivery exhausted when the attempt budget is spent.
func (r *Repository) UpdateDeliveryFailure(ctx context.Context, id string, httpStatus *int, errMsg string, nextRetryAt time.Time, exhausted bool) error {
	status := string(model.DeliveryStatusFailed)
	if exhausted {
		status = string(model.DeliveryStatusExhausted)
	}

	if len(errMsg) > 500 {
		errMsg = errMsg[:500]
	}

	query := `
		UPDATE webhook_deliveries
		SET status = $2,
		    attempt_count = attempt_count + 1,
		    last_attempt_at = $3,
		    last_http_status = $4,
		    last_error = $5,
		    next_retry_at = $6,
		    updated_at = $3
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now(), httpStatus, errMsg, nextRetryAt); err != nil {
		return fmt.Errorf("update delivery failure: %w", err)
	}
	return nil
}

// ListDeliveriesByEndpoint retrieves recent deliveries for an endpoint.
func (r *Repository) ListDeliveriesByEndpoint(ctx context.Context, endpointID string, limit int) ([]*model.WebhookDelivery, error) {
	query := `
		SELECT id, endpoint_id, event_id, event_type, payload_json,
		       status, attempt_count, max_attempts, next_retry_at,
		       last_attempt_at, last_http_status, last_error,
		       created_at, updated_at
		FROM webhook_deliveries
		WHERE endpoint_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, endpointID, limit)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	return scanDeliveries(rows)
}

// GetQueueDepth returns the count of deliveries still owed an attempt.
func (r *Repository) GetQueueDepth(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM webhook_deliveries
		WHERE status IN ('pending', 'failed')
	`

	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count queue depth: %w", err)
	}
	return count, nil
}

func scanEndpoints(rows *sql.Rows) ([]*model.WebhookEndpoint, error) {
	var endpoints []*model.WebhookEndpoint
	for rows.Next() {
		var endpoint model.WebhookEndpoint
		var eventTypes []string

		if err := rows.Scan(
			&endpoint.ID,
			&endpoint.UserID,
			&endpoint.TargetURL,
			&endpoint.SecretEnc,
			&endpoint.Enabled,
			pq.Array(&eventTypes),
			&endpoint.Name,
			&endpoint.CreatedAt,
			&endpoint.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan webhook endpoint: %w", err)
		}

		endpoint.EventTypes = toEventTypes(eventTypes)
		endpoints = append(endpoints, &endpoint)
	}
	return endpoints, rows.Err()
}

func scanDeliveries(rows *sql.Rows) ([]*model.WebhookDelivery, error) {
	var deliveries []*model.WebhookDelivery
	for rows.Next() {
		var d model.WebhookDelivery
		var eventType, status string

		if err := rows.Scan(
			&d.ID,
			&d.EndpointID,
			&d.EventID,
			&eventType,
			&d.PayloadJSON,
			&status,
			&d.AttemptCount,
			&d.MaxAttempts,
			&d.NextRetryAt,
			&d.LastAttemptAt,
			&d.LastHTTPStatus,
			&d.LastError,
			&d.CreatedAt,
			&d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}

		d.EventType = model.EventType(eventType)
		d.Status = model.DeliveryStatus(status)
		deliveries = append(deliveries, &d)
	}
	return deliveries, rows.Err()
}

func eventTypeStrings(types []model.EventType) []string {
	out := make([]string, len(types))
	for i, et := range types {
		out[i] = string(et)
	}
	return out
}

func toEventTypes(types []string) []model.EventType {
	out := make([]model.EventType, len(types))
	for i, et := range types {
		out[i] = model.EventType(et)
	}
	return out
}
