package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shelfmark/shelfmark/internal/model"
)

// Manager handles webhook endpoint registration.
type Manager struct {
	repo   *Repository
	cipher *SecretCipher
}

// NewManager creates an endpoint manager.
func NewManager(repo *Repository, cipher *SecretCipher) *Manager {
	return &Manager{repo: repo, cipher: cipher}
}

// RegisterEndpoint validates the target URL, mints a signing secret, and
// stores the endpoint with the secret encrypted. The plaintext secret is
// returned exactly once; it cannot be recovered through the API afterwards.
func (m *Manager) RegisterEndpoint(ctx context.Context, userID, targetURL, name string, eventTypes []model.EventType) (*model.WebhookEndpoint, string, error) {
	if err := ValidateTargetURL(targetURL); err != nil {
		return nil, "", err
	}
	for _, et := range eventTypes {
		if !model.IsValidEventType(et) {
			return nil, "", fmt.Errorf("%q: %w", et, ErrInvalidEventType)
		}
	}

	secret, err := GenerateSecret()
	if err != nil {
		return nil, "", err
	}
	secretEnc, err := m.cipher.Encrypt(secret)
	if err != nil {
		return nil, "", fmt.Errorf("encrypt secret: %w", err)
	}

	now := time.Now()
	endpoint := &model.WebhookEndpoint{
		ID:         ulid.Make().String(),
		UserID:     userID,
		TargetURL:  targetURL,
		SecretEnc:  secretEnc,
		Enabled:    true,
		EventTypes: eventTypes,
		Name:       name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := m.repo.CreateEndpoint(ctx, endpoint); err != nil {
		return nil, "", err
	}
	return endpoint, secret, nil
}

// ListEndpoints returns the endpoints registered by a user.
func (m *Manager) ListEndpoints(ctx context.Context, userID string) ([]*model.WebhookEndpoint, error) {
	return m.repo.ListEndpointsByUser(ctx, userID)
}

// GetEndpoint returns one endpoint by id.
func (m *Manager) GetEndpoint(ctx context.Context, id string) (*model.WebhookEndpoint, error) {
	return m.repo.GetEndpoint(ctx, id)
}

// DeleteEndpoint soft-deletes an endpoint. Pending deliveries for it are
// marked exhausted by the worker on their next attempt.
func (m *Manager) DeleteEndpoint(ctx context.Context, id string) error {
	return m.repo.DeleteEndpoint(ctx, id)
}

// ListDeliveries returns the recent delivery audit trail for an endpoint.
func (m *Manager) ListDeliveries(ctx context.Context, endpointID string, limit int) ([]*model.WebhookDelivery, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if _, err := m.repo.GetEndpoint(ctx, endpointID); err != nil {
		return nil, err
	}
	return m.repo.ListDeliveriesByEndpoint(ctx, endpointID, limit)
}
