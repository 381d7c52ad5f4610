package dto

import (
	"time"

	"github.com/shelfmark/shelfmark/internal/model"
)

// CreateWebhookRequest represents the request body for endpoint registration.
// An empty event_types list subscribes to every loan event.
type CreateWebhookRequest struct {
	TargetURL  string   `json:"target_url"`
	Name       string   `json:"name,omitempty"`
	EventTypes []string `json:"event_types,omitempty"`
}

// WebhookResponse represents a registered endpoint.
type WebhookResponse struct {
	ID         string    `json:"id"`
	TargetURL  string    `json:"target_url"`
	Name       string    `json:"name,omitempty"`
	Enabled    bool      `json:"enabled"`
	EventTypes []string  `json:"event_types"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateWebhookResponse is the registration response. Secret is the
// plaintext signing secret, shown exactly once.
type CreateWebhookResponse struct {
	WebhookResponse
	Secret string `json:"secret"`
}

// WebhookListResponse represents an endpoint listing.
type WebhookListResponse struct {
	Data  []WebhookResponse `json:"data"`
	Total int               `json:"total"`
}

// DeliveryResponse represents one delivery attempt record.
type DeliveryResponse struct {
	ID             string     `json:"id"`
	EventID        string     `json:"event_id"`
	EventType      string     `json:"event_type"`
	Status         string     `json:"status"`
	AttemptCount   int        `json:"attempt_count"`
	MaxAttempts    int        `json:"max_attempts"`
	NextRetryAt    time.Time  `json:"next_retry_at,omitempty"`
	LastAttemptAt  *time.Time `json:"last_attempt_at,omitempty"`
	LastHTTPStatus *int       `json:"last_http_status,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// DeliveryListResponse represents a delivery audit listing.
type DeliveryListResponse struct {
	Data  []DeliveryResponse `json:"data"`
	Total int                `json:"total"`
}

// ToWebhookResponse converts a WebhookEndpoint to its response DTO.
func ToWebhookResponse(endpoint *model.WebhookEndpoint) *WebhookResponse {
	eventTypes := make([]string, len(endpoint.EventTypes))
	for i, et := range endpoint.EventTypes {
		eventTypes[i] = string(et)
	}
	return &WebhookResponse{
		ID:         endpoint.ID,
		TargetURL:  endpoint.TargetURL,
		Name:       endpoint.Name,
		Enabled:    endpoint.Enabled,
		EventTypes: eventTypes,
		CreatedAt:  endpoint.CreatedAt,
	}
}

// ToWebhookListResponse converts a slice of endpoints.
func ToWebhookListResponse(endpoints []*model.WebhookEndpoint) *WebhookListResponse {
	responses := make([]WebhookResponse, len(endpoints))
	for i, endpoint := range endpoints {
		responses[i] = *ToWebhookResponse(endpoint)
	}
	return &WebhookListResponse{Data: responses, Total: len(responses)}
}

// ToDeliveryResponse converts a WebhookDelivery to its response DTO.
func ToDeliveryResponse(d *model.WebhookDelivery) *DeliveryResponse {
	return &DeliveryResponse{
		ID:             d.ID,
		EventID:        d.EventID,
		EventType:      string(d.EventType),
		Status:         string(d.Status),
		AttemptCount:   d.AttemptCount,
		MaxAttempts:    d.MaxAttempts,
		NextRetryAt:    d.NextRetryAt,
		LastAttemptAt:  d.LastAttemptAt,
		LastHTTPStatus: d.LastHTTPStatus,
		LastError:      d.LastError,
		CreatedAt:      d.CreatedAt,
	}
}

// ToDeliveryListResponse converts a slice of deliveries.
func ToDeliveryListResponse(deliveries []*model.WebhookDelivery) *DeliveryListResponse {
	responses := make([]DeliveryResponse, len(deliveries))
	for i, d := range deliveries {
		responses[i] = *ToDeliveryResponse(d)
	}
	return &DeliveryListResponse{Data: responses, Total: len(responses)}
}
