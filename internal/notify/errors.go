package notify

import "errors"

var (
	// ErrEndpointNotFound is returned when a webhook endpoint does not exist.
	ErrEndpointNotFound = errors.New("webhook endpoint not found")
	// ErrDeliveryNotFound is returned when a delivery record does not exist.
	ErrDeliveryNotFound = errors.New("webhook delivery not found")
	// ErrInvalidEventType is returned for unknown event scope values.
	ErrInvalidEventType = errors.New("unknown event type")
)
