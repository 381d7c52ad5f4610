package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shelfmark/shelfmark/internal/auth"
	"github.com/shelfmark/shelfmark/internal/handler/dto"
	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/notify"
)

// WebhookHandler handles webhook endpoint registration for librarians.
type WebhookHandler struct {
	manager *notify.Manager
	logger  *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(manager *notify.Manager, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		manager: manager,
		logger:  logger,
	}
}

// Create handles POST /api/v1/webhooks.
func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req dto.CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	eventTypes := make([]model.EventType, len(req.EventTypes))
	for i, et := range req.EventTypes {
		eventTypes[i] = model.EventType(et)
	}

	endpoint, secret, err := h.manager.RegisterEndpoint(r.Context(), authCtx.UserID, req.TargetURL, req.Name, eventTypes)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("webhook_registered",
		"endpoint_id", endpoint.ID,
		"target_host", notify.ExtractHost(endpoint.TargetURL),
		"user_id", authCtx.UserID,
	)

	writeJSON(w, http.StatusCreated, dto.CreateWebhookResponse{
		WebhookResponse: *dto.ToWebhookResponse(endpoint),
		Secret:          secret,
	})
}

// List handles GET /api/v1/webhooks.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	endpoints, err := h.manager.ListEndpoints(r.Context(), authCtx.UserID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToWebhookListResponse(endpoints))
}

// Delete handles DELETE /api/v1/webhooks/{id}.
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Webhook ID is required")
		return
	}

	if err := h.requireOwnership(w, r, id); err != nil {
		return
	}

	if err := h.manager.DeleteEndpoint(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("webhook_deleted", "endpoint_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// ListDeliveries handles GET /api/v1/webhooks/{id}/deliveries.
func (h *WebhookHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Webhook ID is required")
		return
	}

	if err := h.requireOwnership(w, r, id); err != nil {
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
	}

	deliveries, err := h.manager.ListDeliveries(r.Context(), id, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToDeliveryListResponse(deliveries))
}

// requireOwnership rejects access to endpoints registered by other users.
// Admins see everything. Writes the error response itself on failure.
func (h *WebhookHandler) requireOwnership(w http.ResponseWriter, r *http.Request, endpointID string) error {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return errors.New("no auth context")
	}
	if authCtx.HasRole(model.RoleAdmin) {
		return nil
	}

	endpoint, err := h.manager.GetEndpoint(r.Context(), endpointID)
	if err != nil {
		h.handleServiceError(w, err)
		return err
	}
	if endpoint.UserID != authCtx.UserID {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You do not own this webhook")
		return errors.New("not owner")
	}
	return nil
}

// handleServiceError maps webhook errors to HTTP responses.
func (h *WebhookHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, notify.ErrEndpointNotFound):
		writeError(w, http.StatusNotFound, "WEBHOOK_NOT_FOUND", "Webhook endpoint not found")
	case errors.Is(err, notify.ErrInvalidScheme),
		errors.Is(err, notify.ErrInvalidURL),
		errors.Is(err, notify.ErrEmptyHost),
		errors.Is(err, notify.ErrInvalidPort):
		writeError(w, http.StatusBadRequest, "INVALID_TARGET_URL", "Target URL must be a standard HTTPS endpoint")
	case errors.Is(err, notify.ErrLocalhostBlocked),
		errors.Is(err, notify.ErrPrivateIP):
		writeError(w, http.StatusBadRequest, "TARGET_NOT_ALLOWED", "Target URL resolves to a blocked address")
	case errors.Is(err, notify.ErrInvalidEventType):
		writeError(w, http.StatusBadRequest, "INVALID_EVENT_TYPE", "Unknown event type in subscription scope")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
