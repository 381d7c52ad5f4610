// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shelfmark/shelfmark/internal/handler/dto"
)

// Handler serves the routing fallbacks and the service info endpoint.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Info is the service banner endpoint.
// GET /
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"service": "shelfmark",
		"version": "1.0.0",
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already out; nothing useful left to do.
		_ = err
	}
}

// writeError writes a machine-readable error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
