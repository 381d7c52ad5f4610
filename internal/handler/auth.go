package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shelfmark/shelfmark/internal/auth"
	"github.com/shelfmark/shelfmark/internal/handler/dto"
	"github.com/shelfmark/shelfmark/internal/middleware"
	"github.com/shelfmark/shelfmark/internal/service"
)

// AuthHandler handles account registration and session endpoints.
type AuthHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := middleware.ValidateUsernameAllowed(req.Username); err != nil {
		writeError(w, http.StatusBadRequest, "USERNAME_RESERVED", "This username cannot be registered")
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_registered",
		"user_id", user.ID,
		"role", user.Role,
	)

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	token, user, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("login_successful",
		"user_id", user.ID,
		"ip", r.RemoteAddr,
	)

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token: token,
		User:  *dto.ToUserResponse(user),
	})
}

// Logout handles POST /api/v1/auth/logout.
// Succeeds whether or not the token was live; logout is idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := h.svc.Logout(r.Context(), token); err != nil {
		h.logger.Error("logout_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/users/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	user, err := h.svc.GetUser(r.Context(), authCtx.UserID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// ChangePassword handles PUT /api/v1/users/me/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req dto.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.svc.ChangePassword(r.Context(), authCtx.UserID, req.OldPassword, req.NewPassword); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("password_changed", "user_id", authCtx.UserID)

	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser handles DELETE /api/v1/users/{id}.
func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "User ID is required")
		return
	}

	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_deleted", "user_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps account service errors to HTTP responses.
func (h *AuthHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "USERNAME_TAKEN", "Username already exists")
	case errors.Is(err, service.ErrInvalidUsername):
		writeError(w, http.StatusBadRequest, "INVALID_USERNAME", "Username must be 3-50 characters of letters, digits, dot, dash, or underscore")
	case errors.Is(err, service.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 8 characters")
	case errors.Is(err, service.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "INVALID_ROLE", "Role must be reader, librarian, or admin")
	case errors.Is(err, service.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "Email address is invalid")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
