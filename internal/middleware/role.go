package middleware

import (
	"fmt"
	"net/http"

	"github.com/shelfmark/shelfmark/internal/auth"
	"github.com/shelfmark/shelfmark/internal/model"
)

// RequireRole returns middleware that enforces a role requirement.
// Must be applied after SessionAuth. Admin satisfies every requirement.
func RequireRole(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				writeRoleError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			if !authCtx.HasRole(required) {
				writeRoleError(w, http.StatusForbidden, "FORBIDDEN",
					fmt.Sprintf("Insufficient permissions. Required role: %s", required))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireLibrarian guards staff-only routes.
func RequireLibrarian() func(http.Handler) http.Handler {
	return RequireRole(model.RoleLibrarian)
}

// RequireAdmin guards admin-only routes.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)
}

// writeRoleError writes a role-related error response.
func writeRoleError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(fmt.Sprintf(`{"error":{"code":"%s","message":"%s"}}`, code, message)))
}
