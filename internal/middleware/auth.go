package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shelfmark/shelfmark/internal/auth"
	"github.com/shelfmark/shelfmark/internal/cache"
)

// SessionAuthConfig holds configuration for the session auth middleware.
type SessionAuthConfig struct {
	Logger *slog.Logger
	Cache  *cache.Cache
}

// SessionAuth returns a middleware that authenticates requests by the
// bearer session token issued at login. The session lives in Redis only;
// an expired or unknown token is a plain 401.
func SessionAuth(cfg SessionAuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			if !auth.ValidateTokenFormat(token) {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_format"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			authCtx, err := cfg.Cache.GetSession(r.Context(), token)
			if err != nil {
				cfg.Logger.Error("session lookup error",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}
			if authCtx == nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "unknown_session"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken pulls the session token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// writeAuthError writes a 401 Unauthorized response.
// One message for every auth failure so tokens cannot be enumerated.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing session token"}}`))
}
