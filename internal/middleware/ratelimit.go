package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shelfmark/shelfmark/internal/cache"
)

// RateLimitConfig holds configuration for the IP rate limiter.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Cache   *cache.Cache
	Enabled bool
	RPS     int
	Burst   int
}

// RateLimitIP returns middleware that rate limits requests per client IP.
// Applied to the login and loan-creation endpoints to slow brute force
// and bulk checkout abuse. Redis failures fail open.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)

			result, err := cfg.Cache.CheckIPRateLimit(r.Context(), ip, cfg.RPS, cfg.Burst)
			if err != nil {
				cfg.Logger.Error("IP rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("ip", ip),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				writeRateLimitError(w, result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeRateLimitError writes a 429 Too Many Requests response.
func writeRateLimitError(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	msg := fmt.Sprintf(`{"error":{"code":"RATE_LIMITED","message":"Rate limit exceeded. Retry after %d seconds."}}`,
		int(retryAfter.Seconds()))
	_, _ = w.Write([]byte(msg))
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers for proxied requests.
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// First entry is the client
		for i := range xff {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}
