package ratelimit

import (
	"fmt"
	"net/http"

	"github.com/ConfabulousDev/resume-insights/internal/auth"
	"github.com/ConfabulousDev/resume-insights/internal/clientip"
	"github.com/ConfabulousDev/resume-insights/internal/logger"
)

// Middleware rate limits by the client IP key set by clientip.Middleware.
func Middleware(limiter RateLimiter) func(http.Handler) http.Handler {
	return MiddlewareWithKey(limiter, func(*http.Request) string { return "" })
}

// MiddlewareWithKey rate limits by keyFunc, falling back to the client IP key
// when keyFunc returns "".
func MiddlewareWithKey(limiter RateLimiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				key = clientip.FromRequest(r).RateLimitKey
			}

			if !limiter.Allow(r.Context(), key) {
				logger.Ctx(r.Context()).Warn("Rate limit exceeded", "key", key, "path", r.URL.Path)
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserKeyFunc keys authenticated requests by user ID.
func UserKeyFunc(r *http.Request) string {
	if userID, ok := auth.GetUserID(r.Context()); ok {
		return fmt.Sprintf("user:%d", userID)
	}
	return ""
}
