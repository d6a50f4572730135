package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ConfabulousDev/resume-insights/internal/logger"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(parts[1]), nil
}

// RequireSession validates the bearer token and stores the Session in the
// request context. A verified token without a usable userId still passes;
// the record source reports the missing identity instead.
func RequireSession(secret []byte, revoker Revoker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if errors.Is(err, ErrMissingToken) {
				http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
				return
			}
			if err != nil {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			session, err := Decode(token, secret)
			if err != nil {
				http.Error(w, "Invalid session token", http.StatusUnauthorized)
				return
			}

			if revoker != nil {
				revoked, err := revoker.IsRevoked(r.Context(), session)
				if err != nil {
					logger.Ctx(r.Context()).Error("Failed to check token revocation", "error", err)
					http.Error(w, "Session check failed", http.StatusServiceUnavailable)
					return
				}
				if revoked {
					http.Error(w, "Session has been logged out", http.StatusUnauthorized)
					return
				}
			}

			ctx := WithSession(r.Context(), session)
			log := logger.Ctx(ctx).With("user_id", session.UserID)
			ctx = logger.WithLogger(ctx, log)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
