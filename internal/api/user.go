package api

import (
	"net/http"
	"time"

	"github.com/ConfabulousDev/resume-insights/internal/auth"
	"github.com/ConfabulousDev/resume-insights/internal/logger"
)

// MeResponse is the caller's identity.
type MeResponse struct {
	UserID    int64      `json:"user_id"`
	Email     string     `json:"email"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func handleGetMe(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	resp := MeResponse{UserID: session.UserID, Email: session.Email}
	if !session.ExpiresAt.IsZero() {
		resp.ExpiresAt = &session.ExpiresAt
	}
	respondJSON(w, http.StatusOK, resp)
}

// HandleLogout revokes the caller's token so it is rejected from now on.
func HandleLogout(revoker auth.Revoker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r)
		if !ok {
			return
		}
		if revoker != nil {
			if err := revoker.Revoke(r.Context(), session); err != nil {
				logger.Ctx(r.Context()).Error("Failed to revoke token", "error", err)
				respondError(w, http.StatusInternalServerError, "Failed to log out")
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
	}
}
