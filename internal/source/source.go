// Package source fetches a user's analysis records from wherever they live.
package source

import (
	"context"
	"errors"

	"github.com/ConfabulousDev/resume-insights/internal/auth"
	"github.com/ConfabulousDev/resume-insights/internal/models"
)

// FetchFailedMessage is the user-facing text for any fetch failure.
const FetchFailedMessage = "Failed to load analytics data."

var (
	// ErrFetchFailed wraps every failure to produce a record list.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrMissingIdentity is returned when the session names no user.
	ErrMissingIdentity = errors.New("session has no user identity")
)

// Source yields the full record list for a session's user.
type Source interface {
	FetchRecords(ctx context.Context, session *auth.Session) ([]models.AnalysisRecord, error)
}

// Func adapts a function to Source.
type Func func(ctx context.Context, session *auth.Session) ([]models.AnalysisRecord, error)

func (f Func) FetchRecords(ctx context.Context, session *auth.Session) ([]models.AnalysisRecord, error) {
	return f(ctx, session)
}

// RequireIdentity returns the session's user ID or an ErrFetchFailed-wrapped
// ErrMissingIdentity.
func RequireIdentity(session *auth.Session) (int64, error) {
	if !session.HasIdentity() {
		return 0, errors.Join(ErrFetchFailed, ErrMissingIdentity)
	}
	return session.UserID, nil
}
