// Package dashboard connects a record source to the insights pipeline and
// holds the presentation state used by interactive clients.
package dashboard

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ConfabulousDev/resume-insights/internal/auth"
	"github.com/ConfabulousDev/resume-insights/internal/insights"
	"github.com/ConfabulousDev/resume-insights/internal/logger"
	"github.com/ConfabulousDev/resume-insights/internal/models"
	"github.com/ConfabulousDev/resume-insights/internal/source"
)

var tracer = otel.Tracer("resume-insights/dashboard")

// recordCounter is implemented by sources that can count without loading
// every record.
type recordCounter interface {
	CountRecords(ctx context.Context, session *auth.Session) (int, error)
}

// latestFinder is implemented by sources that can look up the latest record
// directly. A nil record means the user has none.
type latestFinder interface {
	LatestRecord(ctx context.Context, session *auth.Session) (*models.AnalysisRecord, error)
}

// Service answers dashboard queries for one session at a time.
type Service struct {
	src source.Source
}

// NewService creates a Service over src.
func NewService(src source.Source) *Service {
	return &Service{src: src}
}

// Load fetches the session's records. Any failure is reported as
// source.ErrFetchFailed with no partial data.
func (s *Service) Load(ctx context.Context, session *auth.Session) ([]models.AnalysisRecord, error) {
	ctx, span := tracer.Start(ctx, "dashboard.load",
		trace.WithAttributes(attribute.Int64("user.id", sessionUserID(session))))
	defer span.End()

	records, err := s.src.FetchRecords(ctx, session)
	if err != nil {
		if !errors.Is(err, source.ErrFetchFailed) {
			err = fmt.Errorf("%w: %w", source.ErrFetchFailed, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		logger.Ctx(ctx).Warn("Failed to load analytics records", "error", err, "user_id", sessionUserID(session))
		return nil, err
	}
	span.SetAttributes(attribute.Int("records.count", len(records)))
	return records, nil
}

// Build loads records and projects every dashboard view for rng. On fetch
// failure it returns the empty dashboard together with the error.
func (s *Service) Build(ctx context.Context, session *auth.Session, rng insights.DateRange) (*insights.Dashboard, error) {
	records, err := s.Load(ctx, session)
	if err != nil {
		return insights.Build(nil, rng), err
	}
	return insights.Build(records, rng), nil
}

// Export loads records and renders the CSV artifact for rng. A nil artifact
// with a nil error means nothing passed the filter.
func (s *Service) Export(ctx context.Context, session *auth.Session, rng insights.DateRange) (*insights.Artifact, error) {
	records, err := s.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	return insights.Export(records, rng), nil
}

// Progress returns the per-skill history across uploads.
func (s *Service) Progress(ctx context.Context, session *auth.Session) ([]insights.SkillTrend, error) {
	records, err := s.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	return insights.Progress(records), nil
}

// Latest returns the most recent record, or nil when there is none.
func (s *Service) Latest(ctx context.Context, session *auth.Session) (*models.AnalysisRecord, error) {
	if f, ok := s.src.(latestFinder); ok {
		return f.LatestRecord(ctx, session)
	}
	records, err := s.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	return insights.Latest(records), nil
}

// Count returns how many records the session's user has.
func (s *Service) Count(ctx context.Context, session *auth.Session) (int, error) {
	if c, ok := s.src.(recordCounter); ok {
		return c.CountRecords(ctx, session)
	}
	records, err := s.Load(ctx, session)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Compare contrasts the two most recent uploads.
func (s *Service) Compare(ctx context.Context, session *auth.Session) (insights.Comparison, error) {
	records, err := s.Load(ctx, session)
	if err != nil {
		return insights.CompareLatest(nil), err
	}
	return insights.CompareLatest(records), nil
}

func sessionUserID(s *auth.Session) int64 {
	if s == nil {
		return 0
	}
	return s.UserID
}
