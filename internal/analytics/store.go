// Package analytics persists analysis records in PostgreSQL and serves them
// back as a record source.
package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ConfabulousDev/resume-insights/internal/auth"
	"github.com/ConfabulousDev/resume-insights/internal/insights"
	"github.com/ConfabulousDev/resume-insights/internal/models"
	"github.com/ConfabulousDev/resume-insights/internal/source"
)

var tracer = otel.Tracer("resume-insights/analytics")

var (
	// ErrRecordNotFound is returned when a user has no records.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidUploadedAt is returned when uploadedAt cannot be parsed.
	ErrInvalidUploadedAt = errors.New("invalid uploadedAt")
)

// Store provides database operations for analysis records.
type Store struct {
	db *sql.DB
}

// NewStore creates a new analytics store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const recordColumns = `id, user_id, resume_id, filename, uploaded_at, match_score,
	strong_skills, weak_skills, good_skills_count, weak_skills_count, job_description`

// InsertRecord stores a record and returns its ID.
func (s *Store) InsertRecord(ctx context.Context, rec *models.AnalysisRecord) (int64, error) {
	ctx, span := tracer.Start(ctx, "analytics.insert_record",
		trace.WithAttributes(
			attribute.Int64("user.id", rec.UserID),
			attribute.Int64("resume.id", rec.ResumeID),
		))
	defer span.End()

	uploadedAt, ok := insights.ParseUploadedAt(rec.UploadedAt)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUploadedAt, rec.UploadedAt)
	}

	var score decimal.NullDecimal
	if rec.MatchScore != nil {
		score = decimal.NewNullDecimal(decimal.NewFromFloat(*rec.MatchScore))
	}

	query := `INSERT INTO analysis_records (
		user_id, resume_id, filename, uploaded_at, match_score,
		strong_skills, weak_skills, good_skills_count, weak_skills_count, job_description
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		rec.UserID,
		rec.ResumeID,
		nullString(rec.Filename),
		uploadedAt,
		score,
		pq.Array(nonNil(rec.StrongSkills)),
		pq.Array(nonNil(rec.WeakSkills)),
		nullInt(rec.GoodSkillsCount),
		nullInt(rec.WeakSkillsCount),
		nullString(rec.JobDescription),
	).Scan(&id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return 0, fmt.Errorf("failed to insert record: %w", err)
	}
	span.SetAttributes(attribute.Int64("record.id", id))
	return id, nil
}

// ListByUser returns every record for userID in insertion order.
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]models.AnalysisRecord, error) {
	ctx, span := tracer.Start(ctx, "analytics.list_by_user",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	query := `SELECT ` + recordColumns + ` FROM analysis_records WHERE user_id = $1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []models.AnalysisRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "scan failed")
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	span.SetAttributes(attribute.Int("records.count", len(records)))
	return records, nil
}

// LatestByUser returns the most recently uploaded record for userID.
func (s *Store) LatestByUser(ctx context.Context, userID int64) (*models.AnalysisRecord, error) {
	ctx, span := tracer.Start(ctx, "analytics.latest_by_user",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	query := `SELECT ` + recordColumns + ` FROM analysis_records
		WHERE user_id = $1 ORDER BY uploaded_at DESC, id DESC LIMIT 1`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, err
	}
	return rec, nil
}

// CountByUser returns how many records userID has.
func (s *Store) CountByUser(ctx context.Context, userID int64) (int, error) {
	ctx, span := tracer.Start(ctx, "analytics.count_by_user",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM analysis_records WHERE user_id = $1`, userID).Scan(&n); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// FetchRecords implements source.Source.
func (s *Store) FetchRecords(ctx context.Context, session *auth.Session) ([]models.AnalysisRecord, error) {
	userID, err := source.RequireIdentity(session)
	if err != nil {
		return nil, err
	}
	records, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrFetchFailed, err)
	}
	return records, nil
}

// CountRecords implements the dashboard's optional counting fast path.
func (s *Store) CountRecords(ctx context.Context, session *auth.Session) (int, error) {
	userID, err := source.RequireIdentity(session)
	if err != nil {
		return 0, err
	}
	n, err := s.CountByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", source.ErrFetchFailed, err)
	}
	return n, nil
}

// LatestRecord implements the dashboard's optional latest-record fast path.
// Returns nil without error when the user has no records.
func (s *Store) LatestRecord(ctx context.Context, session *auth.Session) (*models.AnalysisRecord, error) {
	userID, err := source.RequireIdentity(session)
	if err != nil {
		return nil, err
	}
	rec, err := s.LatestByUser(ctx, userID)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrFetchFailed, err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.AnalysisRecord, error) {
	var (
		rec        models.AnalysisRecord
		filename   sql.NullString
		uploadedAt time.Time
		score      decimal.NullDecimal
		strong     pq.StringArray
		weak       pq.StringArray
		good       sql.NullInt64
		weakCount  sql.NullInt64
		jobDesc    sql.NullString
	)
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.ResumeID,
		&filename,
		&uploadedAt,
		&score,
		&strong,
		&weak,
		&good,
		&weakCount,
		&jobDesc,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	rec.Filename = filename.String
	rec.UploadedAt = uploadedAt.UTC().Format(time.RFC3339)
	if score.Valid {
		v := score.Decimal.InexactFloat64()
		rec.MatchScore = &v
	}
	rec.StrongSkills = nonNil([]string(strong))
	rec.WeakSkills = nonNil([]string(weak))
	if good.Valid {
		rec.GoodSkillsCount = models.Int(int(good.Int64))
	}
	if weakCount.Valid {
		rec.WeakSkillsCount = models.Int(int(weakCount.Int64))
	}
	rec.JobDescription = jobDesc.String
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
