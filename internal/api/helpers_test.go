package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ConfabulousDev/resume-insights/internal/auth"
	"github.com/ConfabulousDev/resume-insights/internal/dashboard"
	"github.com/ConfabulousDev/resume-insights/internal/models"
	"github.com/ConfabulousDev/resume-insights/internal/source"
	"github.com/ConfabulousDev/resume-insights/internal/testutil"
)

// memoryRecords is an in-memory source and record writer keyed by user.
type memoryRecords struct {
	mu      sync.Mutex
	byUser  map[int64][]models.AnalysisRecord
	nextID  int64
	failing bool
}

func newMemoryRecords(records ...models.AnalysisRecord) *memoryRecords {
	m := &memoryRecords{byUser: map[int64][]models.AnalysisRecord{}}
	for _, r := range records {
		m.byUser[r.UserID] = append(m.byUser[r.UserID], r)
	}
	return m
}

func (m *memoryRecords) FetchRecords(ctx context.Context, s *auth.Session) ([]models.AnalysisRecord, error) {
	userID, err := source.RequireIdentity(s)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, source.ErrFetchFailed
	}
	return append([]models.AnalysisRecord{}, m.byUser[userID]...), nil
}

func (m *memoryRecords) InsertRecord(ctx context.Context, rec *models.AnalysisRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	stored := *rec
	stored.ID = m.nextID
	m.byUser[rec.UserID] = append(m.byUser[rec.UserID], stored)
	return m.nextID, nil
}

type fakeArchive struct {
	uploads map[string][]byte
}

func (f *fakeArchive) UploadExport(ctx context.Context, userID int64, filename, contentType string, data []byte) (string, error) {
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	key := "exports/test.csv"
	f.uploads[key] = data
	return key, nil
}

func (f *fakeArchive) PresignedURL(ctx context.Context, key, filename string, expiry time.Duration) (string, error) {
	return "https://storage.example.com/" + key + "?sig=1", nil
}

const testIngestKey = "ingest-key"

func fixture() []models.AnalysisRecord {
	return []models.AnalysisRecord{
		{UserID: 1, ResumeID: 1, Filename: "a.pdf", UploadedAt: "2024-01-01", MatchScore: models.Float(80), StrongSkills: []string{"Go"}, WeakSkills: []string{"SQL"}, GoodSkillsCount: models.Int(1), WeakSkillsCount: models.Int(1)},
		{UserID: 1, ResumeID: 2, Filename: "b.pdf", UploadedAt: "2024-02-01", MatchScore: models.Float(60), StrongSkills: []string{"Java"}, WeakSkills: []string{}},
		{UserID: 2, ResumeID: 3, Filename: "other.pdf", UploadedAt: "2024-02-01", MatchScore: models.Float(99)},
	}
}

func newTestServer(t *testing.T, records *memoryRecords, archive ExportArchiver) (http.Handler, *auth.MemoryRevoker) {
	t.Helper()
	revoker := auth.NewMemoryRevoker()
	srv := NewServer(dashboard.NewService(records), Deps{
		Records: records,
		Archive: archive,
		Revoker: revoker,
	}, Config{
		JWTSecret:    testutil.TestJWTSecret,
		IngestAPIKey: testIngestKey,
	})
	return srv.SetupRoutes(), revoker
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
