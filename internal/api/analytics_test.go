package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/ConfabulousDev/resume-insights/internal/insights"
	"github.com/ConfabulousDev/resume-insights/internal/models"
	"github.com/ConfabulousDev/resume-insights/internal/testutil"
)

func TestAnalyticsQueries(t *testing.T) {
	h, _ := newTestServer(t, newMemoryRecords(fixture()...), nil)

	t.Run("records", func(t *testing.T) {
		w := serve(h, testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/analytics/records", nil, 1))
		testutil.AssertStatus(t, w, http.StatusOK)
		var records []models.AnalysisRecord
		testutil.ParseJSONResponse(t, w, &records)
		if len(records) != 2 {
			t.Errorf("got %d records, want 2", len(records))
		}
	})

	t.Run("count", func(t *testing.T) {
		w := serve(h, testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/analytics/count", nil, 2))
		testutil.AssertStatus(t, w, http.StatusOK)
		var resp map[string]int
		testutil.ParseJSONResponse(t, w, &resp)
		if resp["count"] != 1 {
			t.Errorf("count = %d, want 1", resp["count"])
		}
	})

	t.Run("latest", func(t *testing.T) {
		w := serve(h, testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/analytics/latest", nil, 1))
		testutil.AssertStatus(t, w, http.StatusOK)
		var rec models.AnalysisRecord
		testutil.ParseJSONResponse(t, w, &rec)
		if rec.ResumeID != 2 {
			t.Errorf("latest resume = %d, want 2", rec.ResumeID)
		}
	})

	t.Run("latest with no records", func(t *testing.T) {
		w := serve(h, testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/analytics/latest", nil, 77))
		testutil.AssertErrorResponse(t, w, http.StatusNotFound, "No analysis records found")
	})

	t.Run("compare", func(t *testing.T) {
		w := serve(h, testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/analytics/compare", nil, 1))
		testutil.AssertStatus(t, w, http.StatusOK)
		var cmp insights.Comparison
		testutil.ParseJSONResponse(t, w, &cmp)
		if cmp.ScoreDelta == nil || *cmp.ScoreDelta != -20 {
			t.Errorf("score_delta = %v, want -20", cmp.ScoreDelta)
		}
		if len(cmp.StrengthsGained) != 1 || cmp.StrengthsGained[0] != "Java" {
			t.Errorf("strengths_gained = %v", cmp.StrengthsGained)
		}
		if len(cmp.WeaknessesResolved) != 1 || cmp.WeaknessesResolved[0] != "SQL" {
			t.Errorf("weaknesses_resolved = %v", cmp.WeaknessesResolved)
		}
	})

	t.Run("progress", func(t *testing.T) {
		w := serve(h, testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/analytics/progress", nil, 1))
		testutil.AssertStatus(t, w, http.StatusOK)
		var trends []insights.SkillTrend
		testutil.ParseJSONResponse(t, w, &trends)
		if len(trends) != 3 || trends[0].Skill != "Go" {
			t.Errorf("trends = %+v", trends)
		}
	})
}

func ingestRequest(t *testing.T, body any, key string) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	return req
}

func TestHandleIngestRecord(t *testing.T) {
	records := newMemoryRecords()
	h, _ := newTestServer(t, records, nil)

	valid := models.AnalysisRecord{
		UserID:       5,
		ResumeID:     9,
		Filename:     "cv.pdf",
		UploadedAt:   "2024-03-01T12:00:00",
		MatchScore:   models.Float(88),
		StrongSkills: []string{"Go, gRPC"},
		WeakSkills:   []string{},
	}

	t.Run("missing key", func(t *testing.T) {
		w := serve(h, ingestRequest(t, valid, ""))
		testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, "Invalid API key")
	})

	t.Run("wrong key", func(t *testing.T) {
		w := serve(h, ingestRequest(t, valid, "nope"))
		testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, "Invalid API key")
	})

	t.Run("invalid record", func(t *testing.T) {
		bad := valid
		bad.MatchScore = models.Float(150)
		w := serve(h, ingestRequest(t, bad, testIngestKey))
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "matchScore must be between 0 and 100")
	})

	t.Run("nul in skill", func(t *testing.T) {
		bad := valid
		bad.StrongSkills = []string{"Go\x00"}
		w := serve(h, ingestRequest(t, bad, testIngestKey))
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "strongSkills must not contain NUL characters")
	})

	t.Run("stores record", func(t *testing.T) {
		w := serve(h, ingestRequest(t, valid, testIngestKey))
		testutil.AssertStatus(t, w, http.StatusCreated)

		w = serve(h, testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/dashboard", nil, 5))
		var resp DashboardResponse
		testutil.ParseJSONResponse(t, w, &resp)
		if resp.Summary.TotalRecords != 1 || resp.Summary.StrongSkillCount != 2 {
			t.Errorf("summary after ingest = %+v", resp.Summary)
		}
	})
}

func TestHandleIngestRecord_Transport(t *testing.T) {
	records := newMemoryRecords()
	h, _ := newTestServer(t, records, nil)

	body, err := json.Marshal(models.AnalysisRecord{UserID: 4, ResumeID: 1, UploadedAt: "2024-01-01"})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("zstd body", func(t *testing.T) {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			t.Fatal(err)
		}
		compressed := enc.EncodeAll(body, nil)
		enc.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics", bytes.NewReader(compressed))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Content-Encoding", "zstd")
		req.Header.Set("X-API-Key", testIngestKey)
		testutil.AssertStatus(t, serve(h, req), http.StatusCreated)
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics", bytes.NewReader(body))
		req.Header.Set("Content-Type", "text/plain")
		req.Header.Set("X-API-Key", testIngestKey)
		testutil.AssertStatus(t, serve(h, req), http.StatusUnsupportedMediaType)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics", bytes.NewReader([]byte(`{"userId":`)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", testIngestKey)
		testutil.AssertErrorResponse(t, serve(h, req), http.StatusBadRequest, "Invalid request body")
	})

	t.Run("ingestion disabled", func(t *testing.T) {
		srv := NewServer(nil, Deps{}, Config{JWTSecret: testutil.TestJWTSecret})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		testutil.AssertErrorResponse(t, serve(srv.SetupRoutes(), req), http.StatusServiceUnavailable, "Record ingestion is not enabled")
	})

	if len(records.byUser[4]) != 1 {
		t.Errorf("stored %d records for user 4, want 1", len(records.byUser[4]))
	}
}
