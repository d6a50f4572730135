package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"

	"github.com/ConfabulousDev/resume-insights/internal/testutil"
)

func TestHealthAndRoot(t *testing.T) {
	h, _ := newTestServer(t, newMemoryRecords(), nil)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var health map[string]string
	testutil.ParseJSONResponse(t, w, &health)
	if health["status"] != "ok" {
		t.Errorf("status = %q", health["status"])
	}

	w = serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	h, _ := newTestServer(t, newMemoryRecords(fixture()...), nil)
	for _, path := range []string{
		"/api/v1/me",
		"/api/v1/dashboard",
		"/api/v1/dashboard/export",
		"/api/v1/analytics/records",
		"/api/v1/analytics/progress",
		"/api/v1/analytics/latest",
		"/api/v1/analytics/count",
		"/api/v1/analytics/compare",
	} {
		w := serve(h, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: status %d, want 401", path, w.Code)
		}
	}
}

func TestBrotliCompression(t *testing.T) {
	h, _ := newTestServer(t, newMemoryRecords(fixture()...), nil)

	req := testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/dashboard", nil, 1)
	req.Header.Set("Accept-Encoding", "br")
	w := serve(h, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if enc := w.Header().Get("Content-Encoding"); enc != "br" {
		t.Fatalf("Content-Encoding = %q, want br", enc)
	}
	body, err := io.ReadAll(brotli.NewReader(w.Body))
	if err != nil {
		t.Fatalf("failed to decompress: %v", err)
	}
	var resp DashboardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decompressed body is not JSON: %v", err)
	}
	if resp.Summary.TotalRecords != 2 {
		t.Errorf("TotalRecords = %d, want 2", resp.Summary.TotalRecords)
	}
}

func TestDecompressMiddleware(t *testing.T) {
	var received []byte
	handler := decompressMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("decompresses zstd body", func(t *testing.T) {
		payload := []byte(`{"resumeId":1}`)
		encoder, _ := zstd.NewWriter(nil)
		compressed := encoder.EncodeAll(payload, nil)

		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(compressed))
		req.Header.Set("Content-Encoding", "zstd")
		w := serve(handler, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		if string(received) != string(payload) {
			t.Errorf("received %q, want %q", received, payload)
		}
	})

	t.Run("passes through plain body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("plain"))
		serve(handler, req)
		if string(received) != "plain" {
			t.Errorf("received %q", received)
		}
	})

	t.Run("rejects unsupported encoding", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("x"))
		req.Header.Set("Content-Encoding", "deflate")
		w := serve(handler, req)
		testutil.AssertStatus(t, w, http.StatusUnsupportedMediaType)
	})
}

func TestValidateContentType(t *testing.T) {
	handler := validateContentType(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	tests := []struct {
		method      string
		contentType string
		want        int
	}{
		{http.MethodGet, "", http.StatusOK},
		{http.MethodPost, "", http.StatusUnsupportedMediaType},
		{http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{http.MethodPost, "application/json", http.StatusOK},
		{http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/", nil)
		if tt.contentType != "" {
			req.Header.Set("Content-Type", tt.contentType)
		}
		if w := serve(handler, req); w.Code != tt.want {
			t.Errorf("%s %q: status %d, want %d", tt.method, tt.contentType, w.Code, tt.want)
		}
	}
}
