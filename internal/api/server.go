// Package api exposes the dashboard, export and analytics endpoints over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ConfabulousDev/resume-insights/internal/auth"
	"github.com/ConfabulousDev/resume-insights/internal/clientip"
	"github.com/ConfabulousDev/resume-insights/internal/dashboard"
	"github.com/ConfabulousDev/resume-insights/internal/logger"
	"github.com/ConfabulousDev/resume-insights/internal/models"
	"github.com/ConfabulousDev/resume-insights/internal/ratelimit"
)

// MaxIngestBodySize caps a single ingested record after decompression.
const MaxIngestBodySize = 1 << 20

// RecordWriter persists ingested records.
type RecordWriter interface {
	InsertRecord(ctx context.Context, rec *models.AnalysisRecord) (int64, error)
}

// ExportArchiver stores export artifacts and hands out download links.
type ExportArchiver interface {
	UploadExport(ctx context.Context, userID int64, filename, contentType string, data []byte) (string, error)
	PresignedURL(ctx context.Context, key, filename string, expiry time.Duration) (string, error)
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds HTTP-layer settings.
type Config struct {
	JWTSecret      []byte
	AllowedOrigins []string
	// IngestAPIKey enables POST /api/v1/analytics when set.
	IngestAPIKey  string
	ArchiveExpiry time.Duration
}

// Deps are the optional collaborators of the server. Nil fields disable the
// endpoints that need them.
type Deps struct {
	Records RecordWriter
	Archive ExportArchiver
	Revoker auth.Revoker
	Limiter ratelimit.RateLimiter
	Health  Pinger
}

// Server holds dependencies for API handlers
type Server struct {
	svc  *dashboard.Service
	deps Deps
	cfg  Config
}

// NewServer creates a new API server
func NewServer(svc *dashboard.Service, deps Deps, cfg Config) *Server {
	if cfg.ArchiveExpiry == 0 {
		cfg.ArchiveExpiry = 15 * time.Minute
	}
	return &Server{svc: svc, deps: deps, cfg: cfg}
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(clientip.Middleware)
	r.Use(logger.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Encoding", "X-API-Key"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(compressor().Handler)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleRoot)

	r.Route("/api/v1", func(r chi.Router) {
		// Service-to-service ingestion, authenticated by API key
		r.Group(func(r chi.Router) {
			if s.deps.Limiter != nil {
				r.Use(ratelimit.Middleware(s.deps.Limiter))
			}
			r.Use(decompressMiddleware())
			r.Use(validateContentType)
			r.Post("/analytics", HandleIngestRecord(s.deps.Records, s.cfg.IngestAPIKey))
		})

		// Routes requiring a bearer session
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(s.cfg.JWTSecret, s.deps.Revoker))
			if s.deps.Limiter != nil {
				r.Use(ratelimit.MiddlewareWithKey(s.deps.Limiter, ratelimit.UserKeyFunc))
			}

			r.Get("/me", handleGetMe)
			r.Post("/auth/logout", HandleLogout(s.deps.Revoker))

			r.Get("/dashboard", HandleGetDashboard(s.svc))
			r.Get("/dashboard/export", HandleExportDashboard(s.svc))
			r.Post("/dashboard/export/archive", HandleArchiveExport(s.svc, s.deps.Archive, s.cfg.ArchiveExpiry))

			r.Get("/analytics/records", HandleListRecords(s.svc))
			r.Get("/analytics/progress", HandleGetProgress(s.svc))
			r.Get("/analytics/latest", HandleGetLatest(s.svc))
			r.Get("/analytics/count", HandleGetCount(s.svc))
			r.Get("/analytics/compare", HandleCompare(s.svc))
		})
	})

	return r
}

// compressor compresses JSON and CSV responses, preferring brotli.
func compressor() *middleware.Compressor {
	c := middleware.NewCompressor(5, "application/json", "text/csv")
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Health.Ping(ctx); err != nil {
			logger.Ctx(r.Context()).Error("Health check failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleRoot returns API info
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "resume-insights",
		"version": "v1",
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
