package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ConfabulousDev/resume-insights/internal/auth"
	"github.com/ConfabulousDev/resume-insights/internal/dashboard"
	"github.com/ConfabulousDev/resume-insights/internal/insights"
	"github.com/ConfabulousDev/resume-insights/internal/logger"
	"github.com/ConfabulousDev/resume-insights/internal/source"
)

// DashboardResponse is the dashboard payload. Error is set, and every view
// empty, when the records could not be loaded.
type DashboardResponse struct {
	*insights.Dashboard
	Error string `json:"error,omitempty"`
}

// ArchiveResponse describes an archived export.
type ArchiveResponse struct {
	Key       string    `json:"key"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// parseDateRange reads start_date and end_date (YYYY-MM-DD, both optional).
func parseDateRange(r *http.Request) (insights.DateRange, bool) {
	q := r.URL.Query()
	rng, err := insights.ParseDateRange(q.Get("start_date"), q.Get("end_date"))
	return rng, err == nil
}

// fetchErrorStatus maps a load failure to a status code: a session without a
// user identity is the caller's problem, everything else is upstream's.
func fetchErrorStatus(err error) int {
	if errors.Is(err, source.ErrMissingIdentity) {
		return http.StatusUnauthorized
	}
	return http.StatusBadGateway
}

func requireSession(w http.ResponseWriter, r *http.Request) (*auth.Session, bool) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return session, true
}

// HandleGetDashboard returns every dashboard view for the caller.
//
// Query parameters:
//   - start_date: first day included (YYYY-MM-DD, optional)
//   - end_date: last day included (YYYY-MM-DD, optional)
func HandleGetDashboard(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r)
		if !ok {
			return
		}
		rng, ok := parseDateRange(r)
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid date range: use YYYY-MM-DD")
			return
		}

		d, err := svc.Build(r.Context(), session, rng)
		if err != nil {
			respondJSON(w, fetchErrorStatus(err), DashboardResponse{Dashboard: d, Error: source.FetchFailedMessage})
			return
		}
		respondJSON(w, http.StatusOK, DashboardResponse{Dashboard: d})
	}
}

// HandleExportDashboard streams the filtered records as resume_analytics.csv.
// Responds 204 when nothing passes the filter.
func HandleExportDashboard(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r)
		if !ok {
			return
		}
		rng, ok := parseDateRange(r)
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid date range: use YYYY-MM-DD")
			return
		}

		art, err := svc.Export(r.Context(), session, rng)
		if err != nil {
			respondError(w, fetchErrorStatus(err), source.FetchFailedMessage)
			return
		}
		if art == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", art.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(art.Body)))
		w.WriteHeader(http.StatusOK)
		w.Write(art.Body)
	}
}

// HandleArchiveExport stores the export in object storage and returns a
// presigned download URL.
func HandleArchiveExport(svc *dashboard.Service, archive ExportArchiver, expiry time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.Ctx(r.Context())

		if archive == nil {
			respondError(w, http.StatusServiceUnavailable, "Export storage is not configured")
			return
		}
		session, ok := requireSession(w, r)
		if !ok {
			return
		}
		rng, ok := parseDateRange(r)
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid date range: use YYYY-MM-DD")
			return
		}

		art, err := svc.Export(r.Context(), session, rng)
		if err != nil {
			respondError(w, fetchErrorStatus(err), source.FetchFailedMessage)
			return
		}
		if art == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		key, err := archive.UploadExport(r.Context(), session.UserID, art.Filename, art.ContentType, art.Body)
		if err != nil {
			log.Error("Failed to archive export", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to archive export")
			return
		}
		url, err := archive.PresignedURL(r.Context(), key, art.Filename, expiry)
		if err != nil {
			log.Error("Failed to presign export", "error", err, "key", key)
			respondError(w, http.StatusInternalServerError, "Failed to archive export")
			return
		}

		log.Info("Export archived", "key", key, "size", len(art.Body))
		respondJSON(w, http.StatusCreated, ArchiveResponse{
			Key:       key,
			Filename:  art.Filename,
			URL:       url,
			ExpiresAt: time.Now().UTC().Add(expiry),
		})
	}
}
