package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/ConfabulousDev/resume-insights/internal/dashboard"
	"github.com/ConfabulousDev/resume-insights/internal/logger"
	"github.com/ConfabulousDev/resume-insights/internal/models"
	"github.com/ConfabulousDev/resume-insights/internal/source"
	"github.com/ConfabulousDev/resume-insights/internal/validation"
)

// HandleListRecords returns the caller's raw record list.
func HandleListRecords(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r)
		if !ok {
			return
		}
		records, err := svc.Load(r.Context(), session)
		if err != nil {
			respondError(w, fetchErrorStatus(err), source.FetchFailedMessage)
			return
		}
		respondJSON(w, http.StatusOK, records)
	}
}

// HandleGetProgress returns each skill's history across uploads.
func HandleGetProgress(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r)
		if !ok {
			return
		}
		trends, err := svc.Progress(r.Context(), session)
		if err != nil {
			respondError(w, fetchErrorStatus(err), source.FetchFailedMessage)
			return
		}
		respondJSON(w, http.StatusOK, trends)
	}
}

// HandleGetLatest returns the most recent record, 404 when there is none.
func HandleGetLatest(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r)
		if !ok {
			return
		}
		rec, err := svc.Latest(r.Context(), session)
		if err != nil {
			respondError(w, fetchErrorStatus(err), source.FetchFailedMessage)
			return
		}
		if rec == nil {
			respondError(w, http.StatusNotFound, "No analysis records found")
			return
		}
		respondJSON(w, http.StatusOK, rec)
	}
}

// HandleGetCount returns how many records the caller has.
func HandleGetCount(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r)
		if !ok {
			return
		}
		n, err := svc.Count(r.Context(), session)
		if err != nil {
			respondError(w, fetchErrorStatus(err), source.FetchFailedMessage)
			return
		}
		respondJSON(w, http.StatusOK, map[string]int{"count": n})
	}
}

// HandleCompare contrasts the caller's two most recent uploads.
func HandleCompare(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r)
		if !ok {
			return
		}
		cmp, err := svc.Compare(r.Context(), session)
		if err != nil {
			respondError(w, fetchErrorStatus(err), source.FetchFailedMessage)
			return
		}
		respondJSON(w, http.StatusOK, cmp)
	}
}

// HandleIngestRecord stores one analysis record posted by the analysis
// service. Requests must carry the shared key in X-API-Key.
func HandleIngestRecord(records RecordWriter, apiKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.Ctx(r.Context())

		if records == nil || apiKey == "" {
			respondError(w, http.StatusServiceUnavailable, "Record ingestion is not enabled")
			return
		}
		if subtle.ConstantTimeCompare([]byte(r.Header.Get("X-API-Key")), []byte(apiKey)) != 1 {
			respondError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, MaxIngestBodySize)
		var rec models.AnalysisRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := validation.ValidateRecord(&rec); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		id, err := records.InsertRecord(r.Context(), &rec)
		if err != nil {
			log.Error("Failed to insert record", "error", err, "user_id", rec.UserID, "resume_id", rec.ResumeID)
			respondError(w, http.StatusInternalServerError, "Failed to store record")
			return
		}

		log.Info("Record ingested", "record_id", id, "user_id", rec.UserID, "resume_id", rec.ResumeID)
		respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
	}
}
