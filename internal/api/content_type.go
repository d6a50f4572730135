package api

import (
	"mime"
	"net/http"

	"github.com/ConfabulousDev/resume-insights/internal/logger"
)

// validateContentType middleware ensures POST/PUT/PATCH requests have proper Content-Type
func validateContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			next.ServeHTTP(w, r)
			return
		}

		log := logger.Ctx(r.Context())
		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			log.Info("Request missing Content-Type header", "method", r.Method, "path", r.URL.Path)
			http.Error(w, "Content-Type header required", http.StatusUnsupportedMediaType)
			return
		}

		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			log.Info("Request with invalid Content-Type", "method", r.Method, "path", r.URL.Path, "content_type", contentType)
			http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
			return
		}

		next.ServeHTTP(w, r)
	})
}
