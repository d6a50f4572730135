package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ConfabulousDev/resume-insights/internal/auth"
	"github.com/ConfabulousDev/resume-insights/internal/models"
)

var tracer = otel.Tracer("resume-insights/source")

// DefaultPath is the analytics service route for one user's records.
const DefaultPath = "/analytics/user/%d"

// maxResponseBytes caps the upstream body.
const maxResponseBytes = 10 << 20

// HTTPSource reads records from the analytics service, forwarding the
// caller's bearer token.
type HTTPSource struct {
	baseURL string
	path    string
	client  *http.Client
}

// HTTPConfig configures an HTTPSource.
type HTTPConfig struct {
	BaseURL string
	// Path is appended to BaseURL. A path containing a verb is formatted with
	// the user ID. Defaults to DefaultPath.
	Path    string
	Timeout time.Duration
	// Transport overrides the base round tripper (tests).
	Transport http.RoundTripper
}

// NewHTTPSource creates an HTTPSource.
func NewHTTPSource(cfg HTTPConfig) *HTTPSource {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		path:    path,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(base),
		},
	}
}

// FetchRecords implements Source.
func (s *HTTPSource) FetchRecords(ctx context.Context, session *auth.Session) ([]models.AnalysisRecord, error) {
	userID, err := RequireIdentity(session)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "source.http.fetch_records")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	records, err := s.fetch(ctx, session, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	span.SetAttributes(attribute.Int("records.count", len(records)))
	return records, nil
}

func (s *HTTPSource) fetch(ctx context.Context, session *auth.Session, userID int64) ([]models.AnalysisRecord, error) {
	path := s.path
	if strings.Contains(path, "%") {
		path = fmt.Sprintf(path, userID)
	}
	url := s.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+session.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	var records []models.AnalysisRecord
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	if records == nil {
		records = []models.AnalysisRecord{}
	}
	return records, nil
}
