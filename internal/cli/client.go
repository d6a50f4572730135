package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ConfabulousDev/resume-insights/internal/insights"
)

// Client talks to the resume-insights server with a stored bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a Client for cfg.
func NewClient(cfg *Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
		token:   cfg.Token,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

// dashboardPayload mirrors the server's dashboard response.
type dashboardPayload struct {
	*insights.Dashboard
	Error string `json:"error"`
}

// Me is the identity the server sees for the token.
type Me struct {
	UserID    int64      `json:"user_id"`
	Email     string     `json:"email"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Dashboard fetches every view for rng.
func (c *Client) Dashboard(ctx context.Context, rng insights.DateRange) (*insights.Dashboard, error) {
	resp, err := c.get(ctx, "/api/v1/dashboard", rangeQuery(rng))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload dashboardPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return payload.Dashboard, &APIError{Status: resp.StatusCode, Message: payload.Error}
	}
	return payload.Dashboard, nil
}

// Export downloads the CSV for rng. A nil body with a nil error means
// nothing passed the filter.
func (c *Client) Export(ctx context.Context, rng insights.DateRange) ([]byte, error) {
	resp, err := c.get(ctx, "/api/v1/dashboard/export", rangeQuery(rng))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read export: %w", err)
		}
		return body, nil
	case http.StatusNoContent:
		return nil, nil
	default:
		return nil, readAPIError(resp)
	}
}

// Me returns the identity behind the token.
func (c *Client) Me(ctx context.Context) (*Me, error) {
	resp, err := c.get(ctx, "/api/v1/me", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}
	var me Me
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("failed to decode identity: %w", err)
	}
	return &me, nil
}

// Logout revokes the token on the server.
func (c *Client) Logout(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/auth/logout", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, query)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// readAPIError builds an APIError from a JSON {"error"} body or plain text.
func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func rangeQuery(rng insights.DateRange) url.Values {
	q := url.Values{}
	if !rng.Start.IsZero() {
		q.Set("start_date", rng.Start.Format(insights.DateLayout))
	}
	if !rng.End.IsZero() {
		q.Set("end_date", rng.End.Format(insights.DateLayout))
	}
	return q
}
