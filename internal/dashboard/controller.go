package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/ConfabulousDev/resume-insights/internal/auth"
	"github.com/ConfabulousDev/resume-insights/internal/insights"
	"github.com/ConfabulousDev/resume-insights/internal/models"
	"github.com/ConfabulousDev/resume-insights/internal/source"
)

var (
	// ErrStaleFetch is returned by Refresh when a newer fetch, session change
	// or logout superseded it. Its result was discarded.
	ErrStaleFetch = errors.New("fetch superseded by a newer request")
	// ErrNoSession is returned by Refresh before SetSession.
	ErrNoSession = errors.New("no active session")
)

// Controller is the presentation-layer state behind an interactive
// dashboard: the session, the last fetched record list and the active date
// range. Views are recomputed from that state on every call.
//
// Every fetch is tagged with a sequence number. Only the result of the most
// recently issued fetch is applied, whatever order fetches complete in.
type Controller struct {
	src source.Source

	mu      sync.Mutex
	session *auth.Session
	records []models.AnalysisRecord
	rng     insights.DateRange
	seq     uint64
	lastErr error
}

// NewController creates a Controller reading from src.
func NewController(src source.Source) *Controller {
	return &Controller{src: src}
}

// SetSession installs a new session and drops data that belonged to the
// previous one. In-flight fetches become stale.
func (c *Controller) SetSession(s *auth.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.session = s
	c.records = nil
	c.lastErr = nil
}

// ClearSession tears down the session on logout.
func (c *Controller) ClearSession() {
	c.SetSession(nil)
}

// Session returns the active session, or nil.
func (c *Controller) Session() *auth.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SetRange changes the date range. Records are not refetched.
func (c *Controller) SetRange(rng insights.DateRange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rng = rng
}

// Range returns the active date range.
func (c *Controller) Range() insights.DateRange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng
}

// Refresh fetches the record list for the current session and replaces the
// held list wholesale. On failure the held list is emptied and the error
// recorded. Returns ErrStaleFetch when the result arrived after a newer
// request was issued.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	if session == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	records, err := c.src.FetchRecords(ctx, session)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return ErrStaleFetch
	}
	if err != nil {
		if !errors.Is(err, source.ErrFetchFailed) {
			err = errors.Join(source.ErrFetchFailed, err)
		}
		c.records = nil
		c.lastErr = err
		return err
	}
	c.records = records
	c.lastErr = nil
	return nil
}

// Dashboard projects every view from the held records and range.
func (c *Controller) Dashboard() *insights.Dashboard {
	c.mu.Lock()
	records, rng := c.records, c.rng
	c.mu.Unlock()
	return insights.Build(records, rng)
}

// Export renders the CSV artifact for the held records and range, or nil
// when nothing passes the filter.
func (c *Controller) Export() *insights.Artifact {
	c.mu.Lock()
	records, rng := c.records, c.rng
	c.mu.Unlock()
	return insights.Export(records, rng)
}

// Err returns the error from the last applied fetch.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Message returns the user-visible error text, or "".
func (c *Controller) Message() string {
	if c.Err() != nil {
		return source.FetchFailedMessage
	}
	return ""
}
