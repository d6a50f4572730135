package insights

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the boundary and table date format.
const DateLayout = "2006-01-02"

// uploadedAtLayouts are tried in order. Values without a zone are taken as UTC.
var uploadedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	DateLayout,
}

// ParseUploadedAt parses an ISO 8601 upload timestamp.
func ParseUploadedAt(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range uploadedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatUploadedAt renders the upload date as YYYY-MM-DD, or returns the raw
// value when it cannot be parsed.
func FormatUploadedAt(s string) string {
	t, ok := ParseUploadedAt(s)
	if !ok {
		return s
	}
	return t.Format(DateLayout)
}

// DateRange is an inclusive calendar-date range. A zero boundary is unset.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses YYYY-MM-DD boundaries. Empty strings leave the
// boundary unset.
func ParseDateRange(start, end string) (DateRange, error) {
	var rng DateRange
	if start != "" {
		t, err := time.Parse(DateLayout, start)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid start date %q: %w", start, err)
		}
		rng.Start = t
	}
	if end != "" {
		t, err := time.Parse(DateLayout, end)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
		rng.End = t
	}
	return rng, nil
}

// IsBounded reports whether either boundary is set.
func (r DateRange) IsBounded() bool {
	return !r.Start.IsZero() || !r.End.IsZero()
}

// Contains reports whether the UTC calendar date of t lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	day := truncateDay(t)
	if !r.Start.IsZero() && day.Before(truncateDay(r.Start)) {
		return false
	}
	if !r.End.IsZero() && day.After(truncateDay(r.End)) {
		return false
	}
	return true
}

func (r DateRange) startString() string {
	if r.Start.IsZero() {
		return ""
	}
	return r.Start.Format(DateLayout)
}

func (r DateRange) endString() string {
	if r.End.IsZero() {
		return ""
	}
	return r.End.Format(DateLayout)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
