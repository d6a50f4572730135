package insights

import (
	"strconv"
	"strings"
)

const (
	ExportFilename    = "resume_analytics.csv"
	ExportContentType = "text/csv"
)

var exportHeader = []string{"Resume", "Match Score", "Strong Skills", "Weak Skills"}

// Artifact is a downloadable file.
type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Export renders the filtered records as CSV. Fields are written unquoted and
// multi-value fields are the raw entries joined with ", ". Returns nil when
// nothing passes the filter.
func Export(records []Record, rng DateRange) *Artifact {
	filtered := Filter(records, rng)
	if len(filtered) == 0 {
		return nil
	}
	lines := make([]string, 0, len(filtered)+1)
	lines = append(lines, strings.Join(exportHeader, ","))
	for _, r := range filtered {
		lines = append(lines, strings.Join([]string{
			r.Label(),
			strconv.FormatFloat(r.Score(), 'f', -1, 64),
			strings.Join(r.StrongSkills, ", "),
			strings.Join(r.WeakSkills, ", "),
		}, ","))
	}
	return &Artifact{
		Filename:    ExportFilename,
		ContentType: ExportContentType,
		Body:        []byte(strings.Join(lines, "\n")),
	}
}
