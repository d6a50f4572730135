package insights

import "github.com/ConfabulousDev/resume-insights/internal/models"

// Record is the pipeline's input type.
type Record = models.AnalysisRecord

// Filter returns the records whose upload date falls within rng, in their
// original order. The input slice is never modified. Records with an
// unparseable uploadedAt are dropped when rng is bounded and kept otherwise.
func Filter(records []Record, rng DateRange) []Record {
	out := make([]Record, 0, len(records))
	if !rng.IsBounded() {
		return append(out, records...)
	}
	for _, r := range records {
		t, ok := ParseUploadedAt(r.UploadedAt)
		if !ok {
			continue
		}
		if rng.Contains(t) {
			out = append(out, r)
		}
	}
	return out
}
