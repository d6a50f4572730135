// Package models holds the record types shared by the analytics pipeline,
// its sources and its HTTP surface.
package models

// NoLabel is shown wherever a record has no filename or job description.
const NoLabel = "N/A"

// AnalysisRecord is one resume review as produced by the analytics service.
// Records are treated as immutable once fetched.
type AnalysisRecord struct {
	ID              int64    `json:"id,omitempty"`
	ResumeID        int64    `json:"resumeId"`
	UserID          int64    `json:"userId"`
	Filename        string   `json:"filename,omitempty"`
	UploadedAt      string   `json:"uploadedAt"`
	MatchScore      *float64 `json:"matchScore,omitempty"`
	StrongSkills    []string `json:"strongSkills"`
	WeakSkills      []string `json:"weakSkills"`
	GoodSkillsCount *int     `json:"goodSkillsCount,omitempty"`
	WeakSkillsCount *int     `json:"weakSkillsCount,omitempty"`
	JobDescription  string   `json:"jobDescription,omitempty"`
}

// Label returns the filename, or NoLabel when absent.
func (r AnalysisRecord) Label() string {
	if r.Filename == "" {
		return NoLabel
	}
	return r.Filename
}

// Score returns the match score with a missing value treated as 0.
func (r AnalysisRecord) Score() float64 {
	if r.MatchScore == nil {
		return 0
	}
	return *r.MatchScore
}

// GoodCount returns goodSkillsCount with a missing value treated as 0.
func (r AnalysisRecord) GoodCount() int {
	if r.GoodSkillsCount == nil {
		return 0
	}
	return *r.GoodSkillsCount
}

// WeakCount returns weakSkillsCount with a missing value treated as 0.
func (r AnalysisRecord) WeakCount() int {
	if r.WeakSkillsCount == nil {
		return 0
	}
	return *r.WeakSkillsCount
}

// Description returns the job description, or NoLabel when absent.
func (r AnalysisRecord) Description() string {
	if r.JobDescription == "" {
		return NoLabel
	}
	return r.JobDescription
}

// Float returns a pointer to v. Handy for building records in tests and fixtures.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
