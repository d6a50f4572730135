package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ConfabulousDev/resume-insights/internal/insights"
	"github.com/ConfabulousDev/resume-insights/internal/models"
)

// Validation limits for ingested records
const (
	MaxFilenameLength       = 512
	MaxJobDescriptionLength = 20000
	MaxSkillEntries         = 200
	MaxSkillEntryLength     = 1000
	MinMatchScore           = 0
	MaxMatchScore           = 100
)

// ValidateRecord checks an ingested analysis record.
// Returns the first problem found.
func ValidateRecord(rec *models.AnalysisRecord) error {
	if rec == nil {
		return fmt.Errorf("record is required")
	}
	if rec.UserID <= 0 {
		return fmt.Errorf("userId must be a positive integer")
	}
	if rec.ResumeID <= 0 {
		return fmt.Errorf("resumeId must be a positive integer")
	}
	if _, ok := insights.ParseUploadedAt(rec.UploadedAt); !ok {
		return fmt.Errorf("uploadedAt must be an ISO 8601 timestamp")
	}
	if rec.MatchScore != nil {
		if s := *rec.MatchScore; math.IsNaN(s) || s < MinMatchScore || s > MaxMatchScore {
			return fmt.Errorf("matchScore must be between %d and %d", MinMatchScore, MaxMatchScore)
		}
	}
	if err := validateText("filename", rec.Filename, MaxFilenameLength); err != nil {
		return err
	}
	if err := validateText("jobDescription", rec.JobDescription, MaxJobDescriptionLength); err != nil {
		return err
	}
	if err := validateSkills("strongSkills", rec.StrongSkills); err != nil {
		return err
	}
	if err := validateSkills("weakSkills", rec.WeakSkills); err != nil {
		return err
	}
	if err := validateCount("goodSkillsCount", rec.GoodSkillsCount); err != nil {
		return err
	}
	return validateCount("weakSkillsCount", rec.WeakSkillsCount)
}

func validateCount(field string, v *int) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("%s must not be negative", field)
	}
	return nil
}

func validateText(field, value string, max int) error {
	if len(value) > max {
		return fmt.Errorf("%s must be at most %d bytes", field, max)
	}
	if !utf8.ValidString(value) {
		return fmt.Errorf("%s must be valid UTF-8", field)
	}
	// Postgres text columns cannot hold NUL
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("%s must not contain NUL characters", field)
	}
	return nil
}

func validateSkills(field string, entries []string) error {
	if len(entries) > MaxSkillEntries {
		return fmt.Errorf("%s must have at most %d entries", field, MaxSkillEntries)
	}
	for _, e := range entries {
		if err := validateText(field, e, MaxSkillEntryLength); err != nil {
			return err
		}
	}
	return nil
}
