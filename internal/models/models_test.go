package models

import (
	"encoding/json"
	"testing"
)

func TestAnalysisRecordDefaults(t *testing.T) {
	var r AnalysisRecord
	if r.Label() != "N/A" {
		t.Errorf("Label() = %q, want N/A", r.Label())
	}
	if r.Score() != 0 {
		t.Errorf("Score() = %v, want 0", r.Score())
	}
	if r.GoodCount() != 0 || r.WeakCount() != 0 {
		t.Errorf("counts = %d/%d, want 0/0", r.GoodCount(), r.WeakCount())
	}
	if r.Description() != "N/A" {
		t.Errorf("Description() = %q, want N/A", r.Description())
	}
}

func TestAnalysisRecordDecodesUpstreamJSON(t *testing.T) {
	body := `{
		"resumeId": 7,
		"userId": 3,
		"filename": "cv.pdf",
		"uploadedAt": "2024-02-10T08:30:00",
		"matchScore": 81.5,
		"strongSkills": ["Go, SQL", "Docker"],
		"weakSkills": [],
		"goodSkillsCount": 4,
		"jobDescription": "Backend engineer"
	}`

	var r AnalysisRecord
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.ResumeID != 7 || r.UserID != 3 {
		t.Errorf("ids = %d/%d, want 7/3", r.ResumeID, r.UserID)
	}
	if r.Score() != 81.5 {
		t.Errorf("Score() = %v, want 81.5", r.Score())
	}
	if r.GoodCount() != 4 {
		t.Errorf("GoodCount() = %d, want 4", r.GoodCount())
	}
	if r.WeakSkillsCount != nil {
		t.Errorf("WeakSkillsCount = %v, want nil", *r.WeakSkillsCount)
	}
	if len(r.StrongSkills) != 2 || r.StrongSkills[0] != "Go, SQL" {
		t.Errorf("StrongSkills = %v", r.StrongSkills)
	}
}
