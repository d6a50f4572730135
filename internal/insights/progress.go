package insights

import (
	"sort"
	"time"
)

// Category says which list a token came from.
type Category string

const (
	CategoryStrong Category = "strong"
	CategoryWeak   Category = "weak"
)

// ProgressPoint is one sighting of a skill in one upload.
type ProgressPoint struct {
	ResumeID   int64    `json:"resume_id"`
	UploadedAt string   `json:"uploaded_at"`
	Category   Category `json:"category"`
}

// SkillTrend is the upload-ordered history of one skill.
type SkillTrend struct {
	Skill  string          `json:"skill"`
	Points []ProgressPoint `json:"points"`
}

// SortByUpload returns a copy of records ordered by uploadedAt ascending.
// Records with an unparseable timestamp go last, in their original order.
func SortByUpload(records []Record) []Record {
	type keyed struct {
		rec Record
		at  time.Time
		ok  bool
	}
	ks := make([]keyed, len(records))
	for i, r := range records {
		t, ok := ParseUploadedAt(r.UploadedAt)
		ks[i] = keyed{rec: r, at: t, ok: ok}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].ok != ks[j].ok {
			return ks[i].ok
		}
		return ks[i].at.Before(ks[j].at)
	})
	out := make([]Record, len(ks))
	for i, k := range ks {
		out[i] = k.rec
	}
	return out
}

// Progress tracks every skill across uploads. The result is sorted by skill.
// A token occurring more than once in the same list of one upload yields a
// single point.
func Progress(records []Record) []SkillTrend {
	bySkill := map[string][]ProgressPoint{}
	for _, r := range SortByUpload(records) {
		add := func(lists [][]string, cat Category) {
			seen := map[string]bool{}
			for _, tok := range Tokenize(lists) {
				if seen[tok] {
					continue
				}
				seen[tok] = true
				bySkill[tok] = append(bySkill[tok], ProgressPoint{
					ResumeID:   r.ResumeID,
					UploadedAt: r.UploadedAt,
					Category:   cat,
				})
			}
		}
		add([][]string{r.StrongSkills}, CategoryStrong)
		add([][]string{r.WeakSkills}, CategoryWeak)
	}

	trends := make([]SkillTrend, 0, len(bySkill))
	for skill, points := range bySkill {
		trends = append(trends, SkillTrend{Skill: skill, Points: points})
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Skill < trends[j].Skill })
	return trends
}
