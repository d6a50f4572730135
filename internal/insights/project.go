package insights

import "github.com/shopspring/decimal"

// Dashboard holds every view derived from one filter application.
type Dashboard struct {
	DateRange    RangeView     `json:"date_range"`
	Summary      Summary       `json:"summary"`
	MatchScores  TimeSeries    `json:"match_scores"`
	SkillCounts  GroupedCounts `json:"skill_counts"`
	StrongSkills Distribution  `json:"strong_skills"`
	WeakSkills   Distribution  `json:"weak_skills"`
	Table        []TableRow    `json:"table"`
}

// RangeView echoes the applied range. Empty strings are unset boundaries.
type RangeView struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// Summary holds the headline numbers.
type Summary struct {
	TotalRecords         int     `json:"total_records"`
	FilteredRecords      int     `json:"filtered_records"`
	AvgMatchScore        float64 `json:"avg_match_score"`
	AvgMatchScoreRounded int64   `json:"avg_match_score_rounded"`
	StrongSkillCount     int     `json:"strong_skill_count"`
	WeakSkillCount       int     `json:"weak_skill_count"`
}

// TimeSeries is match score per filtered record, labelled by filename.
type TimeSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// GroupedCounts is goodSkillsCount and weakSkillsCount per filtered record.
type GroupedCounts struct {
	Labels []string `json:"labels"`
	Strong []int    `json:"strong"`
	Weak   []int    `json:"weak"`
}

// Distribution is one slice per distinct token, ordered by count descending
// then token ascending.
type Distribution struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
	Colors []string `json:"colors"`
}

// TableRow is one filtered record as shown in the records table.
type TableRow struct {
	ResumeID        int64   `json:"resume_id"`
	Resume          string  `json:"resume"`
	UploadedAt      string  `json:"uploaded_at"`
	MatchScore      float64 `json:"match_score"`
	GoodSkillsCount *int    `json:"good_skills_count"`
	WeakSkillsCount *int    `json:"weak_skills_count"`
	JobDescription  string  `json:"job_description"`
}

// Build filters records by rng and projects every view from the result.
func Build(records []Record, rng DateRange) *Dashboard {
	filtered := Filter(records, rng)
	strong := Tokenize(StrongLists(filtered))
	weak := Tokenize(WeakLists(filtered))

	return &Dashboard{
		DateRange:    RangeView{Start: rng.startString(), End: rng.endString()},
		Summary:      Summarize(len(records), filtered, strong, weak),
		MatchScores:  ProjectMatchScores(filtered),
		SkillCounts:  ProjectSkillCounts(filtered),
		StrongSkills: ProjectDistribution(CountFrequencies(strong)),
		WeakSkills:   ProjectDistribution(CountFrequencies(weak)),
		Table:        ProjectTable(filtered),
	}
}

// Summarize computes the summary. total is the unfiltered record count.
func Summarize(total int, filtered []Record, strong, weak []string) Summary {
	s := Summary{
		TotalRecords:     total,
		FilteredRecords:  len(filtered),
		StrongSkillCount: len(strong),
		WeakSkillCount:   len(weak),
	}
	if len(filtered) == 0 {
		return s
	}
	sum := decimal.Zero
	for _, r := range filtered {
		sum = sum.Add(decimal.NewFromFloat(r.Score()))
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(filtered))))
	s.AvgMatchScore = avg.InexactFloat64()
	s.AvgMatchScoreRounded = avg.Round(0).IntPart()
	return s
}

// ProjectMatchScores builds the score series.
func ProjectMatchScores(filtered []Record) TimeSeries {
	ts := TimeSeries{
		Labels: make([]string, len(filtered)),
		Values: make([]float64, len(filtered)),
	}
	for i, r := range filtered {
		ts.Labels[i] = r.Label()
		ts.Values[i] = r.Score()
	}
	return ts
}

// ProjectSkillCounts builds the grouped bar series from the reported counts.
// These are not reconciled with the tokenized list lengths.
func ProjectSkillCounts(filtered []Record) GroupedCounts {
	gc := GroupedCounts{
		Labels: make([]string, len(filtered)),
		Strong: make([]int, len(filtered)),
		Weak:   make([]int, len(filtered)),
	}
	for i, r := range filtered {
		gc.Labels[i] = r.Label()
		gc.Strong[i] = r.GoodCount()
		gc.Weak[i] = r.WeakCount()
	}
	return gc
}

// ProjectDistribution builds a distribution with one entry per distinct token.
func ProjectDistribution(counts map[string]int) Distribution {
	freqs := SortedFrequencies(counts)
	d := Distribution{
		Labels: make([]string, len(freqs)),
		Values: make([]int, len(freqs)),
		Colors: make([]string, len(freqs)),
	}
	for i, f := range freqs {
		d.Labels[i] = f.Token
		d.Values[i] = f.Count
		d.Colors[i] = Color(f.Token)
	}
	return d
}

// ProjectTable builds the records table.
func ProjectTable(filtered []Record) []TableRow {
	rows := make([]TableRow, len(filtered))
	for i, r := range filtered {
		rows[i] = TableRow{
			ResumeID:        r.ResumeID,
			Resume:          r.Label(),
			UploadedAt:      FormatUploadedAt(r.UploadedAt),
			MatchScore:      r.Score(),
			GoodSkillsCount: r.GoodSkillsCount,
			WeakSkillsCount: r.WeakSkillsCount,
			JobDescription:  r.Description(),
		}
	}
	return rows
}
