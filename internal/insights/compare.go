package insights

import "sort"

// Comparison contrasts the two most recent uploads.
type Comparison struct {
	Latest               *Record  `json:"latest"`
	Previous             *Record  `json:"previous"`
	ScoreDelta           *float64 `json:"score_delta"`
	StrengthsGained      []string `json:"strengths_gained"`
	StrengthsLost        []string `json:"strengths_lost"`
	WeaknessesResolved   []string `json:"weaknesses_resolved"`
	WeaknessesPersisting []string `json:"weaknesses_persisting"`
}

// Latest returns the most recently uploaded record, or nil. Records with an
// unparseable timestamp are only considered when no record has a valid one.
func Latest(records []Record) *Record {
	return CompareLatest(records).Latest
}

// CompareLatest compares the latest upload against the one before it. With
// fewer than two records only Latest is populated.
func CompareLatest(records []Record) Comparison {
	cmp := Comparison{
		StrengthsGained:      []string{},
		StrengthsLost:        []string{},
		WeaknessesResolved:   []string{},
		WeaknessesPersisting: []string{},
	}
	sorted := SortByUpload(records)
	n := countParsed(sorted)
	if n == 0 {
		n = len(sorted)
	}
	if n == 0 {
		return cmp
	}
	latest := sorted[n-1]
	cmp.Latest = &latest
	if n < 2 {
		return cmp
	}
	prev := sorted[n-2]
	cmp.Previous = &prev

	delta := latest.Score() - prev.Score()
	cmp.ScoreDelta = &delta

	latestStrong := tokenSet(latest.StrongSkills)
	prevStrong := tokenSet(prev.StrongSkills)
	latestWeak := tokenSet(latest.WeakSkills)
	prevWeak := tokenSet(prev.WeakSkills)

	cmp.StrengthsGained = difference(latestStrong, prevStrong)
	cmp.StrengthsLost = difference(prevStrong, latestStrong)
	cmp.WeaknessesResolved = difference(prevWeak, latestWeak)
	cmp.WeaknessesPersisting = intersection(prevWeak, latestWeak)
	return cmp
}

// countParsed returns how many leading records of an upload-sorted slice have
// a parseable timestamp.
func countParsed(sorted []Record) int {
	n := 0
	for _, r := range sorted {
		if _, ok := ParseUploadedAt(r.UploadedAt); !ok {
			break
		}
		n++
	}
	return n
}

func tokenSet(list []string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range Tokenize([][]string{list}) {
		set[tok] = true
	}
	return set
}

func difference(a, b map[string]bool) []string {
	out := []string{}
	for tok := range a {
		if !b[tok] {
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}

func intersection(a, b map[string]bool) []string {
	out := []string{}
	for tok := range a {
		if b[tok] {
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}
