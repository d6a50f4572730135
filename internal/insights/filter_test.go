package insights

import (
	"reflect"
	"testing"
	"time"
)

func recordsOn(dates ...string) []Record {
	out := make([]Record, len(dates))
	for i, d := range dates {
		out[i] = Record{ResumeID: int64(i + 1), UploadedAt: d}
	}
	return out
}

func mustRange(t *testing.T, start, end string) DateRange {
	t.Helper()
	rng, err := ParseDateRange(start, end)
	if err != nil {
		t.Fatalf("ParseDateRange(%q, %q): %v", start, end, err)
	}
	return rng
}

func resumeIDs(records []Record) []int64 {
	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.ResumeID
	}
	return ids
}

func TestFilterFebruary(t *testing.T) {
	records := recordsOn("2024-01-01", "2024-02-01", "2024-03-01")
	got := Filter(records, mustRange(t, "2024-02-01", "2024-02-28"))
	if !reflect.DeepEqual(resumeIDs(got), []int64{2}) {
		t.Errorf("Filter = %v, want [2]", resumeIDs(got))
	}
}

func TestFilterBoundaries(t *testing.T) {
	records := recordsOn(
		"2024-02-01T00:00:00",
		"2024-02-28T23:59:59",
		"2024-02-29T00:00:00Z",
		"2024-01-31T23:59:59.999",
		"2024-02-10T09:30",
	)
	tests := []struct {
		name       string
		start, end string
		want       []int64
	}{
		{"inclusive both ends", "2024-02-01", "2024-02-28", []int64{1, 2, 5}},
		{"start only", "2024-02-28", "", []int64{2, 3}},
		{"end only", "", "2024-01-31", []int64{4}},
		{"unbounded", "", "", []int64{1, 2, 3, 4, 5}},
		{"minute precision", "2024-02-10", "2024-02-10", []int64{5}},
		{"inverted range", "2024-03-01", "2024-02-01", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resumeIDs(Filter(records, mustRange(t, tt.start, tt.end)))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterMalformedDates(t *testing.T) {
	records := recordsOn("2024-02-10", "not a date", "")

	unbounded := Filter(records, DateRange{})
	if len(unbounded) != 3 {
		t.Errorf("unbounded Filter kept %d records, want 3", len(unbounded))
	}

	bounded := Filter(records, mustRange(t, "2024-01-01", ""))
	if !reflect.DeepEqual(resumeIDs(bounded), []int64{1}) {
		t.Errorf("bounded Filter = %v, want [1]", resumeIDs(bounded))
	}
}

func TestFilterIdempotent(t *testing.T) {
	records := recordsOn("2024-01-01", "garbage", "2024-02-15T10:00:00+02:00", "2024-02-20", "2024-05-05")
	ranges := []DateRange{
		{},
		mustRange(t, "2024-02-01", "2024-02-28"),
		mustRange(t, "2024-02-16", ""),
		mustRange(t, "", "2024-01-01"),
	}
	for _, rng := range ranges {
		once := Filter(records, rng)
		twice := Filter(once, rng)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("Filter not idempotent for %+v: %v vs %v", rng, resumeIDs(once), resumeIDs(twice))
		}
	}
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	records := recordsOn("2024-01-01", "2024-02-01")
	before := append([]Record(nil), records...)
	out := Filter(records, mustRange(t, "2024-02-01", ""))
	if len(out) > 0 {
		out[0].ResumeID = 99
	}
	if !reflect.DeepEqual(records, before) {
		t.Errorf("input modified: %v", records)
	}
}

func TestParseDateRangeRejectsBadInput(t *testing.T) {
	if _, err := ParseDateRange("02/01/2024", ""); err == nil {
		t.Error("expected error for bad start date")
	}
	if _, err := ParseDateRange("", "2024-13-01"); err == nil {
		t.Error("expected error for bad end date")
	}
}

func TestParseUploadedAt(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-02-10", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"2024-02-10T08:30:00", time.Date(2024, 2, 10, 8, 30, 0, 0, time.UTC), true},
		{"2024-02-10T08:30:00.123456", time.Date(2024, 2, 10, 8, 30, 0, 123456000, time.UTC), true},
		{"2024-02-10T23:30:00-02:00", time.Date(2024, 2, 11, 1, 30, 0, 0, time.UTC), true},
		{"2024-02-10 08:30:00", time.Date(2024, 2, 10, 8, 30, 0, 0, time.UTC), true},
		{"2024-02-10T09:30", time.Date(2024, 2, 10, 9, 30, 0, 0, time.UTC), true},
		{"2024-02-10 09:30", time.Date(2024, 2, 10, 9, 30, 0, 0, time.UTC), true},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseUploadedAt(tt.in)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("ParseUploadedAt(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
