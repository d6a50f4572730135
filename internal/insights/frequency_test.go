package insights

import (
	"reflect"
	"testing"
)

func TestCountFrequencies(t *testing.T) {
	got := CountFrequencies([]string{"Java", "Java", "SQL"})
	want := map[string]int{"Java": 2, "SQL": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CountFrequencies = %v, want %v", got, want)
	}

	if got := CountFrequencies(nil); len(got) != 0 {
		t.Errorf("CountFrequencies(nil) = %v, want empty", got)
	}
}

func TestSortedFrequencies(t *testing.T) {
	counts := map[string]int{"SQL": 1, "Java": 2, "Go": 2, "AWS": 1}
	got := SortedFrequencies(counts)
	want := []Frequency{
		{Token: "Go", Count: 2},
		{Token: "Java", Count: 2},
		{Token: "AWS", Count: 1},
		{Token: "SQL", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortedFrequencies = %v, want %v", got, want)
	}

	// Repeated calls must agree regardless of map iteration order.
	for i := 0; i < 20; i++ {
		if again := SortedFrequencies(counts); !reflect.DeepEqual(again, want) {
			t.Fatalf("run %d: SortedFrequencies = %v, want %v", i, again, want)
		}
	}
}
