package insights

import "sort"

// Frequency is one token with the number of times it occurred.
type Frequency struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// CountFrequencies maps each token to its occurrence count.
func CountFrequencies(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}
	return counts
}

// SortedFrequencies returns the counts ordered by count descending, then token
// ascending. Map iteration order never leaks into rendered output.
func SortedFrequencies(counts map[string]int) []Frequency {
	out := make([]Frequency, 0, len(counts))
	for tok, n := range counts {
		out = append(out, Frequency{Token: tok, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Token < out[j].Token
	})
	return out
}
