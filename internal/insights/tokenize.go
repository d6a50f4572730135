package insights

import "strings"

// Tokenize flattens free-text skill entries into individual skill tokens.
// Entries may themselves carry comma-separated skills ("Java, SQL"), so all
// entries are joined with "," and re-split. Tokens are trimmed, empty tokens
// dropped, duplicates kept in order.
func Tokenize(lists [][]string) []string {
	tokens := []string{}
	for _, list := range lists {
		for _, entry := range list {
			for _, part := range strings.Split(entry, ",") {
				if tok := strings.TrimSpace(part); tok != "" {
					tokens = append(tokens, tok)
				}
			}
		}
	}
	return tokens
}

// StrongLists returns the strongSkills list of every record, in order.
func StrongLists(records []Record) [][]string {
	lists := make([][]string, len(records))
	for i, r := range records {
		lists[i] = r.StrongSkills
	}
	return lists
}

// WeakLists returns the weakSkills list of every record, in order.
func WeakLists(records []Record) [][]string {
	lists := make([][]string, len(records))
	for i, r := range records {
		lists[i] = r.WeakSkills
	}
	return lists
}
