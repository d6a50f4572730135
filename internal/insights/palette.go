package insights

import "github.com/cespare/xxhash/v2"

// palette is the fixed set of distribution slice colors.
var palette = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#14B8A6",
	"#6366F1", "#A855F7", "#22C55E", "#E11D48", "#0EA5E9",
	"#FACC15",
}

// Color returns the display color for a token. The same token always maps to
// the same color.
func Color(token string) string {
	return palette[xxhash.Sum64String(token)%uint64(len(palette))]
}
