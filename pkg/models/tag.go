package models

import (
	"hash/fnv"
	"strings"
	"time"
)

// DefaultTagColor is used when no palette color is picked.
const DefaultTagColor = "#6366f1"

// TagColors is the display palette for tags.
var TagColors = []string{
	"#ef4444", // red
	"#f97316", // orange
	"#f59e0b", // amber
	"#84cc16", // lime
	"#22c55e", // green
	"#14b8a6", // teal
	"#06b6d4", // cyan
	"#3b82f6", // blue
	"#6366f1", // indigo
	"#8b5cf6", // violet
	"#a855f7", // purple
	"#ec4899", // pink
}

// Tag is a named label with a cached usage counter. The uniqueness key is the
// normalized name; NoteCount must equal the number of non-permanently-deleted
// local notes referencing that name.
type Tag struct {
	ID        string
	Name      string
	Color     string
	NoteCount int
	CreatedAt time.Time
}

// NormalizeTagName lowercases and trims a tag name. All tag identity checks
// go through this.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeTagSet normalizes every name and removes duplicates and empties,
// preserving first-seen order.
func NormalizeTagSet(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		n := NormalizeTagName(name)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}
	return result
}

// PickTagColor returns a stable palette color for a tag name.
func PickTagColor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(NormalizeTagName(name)))
	return TagColors[int(h.Sum32())%len(TagColors)]
}
