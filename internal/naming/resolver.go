package naming

import (
	"fmt"
	"strings"

	"github.com/kindleget/kindle-downloader/internal/model"
)

// invalidChars are the characters no common filesystem accepts in a name.
const invalidChars = `\/:*?"<>|`

// Options controls how titles become file names.
type Options struct {
	// CutLength caps the name at this many runes. Values below 1 leave
	// names untruncated.
	CutLength int

	// ResolveDuplicates appends " (n)" to repeated names. When off,
	// entries sharing a title resolve to the same name and the later
	// download overwrites the earlier one.
	ResolveDuplicates bool
}

// Sanitize replaces every filesystem-hostile character in name with an
// underscore and trims surrounding whitespace.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if strings.ContainsRune(invalidChars, r) || r < 0x20 {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// Truncate caps name at limit runes. Byte-level slicing would split
// multi-byte titles, so it counts runes.
func Truncate(name string, limit int) string {
	if limit < 1 {
		return name
	}
	runes := []rune(name)
	if len(runes) <= limit {
		return name
	}
	return strings.TrimSpace(string(runes[:limit]))
}

// Resolve maps entries to extension-less file names in entry order.
// Sanitization and truncation run first, then duplicate suffixes, so a
// " (2)" marker never gets cut off the end of a long title.
func Resolve(entries []model.CatalogEntry, opts Options) []string {
	names := make([]string, len(entries))
	seen := make(map[string]int, len(entries))

	for i, entry := range entries {
		name := Truncate(Sanitize(entry.DisplayTitle()), opts.CutLength)
		if name == "" {
			name = entry.ID
		}

		if opts.ResolveDuplicates {
			key := strings.ToLower(name)
			seen[key]++
			if n := seen[key]; n > 1 {
				name = fmt.Sprintf("%s (%d)", name, n)
			}
		}
		names[i] = name
	}
	return names
}
