package stats

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/kindleget/kindle-downloader/internal/model"
)

const (
	sectionName = "my_kindle"

	// emptySection seeds a fresh stats file so the marker replacement
	// below always has a block to fill.
	emptySection = "<!--START_SECTION:" + sectionName + "-->\n<!--END_SECTION:" + sectionName + "-->\n"

	tableHead = "| ID | Title | Authors | Acquired |\n| ---- | ---- | ---- | ---- |\n"
)

var sectionRe = regexp.MustCompile(
	`(?s)(<!--START_SECTION:` + sectionName + `-->\n)(.*?)(<!--END_SECTION:` + sectionName + `-->)`)

// Render produces the markdown block for the given catalog listings.
// Listings arrive newest first, so the last entry is the oldest
// acquisition. itemURL is a format string linking an item id on the
// storefront; when empty, titles are rendered plain.
func Render(books, pdocs []model.CatalogEntry, itemURL string) string {
	var b strings.Builder
	b.WriteString("## My Kindle Stats\n")

	if len(books) > 0 || len(pdocs) > 0 {
		fmt.Fprintf(&b, "- I bought %d books\n", len(books))
		fmt.Fprintf(&b, "- I pushed %d docs\n", len(pdocs))
		if oldest := oldestOf(books); oldest != nil {
			fmt.Fprintf(&b, "- My first book is %s, bought on %s\n", oldest.DisplayTitle(), oldest.AcquiredAt)
		}
		if oldest := oldestOf(pdocs); oldest != nil {
			fmt.Fprintf(&b, "- My first doc is %s, pushed on %s\n", oldest.DisplayTitle(), oldest.AcquiredAt)
		}
		b.WriteString("\n")
	}

	b.WriteString(tableHead)
	for i, entry := range books {
		title := escapeCell(entry.DisplayTitle())
		if itemURL != "" && entry.ID != "" {
			title = fmt.Sprintf("[%s](%s)", title, fmt.Sprintf(itemURL, entry.ID))
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
			i+1, title, escapeCell(entry.Authors), entry.AcquiredAt)
	}
	return b.String()
}

// WriteReadme replaces the stats section of the markdown file at path,
// creating the file with bare markers when it does not exist. Content
// outside the markers is preserved.
func WriteReadme(path string, books, pdocs []model.CatalogEntry, itemURL string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(emptySection), 0644); err != nil {
			return fmt.Errorf("create stats file: %w", err)
		}
	}

	current, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read stats file: %w", err)
	}
	loc := sectionRe.FindSubmatchIndex(current)
	if loc == nil {
		return fmt.Errorf("stats file %s has no %s section markers", path, sectionName)
	}

	// Splice the rendered block between the markers; titles may contain
	// characters regexp replacement syntax would mangle.
	section := Render(books, pdocs, itemURL)
	var updated []byte
	updated = append(updated, current[:loc[3]]...)
	updated = append(updated, section...)
	updated = append(updated, current[loc[6]:]...)

	if err := os.WriteFile(path, updated, 0644); err != nil {
		return fmt.Errorf("write stats file: %w", err)
	}
	return nil
}

func oldestOf(entries []model.CatalogEntry) *model.CatalogEntry {
	if len(entries) == 0 {
		return nil
	}
	return &entries[len(entries)-1]
}

// escapeCell keeps titles with pipes from breaking the table.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
