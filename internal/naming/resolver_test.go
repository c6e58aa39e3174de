package naming

import (
	"testing"
	"unicode/utf8"

	"github.com/kindleget/kindle-downloader/internal/model"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean title", "A Clean Title", "A Clean Title"},
		{"path separators", `Dungeons/Dragons\Handbook`, "Dungeons_Dragons_Handbook"},
		{"windows reserved", `Why? "Because": <it> is | so*`, "Why_ _Because__ _it_ is _ so_"},
		{"control characters", "tab\there", "tab_here"},
		{"surrounding whitespace", "  padded  ", "padded"},
		{"cjk untouched", "吾輩は猫である", "吾輩は猫である"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		limit    int
		expected string
	}{
		{"short stays", "short", 100, "short"},
		{"exact limit", "12345", 5, "12345"},
		{"cut", "123456789", 5, "12345"},
		{"zero limit disables", "anything at all", 0, "anything at all"},
		{"multibyte rune-safe", "吾輩は猫である", 3, "吾輩は"},
		{"trailing space trimmed", "ab cdef", 3, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.limit); got != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.expected)
			}
		})
	}
}

func TestResolve_LengthBound(t *testing.T) {
	entries := []model.CatalogEntry{
		{ID: "A1", Title: "A very long title that keeps going and going and going and going"},
		{ID: "A2", Title: "吾輩は猫である。名前はまだ無い。どこで生れたかとんと見当がつかぬ。"},
	}

	for _, limit := range []int{5, 10, 30} {
		names := Resolve(entries, Options{CutLength: limit})
		for i, name := range names {
			if utf8.RuneCountInString(name) > limit {
				t.Errorf("limit %d: name %d is %d runes: %q", limit, i, utf8.RuneCountInString(name), name)
			}
		}
	}
}

func TestResolve_Duplicates(t *testing.T) {
	entries := []model.CatalogEntry{
		{ID: "A1", Title: "Dune"},
		{ID: "A2", Title: "Dune"},
		{ID: "A3", Title: "Dune"},
		{ID: "A4", Title: "Emma"},
	}

	names := Resolve(entries, Options{CutLength: 100, ResolveDuplicates: true})
	expected := []string{"Dune", "Dune (2)", "Dune (3)", "Emma"}
	for i, want := range expected {
		if names[i] != want {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want)
		}
	}
}

func TestResolve_DuplicatesOffCollide(t *testing.T) {
	entries := []model.CatalogEntry{
		{ID: "A1", Title: "Dune"},
		{ID: "A2", Title: "Dune"},
	}

	names := Resolve(entries, Options{CutLength: 100})
	if names[0] != names[1] {
		t.Errorf("without duplicate resolution names should collide: %q vs %q", names[0], names[1])
	}
}

func TestResolve_SuffixSurvivesTruncation(t *testing.T) {
	long := "An extremely verbose title well past any sane cut length limit"
	entries := []model.CatalogEntry{
		{ID: "A1", Title: long},
		{ID: "A2", Title: long},
	}

	names := Resolve(entries, Options{CutLength: 10, ResolveDuplicates: true})
	if names[0] == names[1] {
		t.Fatalf("duplicate suffix lost to truncation: %q", names[1])
	}
	if want := names[0] + " (2)"; names[1] != want {
		t.Errorf("names[1] = %q, want %q", names[1], want)
	}
}

func TestResolve_EmptyTitleFallsBackToID(t *testing.T) {
	entries := []model.CatalogEntry{{ID: "B0XYZ", Title: "   "}}

	names := Resolve(entries, Options{CutLength: 100})
	if names[0] != "B0XYZ" {
		t.Errorf("names[0] = %q, want the entry ID", names[0])
	}
}
