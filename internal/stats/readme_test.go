package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kindleget/kindle-downloader/internal/model"
)

func sample() ([]model.CatalogEntry, []model.CatalogEntry) {
	books := []model.CatalogEntry{
		{ID: "B2", Title: "Newest Book", Authors: "A. Writer", AcquiredAt: "March 1, 2024", Class: model.ItemClassBook},
		{ID: "B1", Title: "Oldest Book", Authors: "B. Writer", AcquiredAt: "June 5, 2019", Class: model.ItemClassBook},
	}
	pdocs := []model.CatalogEntry{
		{ID: "D1", Title: "Pushed Notes", AcquiredAt: "May 2, 2021", Class: model.ItemClassPersonalDocument},
	}
	return books, pdocs
}

func TestRender(t *testing.T) {
	books, pdocs := sample()
	out := Render(books, pdocs, "")

	for _, want := range []string{
		"## My Kindle Stats",
		"- I bought 2 books",
		"- I pushed 1 docs",
		"- My first book is Oldest Book, bought on June 5, 2019",
		"- My first doc is Pushed Notes, pushed on May 2, 2021",
		"| 1 | Newest Book | A. Writer | March 1, 2024 |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered stats missing %q:\n%s", want, out)
		}
	}
}

func TestRender_PipeEscaped(t *testing.T) {
	books := []model.CatalogEntry{{ID: "B1", Title: "Either|Or", AcquiredAt: "2020"}}
	out := Render(books, nil, "")
	if !strings.Contains(out, `Either\|Or`) {
		t.Errorf("pipe not escaped:\n%s", out)
	}
}

func TestRender_LinkedTitles(t *testing.T) {
	books := []model.CatalogEntry{{ID: "B0001", Title: "Dune", AcquiredAt: "2020"}}
	out := Render(books, nil, "https://store.example/dp/%s")
	if !strings.Contains(out, "[Dune](https://store.example/dp/B0001)") {
		t.Errorf("title not linked:\n%s", out)
	}
}

func TestWriteReadme_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my_kindle_stats.md")
	books, pdocs := sample()

	if err := WriteReadme(path, books, pdocs, ""); err != nil {
		t.Fatalf("WriteReadme: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "<!--START_SECTION:my_kindle-->") ||
		!strings.Contains(content, "<!--END_SECTION:my_kindle-->") {
		t.Errorf("markers missing:\n%s", content)
	}
	if !strings.Contains(content, "- I bought 2 books") {
		t.Errorf("stats missing:\n%s", content)
	}
}

func TestWriteReadme_PreservesSurroundings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")
	seed := "# My Profile\n\nintro text\n\n<!--START_SECTION:my_kindle-->\nstale stats\n<!--END_SECTION:my_kindle-->\n\nfooter text\n"
	if err := os.WriteFile(path, []byte(seed), 0644); err != nil {
		t.Fatal(err)
	}

	books, pdocs := sample()
	if err := WriteReadme(path, books, pdocs, ""); err != nil {
		t.Fatalf("WriteReadme: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "# My Profile") || !strings.Contains(content, "footer text") {
		t.Errorf("content outside markers lost:\n%s", content)
	}
	if strings.Contains(content, "stale stats") {
		t.Errorf("old section not replaced:\n%s", content)
	}

	// Idempotent: a second write leaves exactly one section.
	if err := WriteReadme(path, books, pdocs, ""); err != nil {
		t.Fatalf("second WriteReadme: %v", err)
	}
	data, _ = os.ReadFile(path)
	if got := strings.Count(string(data), "## My Kindle Stats"); got != 1 {
		t.Errorf("section rendered %d times after rewrite", got)
	}
}

func TestWriteReadme_MissingMarkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")
	if err := os.WriteFile(path, []byte("no markers here\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteReadme(path, nil, nil, ""); err == nil {
		t.Fatal("expected an error for a file without section markers")
	}
}
