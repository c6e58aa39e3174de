package outcome

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kindleget/kindle-downloader/internal/model"
)

func readRecords(t *testing.T, path string) []model.OutcomeRecord {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer file.Close()

	var records []model.OutcomeRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.OutcomeRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("decode line %q: %v", scanner.Text(), err)
		}
		records = append(records, record)
	}
	return records
}

func TestLog_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outcomes.log")

	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := log.Append(model.OutcomeRecord{Index: 3, Title: "Dune", ErrorKind: "remote:not_found", Message: "resource not found"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Append(model.OutcomeRecord{Index: 7, Title: "Emma", ErrorKind: "network:timeout", Message: "deadline exceeded"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	records := readRecords(t, path)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Title != "Dune" || records[1].Title != "Emma" {
		t.Errorf("records out of order: %+v", records)
	}
	if records[0].RunID == "" || records[0].RunID != records[1].RunID {
		t.Errorf("records should share one run id: %q vs %q", records[0].RunID, records[1].RunID)
	}
	if records[0].Timestamp.IsZero() {
		t.Error("timestamp not stamped")
	}
}

func TestLog_AppendsAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outcomes.log")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Append(model.OutcomeRecord{Index: 1, Title: "First Run"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := second.Append(model.OutcomeRecord{Index: 1, Title: "Second Run"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	second.Close()

	records := readRecords(t, path)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: earlier runs must be preserved", len(records))
	}
	if records[0].RunID == records[1].RunID {
		t.Error("separate runs should carry distinct run ids")
	}
}
