package planner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kindleget/kindle-downloader/internal/model"
)

// Plan builds one task per entry in catalog order. Indices are 1-based to
// match the printed listing. Entries before resumeFrom become skipped
// tasks rather than disappearing, so run summaries still account for
// them. A non-empty selection overrides resumeFrom entirely.
func Plan(entries []model.CatalogEntry, names []string, outDir string, resumeFrom int, selection []int) ([]model.DownloadTask, error) {
	if len(names) != len(entries) {
		return nil, fmt.Errorf("planner: %d names for %d entries", len(names), len(entries))
	}

	wanted, err := selectionSet(selection, len(entries))
	if err != nil {
		return nil, err
	}

	tasks := make([]model.DownloadTask, len(entries))
	for i, entry := range entries {
		index := i + 1
		status := model.TaskStatusPending
		switch {
		case wanted != nil:
			if !wanted[index] {
				status = model.TaskStatusSkipped
			}
		case index < resumeFrom:
			status = model.TaskStatusSkipped
		}

		tasks[i] = model.DownloadTask{
			Index:      index,
			Entry:      entry,
			TargetPath: filepath.Join(outDir, names[i]),
			Status:     status,
		}
	}
	return tasks, nil
}

// selectionSet validates selection against the listing length and turns
// it into a membership set. A nil result means no selection was given.
func selectionSet(selection []int, total int) (map[int]bool, error) {
	if len(selection) == 0 {
		return nil, nil
	}
	wanted := make(map[int]bool, len(selection))
	for _, index := range selection {
		if index < 1 || index > total {
			return nil, fmt.Errorf("planner: selection index %d is outside 1..%d", index, total)
		}
		wanted[index] = true
	}
	return wanted, nil
}

// ParseSelection reads a whitespace-separated list of 1-based indices and
// colon ranges, e.g. "4 5 10:12 15". Ranges are inclusive on both ends.
func ParseSelection(input string) ([]int, error) {
	seen := make(map[int]bool)
	for _, token := range strings.Fields(input) {
		lo, hi, err := parseToken(token)
		if err != nil {
			return nil, err
		}
		for i := lo; i <= hi; i++ {
			seen[i] = true
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("planner: empty selection")
	}

	indices := make([]int, 0, len(seen))
	for i := range seen {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices, nil
}

func parseToken(token string) (int, int, error) {
	if before, after, ok := strings.Cut(token, ":"); ok {
		start, err := parseIndex(before)
		if err != nil {
			return 0, 0, err
		}
		end, err := parseIndex(after)
		if err != nil {
			return 0, 0, err
		}
		if end < start {
			return 0, 0, fmt.Errorf("planner: range %q runs backwards", token)
		}
		return start, end, nil
	}

	index, err := parseIndex(token)
	if err != nil {
		return 0, 0, err
	}
	return index, index, nil
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil || index < 1 {
		return 0, fmt.Errorf("planner: %q is not a positive index", s)
	}
	return index, nil
}
