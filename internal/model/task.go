package model

import (
	"path/filepath"
	"time"
)

// DownloadTask is one planned download at its catalog position. Index is
// stable across runs against the same catalog snapshot and is what
// --resume-from addresses; resuming assumes the remote catalog has not
// shrunk or reordered since the interrupted run.
type DownloadTask struct {
	Index      int    // 1-based position matching the printed listing
	Entry      CatalogEntry
	TargetPath string // output path without extension; the executor appends
	// the extension reported by the remote payload
	Status     TaskStatus
	LastError  string
	StartedAt  time.Time
	FinishedAt time.Time
}

// DisplayName returns the target file name, falling back to the entry title.
func (t *DownloadTask) DisplayName() string {
	if t.TargetPath != "" {
		return filepath.Base(t.TargetPath)
	}
	return t.Entry.DisplayTitle()
}

// RunSummary reports the outcome of a whole batch.
type RunSummary struct {
	Succeeded int
	Failed    int
	Skipped   int

	// Aborted is set when a fatal session expiry cut the run short;
	// AbortedAt is the index of the task that triggered it.
	Aborted   bool
	AbortedAt int
}

// Total returns the number of tasks accounted for in the summary.
func (s RunSummary) Total() int {
	return s.Succeeded + s.Failed + s.Skipped
}
