package outcome

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kindleget/kindle-downloader/internal/model"
)

// Log appends failure records to a JSON-lines file. Writes are
// serialized, so parallel workers can share one Log.
type Log struct {
	mu    sync.Mutex
	file  *os.File
	path  string
	runID string
}

// Open opens or creates the log at path in append mode and stamps every
// record written through it with a fresh run identifier.
func Open(path string) (*Log, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open outcome log: %w", err)
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}

	return &Log{file: file, path: path, runID: runID.String()}, nil
}

// Path returns the log's file path for reporting.
func (l *Log) Path() string {
	return l.path
}

// RunID returns the identifier stamped on this run's records.
func (l *Log) RunID() string {
	return l.runID
}

// Append writes one failure record. The run identifier and timestamp are
// filled in here; callers only supply what failed and why.
func (l *Log) Append(record model.OutcomeRecord) error {
	record.RunID = l.runID
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal outcome record: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("append outcome record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
