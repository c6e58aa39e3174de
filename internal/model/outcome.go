package model

import "time"

// OutcomeRecord is one append-only failure record. Records are written by the
// executor and read by the operator, never by the engine itself.
type OutcomeRecord struct {
	RunID     string    `json:"run_id"`
	Index     int       `json:"index"`
	Title     string    `json:"title"`
	ErrorKind string    `json:"error_kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
