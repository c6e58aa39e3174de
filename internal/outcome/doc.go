// Package outcome records per-task download failures in an append-only
// JSON-lines log, so failed titles survive across runs and can be
// retried later.
package outcome
