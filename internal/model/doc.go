package model

// Package model defines domain data structures used across the app: catalog
// entries, download tasks, outcome records, and status enums. Catalog entries
// are immutable once produced by the catalog client; task state is mutated
// only by the download executor.
