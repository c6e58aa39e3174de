package platform

// Package platform contains filesystem glue: directory creation, atomic
// file writes, and error classification for local writes.
