// Package download executes a planned queue of catalog downloads,
// isolating per-task failures and aborting only on fatal session expiry.
package download
