// Package naming derives safe on-disk file names for catalog entries.
package naming
