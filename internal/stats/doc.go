// Package stats renders a markdown summary of the account's catalog,
// suitable for embedding in a GitHub profile readme.
package stats
