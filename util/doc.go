// Package util provides small helpers shared across commander packages:
// environment merging for spawned processes and sanitization of values
// that end up in logs.
package util
