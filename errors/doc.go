// Package errors provides unified error handling for commander.
// It implements structured error types with machine-readable codes and
// retryable detection, so callers can distinguish caller mistakes
// (INVALID_COMMAND), transient spawn failures (SPAWN_FAILED), broken-pipe
// conditions (WRITE_FAILED, READ_FAILED) and privileged-flow outcomes
// (CREDENTIAL_REJECTED, PROMPT_TIMEOUT) without string matching.
package errors
