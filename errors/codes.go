package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Descriptor errors (caller mistakes, never retried)
const (
	// ErrCodeInvalidCommand indicates a malformed command descriptor.
	ErrCodeInvalidCommand ErrorCode = "INVALID_COMMAND"
)

// Spawn-time errors
const (
	// ErrCodeStreamSetupFailed indicates stream plumbing could not be allocated.
	ErrCodeStreamSetupFailed ErrorCode = "STREAM_SETUP_FAILED"
	// ErrCodeSpawnFailed indicates the OS process could not be created.
	ErrCodeSpawnFailed ErrorCode = "SPAWN_FAILED"
	// ErrCodePtyUnavailable indicates a pseudo-terminal could not be allocated.
	ErrCodePtyUnavailable ErrorCode = "PTY_UNAVAILABLE"
)

// Runtime I/O errors
const (
	// ErrCodeWriteFailed indicates a write to the child's stdin failed.
	ErrCodeWriteFailed ErrorCode = "WRITE_FAILED"
	// ErrCodeReadFailed indicates a read from the child's output failed.
	ErrCodeReadFailed ErrorCode = "READ_FAILED"
	// ErrCodeCommunicateFailed indicates the communicate exchange could not complete.
	ErrCodeCommunicateFailed ErrorCode = "COMMUNICATE_FAILED"
	// ErrCodeTimeout indicates an operation exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Lifecycle errors
const (
	// ErrCodeAlreadyWaited indicates the handle's exit status was already reaped.
	ErrCodeAlreadyWaited ErrorCode = "ALREADY_WAITED"
)

// Privileged-flow errors
const (
	// ErrCodeCredentialRejected indicates the elevation wrapper refused the credential.
	ErrCodeCredentialRejected ErrorCode = "CREDENTIAL_REJECTED"
	// ErrCodePromptTimeout indicates no prompt or output arrived within the read window.
	ErrCodePromptTimeout ErrorCode = "PROMPT_TIMEOUT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected library error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeSpawnFailed:       true,
	ErrCodeStreamSetupFailed: true,
	ErrCodePtyUnavailable:    true,
	ErrCodeTimeout:           true,
	ErrCodeInternal:          false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// Retryable here means the same call may succeed later (resource pressure,
// transient timeouts). Caller mistakes and authentication failures are not.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
