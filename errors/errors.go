package errors

import (
	"errors"
	"fmt"
)

// AppError is the unified error type returned by every commander package.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// AsAppError extracts an *AppError from err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code ErrorCode) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// --- Common Error Constructors ---

// InvalidCommand creates a new AppError for a malformed command descriptor.
func InvalidCommand(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidCommand, Message: fmt.Sprintf("Invalid command: %s", reason),
		Retryable: false,
	}
}

// StreamSetupFailed creates a new AppError for failed stream allocation.
// Any streams already allocated for the spawn attempt must be released
// by the caller before surfacing this error.
func StreamSetupFailed(stream string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStreamSetupFailed, Message: fmt.Sprintf("Could not set up the %s stream.", stream),
		Retryable: true,
		Details:   map[string]any{"stream": stream},
		Cause:     cause,
	}
}

// SpawnFailed creates a new AppError for a process that could not be created.
func SpawnFailed(binary string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSpawnFailed, Message: fmt.Sprintf("Could not spawn %q.", binary),
		Retryable: true,
		Details:   map[string]any{"binary": binary},
		Cause:     cause,
	}
}

// WriteFailed creates a new AppError for a failed stdin write, typically
// because the child exited and the pipe broke.
func WriteFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeWriteFailed, Message: "Write to child stdin failed.",
		Retryable: false, Cause: cause,
	}
}

// ReadFailed creates a new AppError for a failed output read.
func ReadFailed(stream string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeReadFailed, Message: fmt.Sprintf("Read from child %s failed.", stream),
		Retryable: false,
		Details:   map[string]any{"stream": stream},
		Cause:     cause,
	}
}

// CommunicateFailed creates a new AppError for an exchange that could not complete.
func CommunicateFailed(reason string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCommunicateFailed, Message: fmt.Sprintf("Communicate failed: %s", reason),
		Retryable: false, Cause: cause,
	}
}

// Timeout creates a new AppError for an operation that exceeded its deadline.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The operation took too long.",
		Retryable: true,
		Details:   map[string]any{"operation": operation},
	}
}

// AlreadyWaited creates a new AppError for a handle whose exit status was
// already reaped. This is a programming error, fatal to that call only.
func AlreadyWaited() *AppError {
	return &AppError{
		Code: ErrCodeAlreadyWaited, Message: "The process has already been waited on.",
		Retryable: false,
	}
}

// PtyUnavailable creates a new AppError for a failed pseudo-terminal allocation.
func PtyUnavailable(cause error) *AppError {
	return &AppError{
		Code: ErrCodePtyUnavailable, Message: "Could not allocate a pseudo-terminal.",
		Retryable: true, Cause: cause,
	}
}

// CredentialRejected creates a new AppError for a refused credential.
// Reported to the caller, never retried automatically.
func CredentialRejected() *AppError {
	return &AppError{
		Code: ErrCodeCredentialRejected, Message: "The elevation wrapper rejected the credential.",
		Retryable: false,
	}
}

// PromptTimeout creates a new AppError for a privileged flow that saw
// neither a prompt nor any output within the read window.
func PromptTimeout(window string) *AppError {
	return &AppError{
		Code: ErrCodePromptTimeout, Message: "No prompt or output within the read window.",
		Retryable: false,
		Details:   map[string]any{"window": window},
	}
}

// Internal creates a new AppError for an unexpected library error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Retryable: false, Cause: cause,
	}
}
