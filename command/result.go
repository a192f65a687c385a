package command

import (
	"os"
	"syscall"
	"time"
)

// Result holds the outcome of a completed subprocess. Immutable once
// produced by a Wait or Communicate call.
type Result struct {
	// ExitCode is the process exit code. -1 when the process was
	// terminated by a signal.
	ExitCode int
	// Signal names the terminating signal, empty when the process
	// exited normally.
	Signal string
	// Stdout is the captured standard output. Filled by Communicate;
	// nil when the caller read the stream directly.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// Truncated is set when an output cap stopped capture early.
	Truncated bool
	// Duration is how long the process ran.
	Duration time.Duration
}

// Success reports whether the process exited normally with code zero.
func (r *Result) Success() bool {
	return r.Signal == "" && r.ExitCode == 0
}

// ResultFromState builds a Result from a reaped process state.
func ResultFromState(state *os.ProcessState, duration time.Duration) *Result {
	r := &Result{
		ExitCode: state.ExitCode(),
		Duration: duration,
	}
	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		r.ExitCode = -1
		r.Signal = status.Signal().String()
	}
	return r
}
