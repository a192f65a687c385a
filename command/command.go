package command

import (
	"time"

	"github.com/kbukum/commander/util"
	"github.com/kbukum/commander/validation"
)

// StreamMode selects how one of the child's standard streams is wired.
type StreamMode int

const (
	// ModePipe connects the stream to an OS pipe owned by the parent.
	// This is the default for all three streams.
	ModePipe StreamMode = iota
	// ModeInherit shares the parent's own stream with the child.
	ModeInherit
	// ModeNull redirects the stream to the null device.
	ModeNull
	// ModePty binds the stream to a pseudo-terminal pair. Valid only for
	// the privileged-execution flow, where stdin and stdout share one pty.
	ModePty
)

// String returns a human-readable mode name.
func (m StreamMode) String() string {
	switch m {
	case ModePipe:
		return "pipe"
	case ModeInherit:
		return "inherit"
	case ModeNull:
		return "null"
	case ModePty:
		return "pty"
	default:
		return "unknown"
	}
}

// Descriptor is an immutable specification of a process to spawn.
// Build one with New(...).Build(); a Descriptor is consumed by exactly
// one spawn call.
type Descriptor struct {
	program    string
	args       []string
	env        map[string]string
	clearEnv   bool
	dir        string
	stdinMode  StreamMode
	stdoutMode StreamMode
	stderrMode StreamMode

	// GracePeriod is how long termination waits after SIGTERM before
	// SIGKILL. Zero means the 5 second default.
	gracePeriod time.Duration
}

// Program returns the program path.
func (d *Descriptor) Program() string { return d.program }

// Args returns a copy of the argument list.
func (d *Descriptor) Args() []string {
	out := make([]string, len(d.args))
	copy(out, d.args)
	return out
}

// Environ returns the merged environment for the spawn, or nil when the
// parent environment is inherited unchanged.
func (d *Descriptor) Environ() []string {
	return util.MergeEnv(d.env, d.clearEnv)
}

// Dir returns the working directory ("" means the parent's).
func (d *Descriptor) Dir() string { return d.dir }

// StdinMode returns the stdin wiring mode.
func (d *Descriptor) StdinMode() StreamMode { return d.stdinMode }

// StdoutMode returns the stdout wiring mode.
func (d *Descriptor) StdoutMode() StreamMode { return d.stdoutMode }

// StderrMode returns the stderr wiring mode.
func (d *Descriptor) StderrMode() StreamMode { return d.stderrMode }

// GracePeriod returns the SIGTERM-to-SIGKILL grace period.
func (d *Descriptor) GracePeriod() time.Duration {
	if d.gracePeriod == 0 {
		return 5 * time.Second
	}
	return d.gracePeriod
}

// UsesPty reports whether any stream is pty-backed.
func (d *Descriptor) UsesPty() bool {
	return d.stdinMode == ModePty || d.stdoutMode == ModePty || d.stderrMode == ModePty
}

// Builder accumulates descriptor fields. Methods return the receiver for
// chaining; Build validates and freezes the result.
type Builder struct {
	d Descriptor
}

// New starts a builder for the given program path. The path is used
// verbatim or resolved via PATH by the OS; no shell interpretation.
func New(program string) *Builder {
	return &Builder{d: Descriptor{
		program:    program,
		env:        make(map[string]string),
		stdinMode:  ModePipe,
		stdoutMode: ModePipe,
		stderrMode: ModePipe,
	}}
}

// Args appends arguments.
func (b *Builder) Args(args ...string) *Builder {
	b.d.args = append(b.d.args, args...)
	return b
}

// Env sets or overrides a single environment variable for the child.
func (b *Builder) Env(key, value string) *Builder {
	b.d.env[key] = value
	return b
}

// ClearEnv drops the inherited parent environment; only variables set
// via Env are passed to the child.
func (b *Builder) ClearEnv() *Builder {
	b.d.clearEnv = true
	return b
}

// Dir sets the working directory.
func (b *Builder) Dir(dir string) *Builder {
	b.d.dir = dir
	return b
}

// Stdin sets the stdin wiring mode.
func (b *Builder) Stdin(m StreamMode) *Builder {
	b.d.stdinMode = m
	return b
}

// Stdout sets the stdout wiring mode.
func (b *Builder) Stdout(m StreamMode) *Builder {
	b.d.stdoutMode = m
	return b
}

// Stderr sets the stderr wiring mode.
func (b *Builder) Stderr(m StreamMode) *Builder {
	b.d.stderrMode = m
	return b
}

// Pty wires stdin and stdout to one pseudo-terminal pair and joins
// stderr onto it, matching real terminal semantics.
func (b *Builder) Pty() *Builder {
	b.d.stdinMode = ModePty
	b.d.stdoutMode = ModePty
	b.d.stderrMode = ModePty
	return b
}

// GracePeriod sets how long termination waits after SIGTERM before SIGKILL.
func (b *Builder) GracePeriod(d time.Duration) *Builder {
	b.d.gracePeriod = d
	return b
}

// Build validates the accumulated fields and returns the immutable
// Descriptor. Returns an INVALID_COMMAND error for an empty program
// path or an inconsistent pty configuration.
func (b *Builder) Build() (*Descriptor, error) {
	v := validation.New()
	v.Check(b.d.program != "", "program", "program path is required")
	v.Check(b.d.gracePeriod >= 0, "grace_period", "must not be negative")

	if b.d.UsesPty() {
		// A pty replaces the pipe pair wholesale; mixing it with other
		// modes has no terminal equivalent.
		v.Check(b.d.stdinMode == ModePty, "stdin", "pty requires stdin on the pty")
		v.Check(b.d.stdoutMode == ModePty, "stdout", "pty requires stdout on the pty")
		v.Check(b.d.stderrMode == ModePty, "stderr", "pty requires stderr on the pty")
	}

	if err := v.Error(); err != nil {
		return nil, err
	}

	d := b.d
	// Detach the builder's maps and slices so later builder reuse cannot
	// mutate the built descriptor.
	d.args = append([]string(nil), b.d.args...)
	d.env = make(map[string]string, len(b.d.env))
	for k, val := range b.d.env {
		d.env[k] = val
	}
	return &d, nil
}
