package blocking

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/commander/command"
	cerrors "github.com/kbukum/commander/errors"
	"github.com/kbukum/commander/logger"
	"github.com/kbukum/commander/stream"
)

// Process is a handle to a spawned child owned by the blocking strategy.
// A handle is owned by exactly one caller; it may be polled for status
// from other goroutines but its exit status is reaped exactly once.
type Process struct {
	id      string
	desc    *command.Descriptor
	cmd     *exec.Cmd
	ep      *stream.Endpoints
	log     *logger.Logger
	started time.Time

	done    chan struct{}
	state   *os.ProcessState
	waitErr error

	mu     sync.Mutex
	waited bool
}

// Option configures a spawn.
type Option func(*spawnConfig)

type spawnConfig struct {
	log *logger.Logger
}

// WithLogger attaches a logger to the spawned process. Without it the
// handle is silent.
func WithLogger(l *logger.Logger) Option {
	return func(c *spawnConfig) { c.log = l }
}

// Spawn creates the OS process described by d with its streams plumbed.
// It returns as soon as the child is running; all subsequent I/O against
// the handle blocks the calling goroutine.
func Spawn(d *command.Descriptor, opts ...Option) (*Process, error) {
	cfg := spawnConfig{log: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	cmd := exec.Command(d.Program(), d.Args()...)
	cmd.Dir = d.Dir()
	cmd.Env = d.Environ()

	ep, err := stream.Plumb(cmd, d)
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		ep.CloseChildEnds()
		_ = ep.Close()
		return nil, cerrors.SpawnFailed(d.Program(), err)
	}
	ep.CloseChildEnds()

	p := &Process{
		id:      uuid.New().String(),
		desc:    d,
		cmd:     cmd,
		ep:      ep,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	p.log = cfg.log.WithComponent("blocking").WithProcess(p.id, p.PID())
	p.log.Debug("spawned", logger.Fields(logger.FieldBinary, d.Program()))

	go p.reap()

	return p, nil
}

// reap collects the exit status as soon as the child terminates. The
// status stays buffered in the handle until Wait reads it; reaping never
// touches the parent-side endpoints, so draining buffered output after
// exit keeps working.
func (p *Process) reap() {
	err := p.cmd.Wait()
	p.state = p.cmd.ProcessState
	p.waitErr = err
	close(p.done)
}

// ID returns the handle's identifier.
func (p *Process) ID() string { return p.id }

// PID returns the OS process ID, or -1 before start.
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

// Running reports whether the child has not yet terminated.
func (p *Process) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Done returns a channel closed when the child terminates.
func (p *Process) Done() <-chan struct{} { return p.done }

// Pty returns the pty master for pty-backed spawns, nil otherwise.
func (p *Process) Pty() *os.File { return p.ep.Pty() }

// Write sends bytes to the child's stdin, blocking until the pipe
// accepts them. Returns the bytes written; a closed or broken pipe
// surfaces as WRITE_FAILED.
func (p *Process) Write(b []byte) (int, error) {
	w := p.ep.Stdin()
	if w == nil {
		return 0, cerrors.WriteFailed(errors.New("stdin is not piped"))
	}
	n, err := w.Write(b)
	if err != nil {
		return n, cerrors.WriteFailed(err)
	}
	return n, nil
}

// Read reads available bytes from the child's stdout, blocking until
// data arrives or the stream ends. End-of-stream is io.EOF.
func (p *Process) Read(b []byte) (int, error) {
	return p.readFrom(p.ep.Stdout(), "stdout", b)
}

// ReadErr reads from the child's stderr. In pty mode stderr is merged
// into the pty and ReadErr reports immediate end-of-stream.
func (p *Process) ReadErr(b []byte) (int, error) {
	return p.readFrom(p.ep.Stderr(), "stderr", b)
}

func (p *Process) readFrom(r *os.File, name string, b []byte) (int, error) {
	if r == nil {
		return 0, io.EOF
	}
	n, err := r.Read(b)
	if err != nil {
		if isEndOfStream(err, p.ep.IsPty()) {
			return n, io.EOF
		}
		return n, cerrors.ReadFailed(name, err)
	}
	return n, nil
}

// CloseStdin signals end-of-input to the child.
func (p *Process) CloseStdin() error {
	return p.ep.CloseStdin()
}

// Wait blocks the calling goroutine until the child exits and returns
// its Exit Result. A second Wait on the same handle fails with
// ALREADY_WAITED.
func (p *Process) Wait() (*command.Result, error) {
	p.mu.Lock()
	if p.waited {
		p.mu.Unlock()
		return nil, cerrors.AlreadyWaited()
	}
	p.waited = true
	p.mu.Unlock()

	<-p.done
	return p.buildResult()
}

// WaitTimeout waits up to d for the child to exit. ok is false when the
// timeout elapsed first; the handle stays waitable in that case.
func (p *Process) WaitTimeout(d time.Duration) (*command.Result, bool, error) {
	p.mu.Lock()
	if p.waited {
		p.mu.Unlock()
		return nil, false, cerrors.AlreadyWaited()
	}
	p.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-p.done:
	case <-timer.C:
		return nil, false, nil
	}

	p.mu.Lock()
	if p.waited {
		p.mu.Unlock()
		return nil, false, cerrors.AlreadyWaited()
	}
	p.waited = true
	p.mu.Unlock()

	res, err := p.buildResult()
	return res, err == nil, err
}

func (p *Process) buildResult() (*command.Result, error) {
	if p.state == nil {
		return nil, cerrors.Internal(p.waitErr)
	}
	res := command.ResultFromState(p.state, time.Since(p.started))
	p.log.Debug("exited", logger.Fields(
		logger.FieldExitCode, res.ExitCode,
		logger.FieldSignal, res.Signal,
		logger.FieldDuration, res.Duration.Milliseconds(),
	))
	return res, nil
}

// Signal sends sig to the child's process group.
func (p *Process) Signal(sig syscall.Signal) error {
	if !p.Running() {
		return nil
	}
	if err := syscall.Kill(-p.PID(), sig); err != nil {
		// Group may be gone already; fall back to the process itself.
		return p.cmd.Process.Signal(sig)
	}
	return nil
}

// Terminate sends SIGTERM.
func (p *Process) Terminate() error { return p.Signal(syscall.SIGTERM) }

// Kill sends SIGKILL.
func (p *Process) Kill() error { return p.Signal(syscall.SIGKILL) }

// Close releases the parent-side stream endpoints. It does not kill the
// child. Callers that drop a handle without waiting should Close it so
// no descriptors leak.
func (p *Process) Close() error {
	return p.ep.Close()
}

// isEndOfStream normalizes stream-end conditions. A pty master raises
// EIO once the child side is closed; plain pipes raise io.EOF.
func isEndOfStream(err error, pty bool) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	if pty && errors.Is(err, syscall.EIO) {
		return true
	}
	return errors.Is(err, os.ErrClosed)
}
