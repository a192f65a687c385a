package async

import (
	"context"
	goerrors "errors"
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

// Process is a handle to a spawned child owned by the cooperative
// strategy. Stream I/O runs on internal goroutines; the public methods
// suspend on channels governed by the caller's context, so a cancelled
// operation yields without tearing the handle down.
type Process struct {
	id      string
	desc    *command.Descriptor
	cmd     *exec.Cmd
	ep      *stream.Endpoints
	log     *logger.Logger
	started time.Time

	stdout *pump
	stderr *pump
	stdin  *writer

	done    chan struct{}
	state   *os.ProcessState
	waitErr error

	mu     sync.Mutex
	waited bool

	closeOnce sync.Once
	closeErr  error
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

// Spawn creates the OS process described by d with its streams plumbed
// and the stream goroutines running. It returns as soon as the child is
// up; subsequent I/O goes through the context-driven methods.
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
	p.log = cfg.log.WithComponent("async").WithProcess(p.id, p.PID())
	p.log.Debug("spawned", logger.Fields(logger.FieldBinary, d.Program()))

	if ep.Stdout() != nil {
		p.stdout = newPump("stdout", ep.Stdout(), ep.IsPty())
	}
	if ep.Stderr() != nil {
		p.stderr = newPump("stderr", ep.Stderr(), ep.IsPty())
	}
	if ep.Stdin() != nil {
		p.stdin = newWriter(ep.Stdin(), ep.CloseStdin)
	}

	go p.reap()

	return p, nil
}

// reap collects the exit status as soon as the child terminates. The
// status stays buffered in the handle until Wait reads it; reaping never
// touches the parent-side endpoints, so pumped output after exit keeps
// flowing to readers.
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

// Write sends bytes to the child's stdin, suspending on ctx until the
// pipe accepts them. On cancellation the write may still complete in
// the background; the returned error is then ctx.Err().
func (p *Process) Write(ctx context.Context, b []byte) (int, error) {
	if p.stdin == nil {
		return 0, cerrors.WriteFailed(goerrors.New("stdin is not piped"))
	}
	n, err := p.stdin.write(ctx, b)
	if err != nil {
		if goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded) {
			return n, err
		}
		return n, cerrors.WriteFailed(err)
	}
	return n, nil
}

// Read reads available bytes from the child's stdout, suspending on ctx
// until data arrives or the stream ends. End-of-stream is io.EOF. A
// cancelled read returns ctx.Err() and leaves already-pumped bytes
// queued for the next read.
func (p *Process) Read(ctx context.Context, b []byte) (int, error) {
	return p.readFrom(ctx, p.stdout, b)
}

// ReadErr reads from the child's stderr. In pty mode stderr is merged
// into the pty and ReadErr reports immediate end-of-stream.
func (p *Process) ReadErr(ctx context.Context, b []byte) (int, error) {
	return p.readFrom(ctx, p.stderr, b)
}

func (p *Process) readFrom(ctx context.Context, pu *pump, b []byte) (int, error) {
	if pu == nil {
		return 0, io.EOF
	}
	n, err := pu.read(ctx, b)
	if err != nil {
		if err == io.EOF || goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded) {
			return n, err
		}
		return n, cerrors.ReadFailed(pu.name, err)
	}
	return n, nil
}

// CloseStdin signals end-of-input to the child after any queued writes.
func (p *Process) CloseStdin() error {
	if p.stdin == nil {
		return nil
	}
	return p.stdin.closeStdin()
}

// Wait suspends until the child exits and returns its Result. A
// cancelled wait returns ctx.Err() and leaves the handle waitable; a
// second completed Wait fails with ALREADY_WAITED.
func (p *Process) Wait(ctx context.Context) (*command.Result, error) {
	p.mu.Lock()
	if p.waited {
		p.mu.Unlock()
		return nil, cerrors.AlreadyWaited()
	}
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	if p.waited {
		p.mu.Unlock()
		return nil, cerrors.AlreadyWaited()
	}
	p.waited = true
	p.mu.Unlock()

	return p.buildResult()
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

// Close releases the stream goroutines and the parent-side endpoints.
// It does not kill the child.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		if p.stdout != nil {
			p.stdout.stop()
		}
		if p.stderr != nil {
			p.stderr.stop()
		}
		// Closing the endpoints first aborts any write the stdin
		// goroutine is blocked in, so shutting it down cannot hang.
		p.closeErr = p.ep.Close()
		if p.stdin != nil {
			_ = p.stdin.closeStdin()
		}
	})
	return p.closeErr
}

// terminateWithGrace sends SIGTERM, waits the descriptor's grace
// period, then SIGKILLs whatever is left.
func (p *Process) terminateWithGrace() {
	_ = p.Terminate()
	timer := time.NewTimer(p.desc.GracePeriod())
	defer timer.Stop()
	select {
	case <-p.done:
	case <-timer.C:
		_ = p.Kill()
	}
}
