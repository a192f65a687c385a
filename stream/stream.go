package stream

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/kbukum/commander/command"
	"github.com/kbukum/commander/errors"
)

// Endpoints holds the parent-side ends of a plumbed spawn attempt.
// Exactly one process handle owns an Endpoints value.
type Endpoints struct {
	stdin  *os.File // write end of the stdin pipe, or the pty master
	stdout *os.File // read end of the stdout pipe, or the pty master
	stderr *os.File // read end of the stderr pipe; nil in pty mode
	ptmx   *os.File // pty master when pty mode, else nil

	childFiles []*os.File // child-side ends, closed after a successful start

	stdinClosed bool
}

// Plumb allocates stream wiring for cmd according to the descriptor's
// modes. On any allocation failure every stream already allocated for
// this attempt is released before the error is returned.
func Plumb(cmd *exec.Cmd, d *command.Descriptor) (*Endpoints, error) {
	if d.UsesPty() {
		return plumbPty(cmd)
	}

	ep := &Endpoints{}

	if err := ep.plumbStdin(cmd, d.StdinMode()); err != nil {
		ep.release()
		return nil, err
	}
	if err := ep.plumbStdout(cmd, d.StdoutMode()); err != nil {
		ep.release()
		return nil, err
	}
	if err := ep.plumbStderr(cmd, d.StderrMode()); err != nil {
		ep.release()
		return nil, err
	}

	// Child runs in its own process group so termination can signal the
	// whole tree.
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true

	return ep, nil
}

func (ep *Endpoints) plumbStdin(cmd *exec.Cmd, mode command.StreamMode) error {
	switch mode {
	case command.ModePipe:
		r, w, err := os.Pipe()
		if err != nil {
			return errors.StreamSetupFailed("stdin", err)
		}
		cmd.Stdin = r
		ep.stdin = w
		ep.childFiles = append(ep.childFiles, r)
	case command.ModeInherit:
		cmd.Stdin = os.Stdin
	case command.ModeNull:
		// exec treats a nil Stdin as the null device.
		cmd.Stdin = nil
	}
	return nil
}

func (ep *Endpoints) plumbStdout(cmd *exec.Cmd, mode command.StreamMode) error {
	switch mode {
	case command.ModePipe:
		r, w, err := os.Pipe()
		if err != nil {
			return errors.StreamSetupFailed("stdout", err)
		}
		cmd.Stdout = w
		ep.stdout = r
		ep.childFiles = append(ep.childFiles, w)
	case command.ModeInherit:
		cmd.Stdout = os.Stdout
	case command.ModeNull:
		cmd.Stdout = nil
	}
	return nil
}

func (ep *Endpoints) plumbStderr(cmd *exec.Cmd, mode command.StreamMode) error {
	switch mode {
	case command.ModePipe:
		r, w, err := os.Pipe()
		if err != nil {
			return errors.StreamSetupFailed("stderr", err)
		}
		cmd.Stderr = w
		ep.stderr = r
		ep.childFiles = append(ep.childFiles, w)
	case command.ModeInherit:
		cmd.Stderr = os.Stderr
	case command.ModeNull:
		cmd.Stderr = nil
	}
	return nil
}

// Stdin returns the writable endpoint bound to the child's stdin, or
// nil when stdin is not piped or pty-backed.
func (ep *Endpoints) Stdin() *os.File { return ep.stdin }

// Stdout returns the readable endpoint bound to the child's stdout.
func (ep *Endpoints) Stdout() *os.File { return ep.stdout }

// Stderr returns the readable endpoint bound to the child's stderr.
// Nil in pty mode: the pty merges stderr into the master.
func (ep *Endpoints) Stderr() *os.File { return ep.stderr }

// Pty returns the pty master, or nil when the spawn is not pty-backed.
func (ep *Endpoints) Pty() *os.File { return ep.ptmx }

// IsPty reports whether the endpoints are pty-backed.
func (ep *Endpoints) IsPty() bool { return ep.ptmx != nil }

// CloseChildEnds closes the child-side descriptors after a successful
// start. The child keeps its inherited copies; closing ours is what
// makes EOF propagate when the child exits.
func (ep *Endpoints) CloseChildEnds() {
	for _, f := range ep.childFiles {
		_ = f.Close()
	}
	ep.childFiles = nil
}

// CloseStdin closes the write half of stdin, signaling end-of-input to
// the child. Safe to call more than once.
func (ep *Endpoints) CloseStdin() error {
	if ep.stdin == nil || ep.stdinClosed {
		return nil
	}
	ep.stdinClosed = true
	if ep.IsPty() {
		// The master carries both directions; closing it here would
		// also tear down the read side. End-of-input on a terminal is
		// EOT, not close.
		_, err := ep.stdin.Write([]byte{0x04})
		return err
	}
	return ep.stdin.Close()
}

// Close releases every parent-side endpoint. Called on every exit path
// of the owning handle, including spawn failure and cancellation.
func (ep *Endpoints) Close() error {
	var firstErr error
	closeFile := func(f *os.File) {
		if f == nil {
			return
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if ep.IsPty() {
		closeFile(ep.ptmx)
	} else {
		if !ep.stdinClosed {
			closeFile(ep.stdin)
			ep.stdinClosed = true
		}
		closeFile(ep.stdout)
		closeFile(ep.stderr)
	}
	ep.stdin = nil
	ep.stdout = nil
	ep.stderr = nil
	ep.ptmx = nil
	return firstErr
}

// release undoes a partial plumbing attempt.
func (ep *Endpoints) release() {
	for _, f := range ep.childFiles {
		_ = f.Close()
	}
	ep.childFiles = nil
	_ = ep.Close()
}
