package stream

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"

	"github.com/kbukum/commander/errors"
)

// plumbPty allocates a pseudo-terminal pair and binds all three child
// streams to the slave side. The child becomes the session leader with
// the slave as its controlling terminal, so programs that insist on a
// real terminal (sudo reading a password, anything calling isatty)
// behave as if run interactively.
func plumbPty(cmd *exec.Cmd) (*Endpoints, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, errors.PtyUnavailable(err)
	}

	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty

	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
	cmd.SysProcAttr.Setctty = true

	return &Endpoints{
		stdin:      ptmx,
		stdout:     ptmx,
		ptmx:       ptmx,
		childFiles: []*os.File{tty},
	}, nil
}
