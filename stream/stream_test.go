package stream_test

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"testing"

	"github.com/kbukum/commander/command"
	"github.com/kbukum/commander/stream"
)

func mustDescriptor(t *testing.T, b *command.Builder) *command.Descriptor {
	t.Helper()
	d, err := b.Build()
	if err != nil {
		t.Fatalf("build descriptor: %v", err)
	}
	return d
}

func TestPlumbPipesRoundTrip(t *testing.T) {
	d := mustDescriptor(t, command.New("cat"))
	cmd := exec.Command(d.Program(), d.Args()...)

	ep, err := stream.Plumb(cmd, d)
	if err != nil {
		t.Fatalf("plumb: %v", err)
	}
	defer ep.Close()

	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	ep.CloseChildEnds()

	if _, err := ep.Stdin().Write([]byte("through the pipe")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ep.CloseStdin(); err != nil {
		t.Fatalf("close stdin: %v", err)
	}

	out, err := io.ReadAll(ep.Stdout())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(out) != "through the pipe" {
		t.Errorf("expected echo of input, got %q", out)
	}

	if err := cmd.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestPlumbStderrSeparate(t *testing.T) {
	d := mustDescriptor(t, command.New("sh").Args("-c", "echo out; echo err >&2"))
	cmd := exec.Command(d.Program(), d.Args()...)

	ep, err := stream.Plumb(cmd, d)
	if err != nil {
		t.Fatalf("plumb: %v", err)
	}
	defer ep.Close()

	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	ep.CloseChildEnds()

	var stdout, stderr bytes.Buffer
	if _, err := io.Copy(&stdout, ep.Stdout()); err != nil {
		t.Fatalf("copy stdout: %v", err)
	}
	if _, err := io.Copy(&stderr, ep.Stderr()); err != nil {
		t.Fatalf("copy stderr: %v", err)
	}
	if err := cmd.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	if stdout.String() != "out\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
	if stderr.String() != "err\n" {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestPlumbNullModes(t *testing.T) {
	d := mustDescriptor(t, command.New("true").
		Stdin(command.ModeNull).Stdout(command.ModeNull).Stderr(command.ModeNull))
	cmd := exec.Command(d.Program(), d.Args()...)

	ep, err := stream.Plumb(cmd, d)
	if err != nil {
		t.Fatalf("plumb: %v", err)
	}
	defer ep.Close()

	if ep.Stdin() != nil || ep.Stdout() != nil || ep.Stderr() != nil {
		t.Error("null modes must not create parent endpoints")
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestPlumbInheritModes(t *testing.T) {
	d := mustDescriptor(t, command.New("true").
		Stdin(command.ModeInherit).Stdout(command.ModeInherit).Stderr(command.ModeInherit))
	cmd := exec.Command(d.Program(), d.Args()...)

	ep, err := stream.Plumb(cmd, d)
	if err != nil {
		t.Fatalf("plumb: %v", err)
	}
	defer ep.Close()

	if cmd.Stdout != os.Stdout || cmd.Stderr != os.Stderr || cmd.Stdin != os.Stdin {
		t.Error("inherit modes must wire the parent's own streams")
	}
	if ep.Stdout() != nil {
		t.Error("inherit mode must not create a parent endpoint")
	}
}

func TestCloseStdinIdempotent(t *testing.T) {
	d := mustDescriptor(t, command.New("cat"))
	cmd := exec.Command(d.Program(), d.Args()...)

	ep, err := stream.Plumb(cmd, d)
	if err != nil {
		t.Fatalf("plumb: %v", err)
	}
	defer ep.Close()

	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	ep.CloseChildEnds()

	if err := ep.CloseStdin(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := ep.CloseStdin(); err != nil {
		t.Fatalf("second close must be a no-op: %v", err)
	}

	if _, err := io.ReadAll(ep.Stdout()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if err := cmd.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestPlumbPty(t *testing.T) {
	d := mustDescriptor(t, command.New("sh").Args("-c", "test -t 0 && echo isatty").Pty())
	cmd := exec.Command(d.Program(), d.Args()...)

	ep, err := stream.Plumb(cmd, d)
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer ep.Close()

	if !ep.IsPty() {
		t.Fatal("expected pty endpoints")
	}
	if ep.Pty() == nil || ep.Stdout() != ep.Pty() || ep.Stdin() != ep.Pty() {
		t.Fatal("stdin and stdout must share the pty master")
	}

	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	ep.CloseChildEnds()

	buf := make([]byte, 64)
	n, err := ep.Stdout().Read(buf)
	if err != nil {
		t.Fatalf("read from master: %v", err)
	}
	if !bytes.Contains(buf[:n], []byte("isatty")) {
		t.Errorf("child did not see a terminal, got %q", buf[:n])
	}

	if err := cmd.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
}
