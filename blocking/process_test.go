package blocking_test

import (
	"io"
	"testing"
	"time"

	"github.com/kbukum/commander/blocking"
	"github.com/kbukum/commander/command"
	"github.com/kbukum/commander/errors"
)

func mustBuild(t *testing.T, b *command.Builder) *command.Descriptor {
	t.Helper()
	d, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return d
}

func TestSpawnWaitExitCode(t *testing.T) {
	d := mustBuild(t, command.New("sh").Args("-c", "exit 3"))
	p, err := blocking.Spawn(d)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer p.Close()

	res, err := p.Wait()
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", res.ExitCode)
	}
	if res.Success() {
		t.Error("exit 3 must not be success")
	}
}

func TestSpawnNonexistentBinary(t *testing.T) {
	d := mustBuild(t, command.New("/bin/definitely-not-a-real-binary"))
	_, err := blocking.Spawn(d)
	if err == nil {
		t.Fatal("expected spawn failure")
	}
	if !errors.HasCode(err, errors.ErrCodeSpawnFailed) {
		t.Errorf("expected SPAWN_FAILED, got %v", err)
	}
}

func TestWaitTwice(t *testing.T) {
	d := mustBuild(t, command.New("true"))
	p, err := blocking.Spawn(d)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer p.Close()

	if _, err := p.Wait(); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	_, err = p.Wait()
	if err == nil {
		t.Fatal("expected second wait to fail")
	}
	if !errors.HasCode(err, errors.ErrCodeAlreadyWaited) {
		t.Errorf("expected ALREADY_WAITED, got %v", err)
	}
}

func TestReadWrite(t *testing.T) {
	d := mustBuild(t, command.New("cat"))
	p, err := blocking.Spawn(d)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer p.Close()

	if _, err := p.Write([]byte("ping\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf := make([]byte, 64)
	n, err := p.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf[:n]) != "ping\n" {
		t.Errorf("expected echo, got %q", buf[:n])
	}

	if err := p.CloseStdin(); err != nil {
		t.Fatalf("close stdin: %v", err)
	}
	if _, err := p.Read(buf); err != io.EOF {
		t.Fatalf("expected EOF after close, got %v", err)
	}

	if _, err := p.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestWriteAfterExit(t *testing.T) {
	d := mustBuild(t, command.New("true"))
	p, err := blocking.Spawn(d)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer p.Close()

	<-p.Done()
	// The pipe may need one write to observe the break.
	var werr error
	for i := 0; i < 2 && werr == nil; i++ {
		_, werr = p.Write([]byte("too late"))
		time.Sleep(10 * time.Millisecond)
	}
	if werr == nil {
		t.Skip("pipe buffer absorbed writes before breaking")
	}
	if !errors.HasCode(werr, errors.ErrCodeWriteFailed) {
		t.Errorf("expected WRITE_FAILED, got %v", werr)
	}
	if _, err := p.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestStderrSeparate(t *testing.T) {
	d := mustBuild(t, command.New("sh").Args("-c", "echo oops >&2"))
	p, err := blocking.Spawn(d)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer p.Close()

	buf := make([]byte, 64)
	n, err := p.ReadErr(buf)
	if err != nil {
		t.Fatalf("read stderr: %v", err)
	}
	if string(buf[:n]) != "oops\n" {
		t.Errorf("expected oops on stderr, got %q", buf[:n])
	}
	if _, err := p.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestWaitTimeout(t *testing.T) {
	d := mustBuild(t, command.New("sleep").Args("5"))
	p, err := blocking.Spawn(d)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer p.Close()

	_, ok, err := p.WaitTimeout(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("timed wait: %v", err)
	}
	if ok {
		t.Fatal("expected timeout before exit")
	}

	// The handle stays waitable after a timed-out wait.
	if err := p.Kill(); err != nil {
		t.Fatalf("kill: %v", err)
	}
	res, err := p.Wait()
	if err != nil {
		t.Fatalf("wait after timeout: %v", err)
	}
	if res.Signal == "" {
		t.Errorf("expected a terminating signal, got exit code %d", res.ExitCode)
	}
}

func TestSignaledResult(t *testing.T) {
	d := mustBuild(t, command.New("sleep").Args("5"))
	p, err := blocking.Spawn(d)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer p.Close()

	if err := p.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	res, err := p.Wait()
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.ExitCode != -1 {
		t.Errorf("expected exit code -1 for signaled process, got %d", res.ExitCode)
	}
	if res.Signal == "" {
		t.Error("expected terminating signal to be recorded")
	}
}

func TestEnvAndDir(t *testing.T) {
	d := mustBuild(t, command.New("sh").Args("-c", "echo $COMMANDER_BLOCKING_TEST; pwd").
		Env("COMMANDER_BLOCKING_TEST", "wired").
		Dir("/tmp"))
	p, err := blocking.Spawn(d)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer p.Close()

	out, err := io.ReadAll(readerOf(p))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(out) != "wired\n/tmp\n" {
		t.Errorf("unexpected output: %q", out)
	}
	if _, err := p.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

// readerOf adapts the handle's blocking Read to io.Reader for tests.
func readerOf(p *blocking.Process) io.Reader {
	return readFunc(func(b []byte) (int, error) { return p.Read(b) })
}

type readFunc func([]byte) (int, error)

func (f readFunc) Read(b []byte) (int, error) { return f(b) }
