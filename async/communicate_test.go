package async_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/kbukum/commander/async"
	"github.com/kbukum/commander/command"
	"github.com/kbukum/commander/errors"
)

func TestCommunicateRoundTrip(t *testing.T) {
	d := mustBuild(t, command.New("cat"))
	p, err := async.Spawn(d)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	input := bytes.Repeat([]byte("0123456789abcdef"), 65536) // 1 MiB
	res, err := p.Communicate(context.Background(), async.CommunicateOptions{Input: input})
	if err != nil {
		t.Fatalf("communicate: %v", err)
	}
	if !bytes.Equal(res.Stdout, input) {
		t.Errorf("round-trip mismatch: wrote %d bytes, read %d", len(input), len(res.Stdout))
	}
	if !res.Success() {
		t.Errorf("expected success, got exit %d", res.ExitCode)
	}
}

func TestCommunicateCapturesBothStreams(t *testing.T) {
	d := mustBuild(t, command.New("sh").Args("-c", "echo to-out; echo to-err >&2"))
	p, err := async.Spawn(d)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	res, err := p.Communicate(context.Background(), async.CommunicateOptions{})
	if err != nil {
		t.Fatalf("communicate: %v", err)
	}
	if string(res.Stdout) != "to-out\n" {
		t.Errorf("stdout = %q", res.Stdout)
	}
	if string(res.Stderr) != "to-err\n" {
		t.Errorf("stderr = %q", res.Stderr)
	}
}

func TestCommunicateDeadline(t *testing.T) {
	d := mustBuild(t, command.New("sleep").Args("10").GracePeriod(200*time.Millisecond))
	p, err := async.Spawn(d)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := p.Communicate(ctx, async.CommunicateOptions{})
	if !errors.HasCode(err, errors.ErrCodeTimeout) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if res == nil {
		t.Fatal("expected partial result alongside timeout")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("deadline took too long to enforce: %v", elapsed)
	}
}

func TestCommunicateThenWait(t *testing.T) {
	d := mustBuild(t, command.New("true"))
	p, err := async.Spawn(d)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	if _, err := p.Communicate(context.Background(), async.CommunicateOptions{}); err != nil {
		t.Fatalf("communicate: %v", err)
	}
	if _, err := p.Wait(context.Background()); !errors.HasCode(err, errors.ErrCodeAlreadyWaited) {
		t.Errorf("expected ALREADY_WAITED after communicate, got %v", err)
	}
}

func TestCommunicateMaxOutputTruncates(t *testing.T) {
	d := mustBuild(t, command.New("sh").Args("-c", "yes x | head -c 100000"))
	p, err := async.Spawn(d)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	res, err := p.Communicate(context.Background(), async.CommunicateOptions{MaxOutput: 2048})
	if err != nil {
		t.Fatalf("communicate: %v", err)
	}
	if !res.Truncated {
		t.Error("expected truncated result")
	}
	if int64(len(res.Stdout)) != 2048 {
		t.Errorf("expected capture capped at 2048 bytes, got %d", len(res.Stdout))
	}
	if !res.Success() {
		t.Errorf("expected clean exit despite truncation, got %d/%s", res.ExitCode, res.Signal)
	}
}
