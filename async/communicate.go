package async

import (
	"bytes"
	"context"
	goerrors "errors"
	"os"
	"sync"
	"syscall"

	"github.com/kbukum/commander/command"
	cerrors "github.com/kbukum/commander/errors"
	"github.com/kbukum/commander/logger"
)

// CommunicateOptions configures a Communicate exchange. The exchange
// deadline comes from the caller's context, not from an option.
type CommunicateOptions struct {
	// Input is written to the child's stdin in chunks; stdin is closed
	// once all of it is written. Nil input just closes stdin.
	Input []byte
	// ChunkSize bounds each stdin write. Defaults to 4096.
	ChunkSize int
	// MaxOutput caps each captured stream in bytes. Output past the cap
	// is drained and discarded so the child is never blocked on a full
	// pipe, and the result is marked Truncated. Zero means unlimited.
	MaxOutput int64
	// OnOutput, when set, observes every drained chunk as it arrives.
	// The stream name is "stdout" or "stderr".
	OnOutput func(stream string, chunk []byte)
}

// Communicate performs the full exchange with the child: writes all
// input, closes stdin, concurrently drains stdout and stderr to
// completion, then waits for exit and returns the filled-in Result.
//
// Cancelling ctx terminates the child with SIGTERM, escalating to
// SIGKILL after the descriptor's grace period. A deadline expiry
// surfaces as a TIMEOUT error alongside the partial result; a plain
// cancellation surfaces as COMMUNICATE_FAILED.
//
// Communicate reaps the handle; a later Wait fails with ALREADY_WAITED.
func (p *Process) Communicate(ctx context.Context, opts CommunicateOptions) (*command.Result, error) {
	p.mu.Lock()
	if p.waited {
		p.mu.Unlock()
		return nil, cerrors.AlreadyWaited()
	}
	p.waited = true
	p.mu.Unlock()

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 4096
	}

	var (
		wg        sync.WaitGroup
		writeErr  error
		stdoutBuf bytes.Buffer
		stderrBuf bytes.Buffer
		stdoutErr error
		stderrErr error
		truncated bool
		truncMu   sync.Mutex
	)

	// Input direction.
	wg.Add(1)
	go func() {
		defer wg.Done()
		writeErr = p.writeAll(ctx, opts.Input, chunkSize)
	}()

	// Output directions. stderr is nil for pty-backed handles.
	if p.stdout != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			trunc, err := p.drainPump(ctx, p.stdout, &stdoutBuf, opts)
			stdoutErr = err
			if trunc {
				truncMu.Lock()
				truncated = true
				truncMu.Unlock()
			}
		}()
	}
	if p.stderr != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			trunc, err := p.drainPump(ctx, p.stderr, &stderrBuf, opts)
			stderrErr = err
			if trunc {
				truncMu.Lock()
				truncated = true
				truncMu.Unlock()
			}
		}()
	}

	var cancelled bool
	select {
	case <-p.done:
	case <-ctx.Done():
		cancelled = true
		p.log.Warn("communicate cancelled, terminating", logger.Fields(
			logger.FieldOperation, "communicate",
		))
		p.terminateWithGrace()
		<-p.done
	}
	wg.Wait()

	res, err := p.buildResult()
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	res.Stdout = stdoutBuf.Bytes()
	res.Stderr = stderrBuf.Bytes()
	res.Truncated = truncated

	_ = p.Close()

	switch {
	case cancelled:
		if goerrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return res, cerrors.Timeout("communicate")
		}
		return res, cerrors.CommunicateFailed("context cancelled", ctx.Err())
	case writeErr != nil:
		return res, cerrors.CommunicateFailed("writing input", writeErr)
	case stdoutErr != nil:
		return res, cerrors.CommunicateFailed("draining stdout", stdoutErr)
	case stderrErr != nil:
		return res, cerrors.CommunicateFailed("draining stderr", stderrErr)
	}
	return res, nil
}

// writeAll feeds input to stdin in chunks and closes the write half. A
// broken pipe is not an error here: the child exited early and its exit
// status tells that story. Cancellation just stops feeding; the child
// is torn down by the caller.
func (p *Process) writeAll(ctx context.Context, input []byte, chunkSize int) error {
	defer func() { _ = p.CloseStdin() }()

	if p.stdin == nil || len(input) == 0 {
		return nil
	}

	for off := 0; off < len(input); {
		end := off + chunkSize
		if end > len(input) {
			end = len(input)
		}
		n, err := p.stdin.write(ctx, input[off:end])
		off += n
		if err != nil {
			if goerrors.Is(err, syscall.EPIPE) || goerrors.Is(err, os.ErrClosed) {
				return nil
			}
			if goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
	return nil
}

// drainPump accumulates a stream into buf until end-of-stream, honoring
// the output cap. Past the cap it keeps reading and discards, so the
// child is never stalled on a full pipe. A cancelled context ends the
// drain early; the caller terminates the child.
func (p *Process) drainPump(ctx context.Context, pu *pump, buf *bytes.Buffer, opts CommunicateOptions) (truncated bool, err error) {
	chunk := make([]byte, drainBufSize)
	for {
		n, rerr := pu.read(ctx, chunk)
		if n > 0 {
			if opts.OnOutput != nil {
				opts.OnOutput(pu.name, chunk[:n])
			}
			if opts.MaxOutput > 0 && int64(buf.Len())+int64(n) > opts.MaxOutput {
				keep := opts.MaxOutput - int64(buf.Len())
				if keep > 0 {
					buf.Write(chunk[:keep])
				}
				truncated = true
			} else {
				buf.Write(chunk[:n])
			}
		}
		if rerr != nil {
			switch {
			case isEndOfStream(rerr, p.ep.IsPty()):
				return truncated, nil
			case goerrors.Is(rerr, context.Canceled) || goerrors.Is(rerr, context.DeadlineExceeded):
				return truncated, nil
			default:
				return truncated, rerr
			}
		}
	}
}

const drainBufSize = 32 * 1024
