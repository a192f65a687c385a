package blocking

import (
	"bytes"
	"errors"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/kbukum/commander/command"
	cerrors "github.com/kbukum/commander/errors"
	"github.com/kbukum/commander/logger"
)

// CommunicateOptions configures a Communicate exchange.
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
	// Timeout bounds the whole exchange. On expiry the child is sent
	// SIGTERM, then SIGKILL after the descriptor's grace period, and
	// Communicate returns a TIMEOUT error alongside the partial result.
	Timeout time.Duration
	// OnOutput, when set, observes every drained chunk as it arrives.
	// The stream name is "stdout" or "stderr".
	OnOutput func(stream string, chunk []byte)
}

const drainBufSize = 32 * 1024

// Communicate performs the full exchange with the child: writes all
// input, closes stdin, concurrently drains stdout and stderr to
// completion, then waits for exit and returns the filled-in Result.
//
// Input writing and output draining run on separate goroutines so a
// child that fills its output pipe while the parent still has pending
// input can never deadlock the exchange.
//
// Communicate reaps the handle; a later Wait fails with ALREADY_WAITED.
func (p *Process) Communicate(opts CommunicateOptions) (*command.Result, error) {
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
		writeErr = p.writeAll(opts.Input, chunkSize)
	}()

	// Output directions. stderr is nil for pty-backed handles.
	if p.ep.Stdout() != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			trunc, err := p.drain(p.ep.Stdout(), "stdout", &stdoutBuf, opts)
			stdoutErr = err
			if trunc {
				truncMu.Lock()
				truncated = true
				truncMu.Unlock()
			}
		}()
	}
	if p.ep.Stderr() != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			trunc, err := p.drain(p.ep.Stderr(), "stderr", &stderrBuf, opts)
			stderrErr = err
			if trunc {
				truncMu.Lock()
				truncated = true
				truncMu.Unlock()
			}
		}()
	}

	// Deadline direction: a timeout terminates the child, which in turn
	// ends the drains via end-of-stream.
	var timedOut bool
	stopTimeout := make(chan struct{})
	if opts.Timeout > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			timer := time.NewTimer(opts.Timeout)
			defer timer.Stop()
			select {
			case <-p.done:
			case <-stopTimeout:
			case <-timer.C:
				timedOut = true
				p.log.Warn("communicate timeout, terminating", logger.Fields(
					logger.FieldOperation, "communicate",
				))
				p.terminateWithGrace()
			}
		}()
	}

	// The drains end at end-of-stream, which the child's exit
	// guarantees; the timeout goroutine is released once exit is seen.
	<-p.done
	close(stopTimeout)
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
	case timedOut:
		return res, cerrors.Timeout("communicate")
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
// status tells that story.
func (p *Process) writeAll(input []byte, chunkSize int) error {
	defer func() { _ = p.ep.CloseStdin() }()

	w := p.ep.Stdin()
	if w == nil || len(input) == 0 {
		return nil
	}

	for off := 0; off < len(input); {
		end := off + chunkSize
		if end > len(input) {
			end = len(input)
		}
		n, err := w.Write(input[off:end])
		off += n
		if err != nil {
			if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
	return nil
}

// drain accumulates a stream into buf until end-of-stream, honoring the
// output cap. Past the cap it keeps reading and discards, so the child
// is never stalled on a full pipe.
func (p *Process) drain(r *os.File, name string, buf *bytes.Buffer, opts CommunicateOptions) (truncated bool, err error) {
	chunk := make([]byte, drainBufSize)
	for {
		n, rerr := r.Read(chunk)
		if n > 0 {
			if opts.OnOutput != nil {
				opts.OnOutput(name, chunk[:n])
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
			if isEndOfStream(rerr, p.ep.IsPty()) {
				return truncated, nil
			}
			return truncated, rerr
		}
	}
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
