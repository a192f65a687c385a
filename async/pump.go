package async

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"syscall"
)

const pumpBufSize = 32 * 1024

// pump moves bytes from one child output stream to its consumer. The
// pump goroutine performs the blocking OS reads; consumers suspend on
// the chunk channel, which is what turns a blocking descriptor into a
// cooperative suspension point. The channel is unbuffered, so the pump
// holds at most one chunk and the OS pipe provides the backpressure.
type pump struct {
	name string
	src  *os.File
	pty  bool

	ch   chan []byte
	quit chan struct{}
	err  error // terminal read error, valid once ch is closed

	mu  sync.Mutex // serializes consumers of this stream
	rem []byte     // unconsumed tail of the last delivered chunk
}

func newPump(name string, src *os.File, pty bool) *pump {
	p := &pump{
		name: name,
		src:  src,
		pty:  pty,
		ch:   make(chan []byte),
		quit: make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *pump) run() {
	for {
		buf := make([]byte, pumpBufSize)
		n, err := p.src.Read(buf)
		if n > 0 {
			select {
			case p.ch <- buf[:n]:
			case <-p.quit:
				return
			}
		}
		if err != nil {
			if !isEndOfStream(err, p.pty) {
				p.err = err
			}
			close(p.ch)
			return
		}
	}
}

// read copies pumped bytes into b, suspending on ctx until data is
// available or the stream ends. Cancellation returns ctx.Err() and
// leaves any in-flight chunk queued for the next read.
func (p *pump) read(ctx context.Context, b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.rem) > 0 {
		n := copy(b, p.rem)
		p.rem = p.rem[n:]
		return n, nil
	}

	select {
	case chunk, ok := <-p.ch:
		if !ok {
			if p.err != nil {
				return 0, p.err
			}
			return 0, io.EOF
		}
		n := copy(b, chunk)
		p.rem = chunk[n:]
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// stop releases the pump goroutine. Safe to call once, after the
// owning handle is done with the stream.
func (p *pump) stop() {
	close(p.quit)
}

// writer serializes stdin writes through one goroutine so that a
// cancelled Write still finishes in order before the next one starts.
type writer struct {
	dst  *os.File
	reqs chan writeReq

	mu     sync.Mutex
	closed bool
}

type writeReq struct {
	data  []byte
	close bool
	reply chan writeResult
}

type writeResult struct {
	n   int
	err error
}

func newWriter(dst *os.File, closeFn func() error) *writer {
	w := &writer{
		dst:  dst,
		reqs: make(chan writeReq),
	}
	go w.run(closeFn)
	return w
}

func (w *writer) run(closeFn func() error) {
	for req := range w.reqs {
		if req.close {
			req.reply <- writeResult{err: closeFn()}
			// Late writes after close get a broken-pipe result.
			for late := range w.reqs {
				late.reply <- writeResult{err: os.ErrClosed}
			}
			return
		}
		n, err := w.dst.Write(req.data)
		req.reply <- writeResult{n: n, err: err}
	}
}

// write submits data and suspends on ctx for the outcome. The reply
// channel is buffered so an abandoned write never wedges the goroutine.
func (w *writer) write(ctx context.Context, data []byte) (int, error) {
	req := writeReq{data: data, reply: make(chan writeResult, 1)}
	select {
	case w.reqs <- req:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res.n, res.err
	case <-ctx.Done():
		// The write keeps running; whatever lands in the pipe stays.
		return 0, ctx.Err()
	}
}

// closeStdin asks the writer goroutine to close the stream after the
// writes already queued. Idempotent.
func (w *writer) closeStdin() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	req := writeReq{close: true, reply: make(chan writeResult, 1)}
	w.reqs <- req
	res := <-req.reply
	close(w.reqs)
	return res.err
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
