// Package async is the cooperative execution strategy: it spawns a
// process from a command.Descriptor and exposes context-driven reads,
// writes and waits whose suspension points yield to the Go scheduler
// instead of blocking the caller past cancellation.
//
//	desc, _ := command.New("cat").Build()
//	p, err := async.Spawn(desc)
//	if err != nil { ... }
//	p.Write(ctx, []byte("hello"))
//	p.CloseStdin()
//	res, err := p.Wait(ctx)
//
// Every operation takes a context; cancelling it abandons the pending
// operation without corrupting the stream. A cancelled read leaves
// already-pumped bytes queued for the next read, so per-stream byte
// order is preserved. A cancelled write may still complete in the
// background: partially written data stays written.
//
// Reads of stdout and stderr are independent and may interleave freely.
// Stdin follows single-writer discipline: concurrent writers get
// undefined ordering, which the handle does not arbitrate — that is a
// caller obligation.
package async
