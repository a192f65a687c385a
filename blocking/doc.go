// Package blocking is the synchronous execution strategy: it spawns a
// process from a command.Descriptor and exposes thread-blocking reads,
// writes and waits against it.
//
//	desc, _ := command.New("cat").Build()
//	p, err := blocking.Spawn(desc)
//	if err != nil { ... }
//	p.Write([]byte("hello"))
//	p.CloseStdin()
//	res, err := p.Wait()
//
// Each call suspends the calling goroutine until the underlying
// descriptor is ready. For a coordinated full exchange that cannot
// deadlock on pipe buffers, use Communicate. Callers that need
// suspension points driven by a context should use the async package
// instead; the two strategies share the command data model but are
// deliberately distinct types.
package blocking
