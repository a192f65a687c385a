// Package stream wires a child process's standard streams to pipes, the
// parent's own streams, the null device, or a pseudo-terminal, according
// to the modes on a command.Descriptor.
//
// Pipes are allocated with os.Pipe so the parent owns both lifecycle
// ends explicitly: the child's ends are closed right after a successful
// start (CloseChildEnds), and the parent's ends live until the owning
// process handle releases them. That keeps exit-status reaping
// independent of stream draining — waiting on the process never closes
// an endpoint a reader is still draining.
//
// Pseudo-terminals come from creack/pty. In pty mode all three child
// streams share the slave side and the parent holds the master, so
// writes to the master appear to the child as typed input and reads
// return everything the child displays.
package stream
