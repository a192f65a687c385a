// Package command defines the shared data model of commander: the
// Command Descriptor consumed by the execution strategies and the Exit
// Result they produce.
//
// A Descriptor is built once, validated at Build time, and is immutable
// afterwards; every spawn needs its own Descriptor.
//
//	desc, err := command.New("cat").
//	    Args("-n").
//	    Env("LC_ALL", "C").
//	    Stdin(command.ModePipe).
//	    Stdout(command.ModePipe).
//	    Build()
//
// Arguments are passed to the OS verbatim. The library never invokes a
// shell on the caller's behalf; a caller that wants shell semantics must
// set the program to a shell and supply the -c arguments itself.
package command
