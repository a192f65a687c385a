// Package logger provides structured logging for commander built on zerolog.
//
// The library itself never logs through an ambient global: every spawn
// operation accepts an optional *Logger and stays silent when none is given.
// The global logger exists for the command-line front end and for callers
// that want one shared instance.
//
//	log := logger.NewDefault("commander")
//	p, err := blocking.Spawn(desc, blocking.WithLogger(log))
//
// Loggers are tagged per component (command, stream, blocking, async,
// elevate) and carry domain fields such as pid, binary and exit_code.
package logger
