// Package elevate runs a command through a privilege-elevation wrapper
// on a pseudo-terminal, detecting the wrapper's password prompt and
// injecting the credential as if typed by a user.
//
//	target, _ := command.New("whoami").Build()
//	res, err := elevate.Run(ctx, target, password, elevate.Config{})
//
// The flow allocates a pty, spawns the wrapper bound to it, scans the
// master side for a recognizable prompt, writes the credential followed
// by a newline, and then treats the remaining pty output as the
// command's output. Wrappers configured to skip prompting (cached
// credentials, NOPASSWD rules) are handled: if output arrives without a
// prompt, it is captured as command output directly.
//
// Authentication failure is reported as CREDENTIAL_REJECTED, detected
// via the wrapper re-prompting or printing its rejection text. It is
// never retried automatically. A wrapper that produces no output at all
// within the prompt window fails with PROMPT_TIMEOUT.
//
// Environment overrides on the target descriptor are not forwarded:
// elevation wrappers sanitize the environment themselves.
package elevate
