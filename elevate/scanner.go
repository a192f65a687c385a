package elevate

import (
	"bytes"
	"regexp"
)

// phase is the flow's state. The scanner owns the phases from
// phaseAwaitPrompt on; the earlier ones track spawn progress.
type phase int

const (
	phaseIdle phase = iota
	phasePtyAllocated
	phaseSpawned
	phaseAwaitPrompt
	phaseCredentialSent
	phaseAwaitExit
	phaseComplete
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phasePtyAllocated:
		return "pty_allocated"
	case phaseSpawned:
		return "spawned"
	case phaseAwaitPrompt:
		return "await_prompt"
	case phaseCredentialSent:
		return "credential_sent"
	case phaseAwaitExit:
		return "await_exit"
	case phaseComplete:
		return "complete"
	}
	return "unknown"
}

// action is what the flow must do in response to a fed chunk.
type action int

const (
	actionNone action = iota
	actionSendCredential
	actionRejected
)

// promptWindowSize bounds the bytes retained for cross-chunk prompt
// matching while awaiting the prompt.
const promptWindowSize = 1024

// scanner drives prompt detection over the byte stream read from the
// pty master. It is deliberately free of any I/O so tests can walk it
// through every transition with synthetic output.
type scanner struct {
	prompts    []*regexp.Regexp
	rejections []*regexp.Regexp

	phase     phase
	window    []byte
	sawOutput bool

	output    bytes.Buffer
	maxOutput int64
	truncated bool
}

func newScanner(prompts, rejections []*regexp.Regexp, maxOutput int64) *scanner {
	return &scanner{
		prompts:    prompts,
		rejections: rejections,
		phase:      phaseAwaitPrompt,
		maxOutput:  maxOutput,
	}
}

// feed consumes one chunk of pty output and returns the action the
// flow must take.
func (s *scanner) feed(chunk []byte) action {
	if len(chunk) == 0 {
		return actionNone
	}
	s.sawOutput = true

	switch s.phase {
	case phaseAwaitPrompt:
		s.window = append(s.window, chunk...)
		if matchAny(s.rejections, s.window) {
			return actionRejected
		}
		if matchAny(s.prompts, s.window) {
			s.window = s.window[:0]
			s.phase = phaseCredentialSent
			return actionSendCredential
		}
		s.trimWindow()
		return actionNone

	case phaseCredentialSent:
		// The first bytes after the credential tell the story: the
		// wrapper either re-prompts (wrong password), prints its
		// rejection text, or starts the command's real output.
		s.window = append(s.window, chunk...)
		if matchAny(s.rejections, s.window) {
			return actionRejected
		}
		if matchAny(s.prompts, s.window) {
			return actionRejected
		}
		// The terminal emits a newline when the credential is
		// submitted; it must not count as the first output line.
		for len(s.window) > 0 && (s.window[0] == '\r' || s.window[0] == '\n') {
			s.window = s.window[1:]
		}
		if bytes.ContainsRune(s.window, '\n') || len(s.window) > promptWindowSize {
			s.flushWindow()
			s.phase = phaseAwaitExit
		}
		return actionNone

	case phaseAwaitExit:
		s.capture(chunk)
		return actionNone
	}
	return actionNone
}

// finish is called at end-of-stream. Output buffered while waiting for
// a prompt that never came is command output from a wrapper that
// skipped prompting.
func (s *scanner) finish() {
	s.flushWindow()
	s.phase = phaseComplete
}

// promptWindowExpired is called when the prompt window elapses with no
// prompt matched. With output in hand the flow proceeds, treating
// everything as command output; with none it reports whether the flow
// may continue (false means prompt timeout).
func (s *scanner) promptWindowExpired() bool {
	if !s.sawOutput {
		return false
	}
	s.flushWindow()
	s.phase = phaseAwaitExit
	return true
}

func (s *scanner) flushWindow() {
	if len(s.window) > 0 {
		s.capture(s.window)
		s.window = s.window[:0]
	}
}

func (s *scanner) capture(b []byte) {
	if s.maxOutput > 0 && int64(s.output.Len())+int64(len(b)) > s.maxOutput {
		keep := s.maxOutput - int64(s.output.Len())
		if keep > 0 {
			s.output.Write(b[:keep])
		}
		s.truncated = true
		return
	}
	s.output.Write(b)
}

func (s *scanner) trimWindow() {
	if len(s.window) > promptWindowSize {
		// Overflow beyond the matching window is already command
		// output, not a prompt.
		excess := len(s.window) - promptWindowSize
		s.capture(s.window[:excess])
		s.window = s.window[excess:]
	}
}

func matchAny(patterns []*regexp.Regexp, b []byte) bool {
	for _, re := range patterns {
		if re.Match(b) {
			return true
		}
	}
	return false
}
