package elevate

import (
	"context"
	goerrors "errors"
	"io"
	"os"
	"regexp"
	"syscall"
	"time"

	"github.com/kbukum/commander/blocking"
	"github.com/kbukum/commander/command"
	cerrors "github.com/kbukum/commander/errors"
	"github.com/kbukum/commander/logger"
)

// Config tunes the privileged-execution flow. The zero value elevates
// through sudo with the stock prompt and rejection patterns.
type Config struct {
	// Wrapper is the elevation program. Defaults to "sudo".
	Wrapper string
	// WrapperArgs are passed to the wrapper before the target command.
	WrapperArgs []string
	// Prompts are regular expressions recognized as a password prompt.
	Prompts []string
	// Rejections are regular expressions recognized as the wrapper
	// refusing the credential.
	Rejections []string
	// PromptTimeout bounds how long the flow waits for the first pty
	// output before giving up. Defaults to 10s.
	PromptTimeout time.Duration
	// MaxOutput caps the captured output in bytes. Zero means unlimited.
	MaxOutput int64
}

var (
	defaultPrompts = []string{
		`(?i)\[sudo\] password for [^:]+:\s*$`,
		`(?i)password[^\n]*:\s*$`,
	}
	defaultRejections = []string{
		`(?i)sorry, try again`,
		`(?i)incorrect password`,
		`(?i)authentication fail`,
	}
)

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	log *logger.Logger
}

// WithLogger attaches a logger to the flow. Without it the flow is
// silent.
func WithLogger(l *logger.Logger) Option {
	return func(c *runConfig) { c.log = l }
}

// Run executes target through the elevation wrapper on a pty, feeding
// credential when the wrapper prompts for it. It returns the wrapper's
// Exit Result with the captured pty output in Stdout; pty mode merges
// the child's stderr into the same stream.
//
// Failure modes are typed: PTY_UNAVAILABLE when no pty can be
// allocated, CREDENTIAL_REJECTED when the wrapper refuses the
// credential, PROMPT_TIMEOUT when the wrapper produces no output
// within the prompt window. Cancelling ctx terminates the child.
func Run(ctx context.Context, target *command.Descriptor, credential string, cfg Config, opts ...Option) (*command.Result, error) {
	rc := runConfig{log: logger.Nop()}
	for _, opt := range opts {
		opt(&rc)
	}
	log := rc.log.WithComponent("elevate")

	prompts, rejections, err := compilePatterns(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.PromptTimeout <= 0 {
		cfg.PromptTimeout = 10 * time.Second
	}
	wrapper := cfg.Wrapper
	if wrapper == "" {
		wrapper = "sudo"
	}

	argv := append([]string{}, cfg.WrapperArgs...)
	argv = append(argv, target.Program())
	argv = append(argv, target.Args()...)

	b := command.New(wrapper).Args(argv...).Pty().GracePeriod(target.GracePeriod())
	if target.Dir() != "" {
		b.Dir(target.Dir())
	}
	d, err := b.Build()
	if err != nil {
		return nil, err
	}

	log.Debug("starting flow", logger.Fields(
		logger.FieldPhase, phaseIdle.String(),
		logger.FieldBinary, wrapper,
	))

	p, err := blocking.Spawn(d, blocking.WithLogger(rc.log))
	if err != nil {
		// Spawn distinguishes PTY_UNAVAILABLE from SPAWN_FAILED itself.
		return nil, err
	}
	log.Debug("wrapper running", logger.Fields(
		logger.FieldPhase, phaseSpawned.String(),
		logger.FieldPID, p.PID(),
	))

	sc := newScanner(prompts, rejections, cfg.MaxOutput)
	if err := pump(ctx, p, sc, credential, cfg.PromptTimeout, log); err != nil {
		_ = p.Kill()
		_, _ = p.Wait()
		_ = p.Close()
		return nil, err
	}

	res, err := p.Wait()
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	_ = p.Close()

	res.Stdout = sc.output.Bytes()
	res.Truncated = sc.truncated
	log.Debug("flow complete", logger.Fields(
		logger.FieldPhase, phaseComplete.String(),
		logger.FieldExitCode, res.ExitCode,
	))
	return res, nil
}

// pump drives the scanner over the pty master until end-of-stream.
// A pty master does not honor file read deadlines, so the blocking
// read runs on its own goroutine delivering chunks over a channel and
// the loop selects between chunks, the prompt timer and cancellation.
// On an error return the caller closes the handle, which unblocks the
// reader; the quit channel keeps its late sends from leaking it.
func pump(ctx context.Context, p *blocking.Process, sc *scanner, credential string, promptTimeout time.Duration, log *logger.Logger) error {
	master := p.Pty()

	chunks := make(chan []byte)
	readErr := make(chan error, 1)
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := master.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case chunks <- chunk:
				case <-quit:
					return
				}
			}
			if err != nil {
				select {
				case readErr <- err:
				case <-quit:
				}
				return
			}
		}
	}()

	promptTimer := time.NewTimer(promptTimeout)
	defer promptTimer.Stop()
	// window goes nil once the prompt phase is over; a nil channel
	// never fires in the select.
	window := promptTimer.C

	for {
		select {
		case <-ctx.Done():
			return cerrors.CommunicateFailed("context cancelled", ctx.Err())

		case <-window:
			window = nil
			if sc.phase != phaseAwaitPrompt {
				continue
			}
			if !sc.promptWindowExpired() {
				return cerrors.PromptTimeout(promptTimeout.String())
			}
			log.Debug("no prompt, treating output as command output", logger.Fields(
				logger.FieldPhase, phaseAwaitExit.String(),
			))

		case chunk := <-chunks:
			switch sc.feed(chunk) {
			case actionSendCredential:
				log.Debug("prompt detected", logger.Fields(
					logger.FieldPhase, phaseCredentialSent.String(),
				))
				if _, werr := master.Write(append([]byte(credential), '\n')); werr != nil {
					return cerrors.WriteFailed(werr)
				}
			case actionRejected:
				log.Warn("credential rejected", logger.Fields(
					logger.FieldPhase, sc.phase.String(),
				))
				return cerrors.CredentialRejected()
			}
			if sc.phase != phaseAwaitPrompt {
				window = nil
			}

		case rerr := <-readErr:
			if isPtyEnd(rerr) {
				sc.finish()
				return nil
			}
			return cerrors.ReadFailed("pty", rerr)
		}
	}
}

func compilePatterns(cfg Config) (prompts, rejections []*regexp.Regexp, err error) {
	promptSrc := cfg.Prompts
	if len(promptSrc) == 0 {
		promptSrc = defaultPrompts
	}
	rejectSrc := cfg.Rejections
	if len(rejectSrc) == 0 {
		rejectSrc = defaultRejections
	}

	for _, src := range promptSrc {
		re, cerr := regexp.Compile(src)
		if cerr != nil {
			return nil, nil, cerrors.InvalidCommand("invalid prompt pattern: " + src)
		}
		prompts = append(prompts, re)
	}
	for _, src := range rejectSrc {
		re, cerr := regexp.Compile(src)
		if cerr != nil {
			return nil, nil, cerrors.InvalidCommand("invalid rejection pattern: " + src)
		}
		rejections = append(rejections, re)
	}
	return prompts, rejections, nil
}

// isPtyEnd reports end-of-stream on the master. Linux raises EIO once
// the slave side is fully closed.
func isPtyEnd(err error) bool {
	return goerrors.Is(err, io.EOF) ||
		goerrors.Is(err, syscall.EIO) ||
		goerrors.Is(err, os.ErrClosed)
}
