package executor

import (
	"context"
	"os/exec"
	"time"

	"github.com/kbukum/commander/async"
	"github.com/kbukum/commander/blocking"
	"github.com/kbukum/commander/command"
	"github.com/kbukum/commander/elevate"
	"github.com/kbukum/commander/logger"
)

// Well-known executor names.
const (
	NameBlocking = "blocking"
	NameAsync    = "async"
	NameElevated = "elevated"
)

// Options carries per-execution inputs shared by all strategies.
type Options struct {
	// Input is fed to the child's stdin.
	Input []byte
	// MaxOutput caps each captured stream. Zero means unlimited.
	MaxOutput int64
	// Timeout bounds the execution. Zero means unbounded.
	Timeout time.Duration
	// Credential is the password for the elevated executor; ignored by
	// the others.
	Credential string
	// Elevate tunes the elevated executor; ignored by the others.
	Elevate elevate.Config
}

// Executor runs a command descriptor to completion and returns its
// Exit Result with captured output.
type Executor interface {
	// Name identifies the executor.
	Name() string
	// IsAvailable reports whether this executor can run here.
	IsAvailable(ctx context.Context) bool
	// Execute runs the descriptor through the strategy.
	Execute(ctx context.Context, d *command.Descriptor, opts Options) (*command.Result, error)
}

// Blocking runs descriptors through the synchronous strategy.
type Blocking struct {
	log *logger.Logger
}

// NewBlocking creates the blocking executor. A nil logger means silent.
func NewBlocking(log *logger.Logger) *Blocking {
	if log == nil {
		log = logger.Nop()
	}
	return &Blocking{log: log}
}

func (e *Blocking) Name() string { return NameBlocking }

func (e *Blocking) IsAvailable(_ context.Context) bool { return true }

func (e *Blocking) Execute(_ context.Context, d *command.Descriptor, opts Options) (*command.Result, error) {
	p, err := blocking.Spawn(d, blocking.WithLogger(e.log))
	if err != nil {
		return nil, err
	}
	return p.Communicate(blocking.CommunicateOptions{
		Input:     opts.Input,
		MaxOutput: opts.MaxOutput,
		Timeout:   opts.Timeout,
	})
}

// Async runs descriptors through the cooperative strategy.
type Async struct {
	log *logger.Logger
}

// NewAsync creates the async executor. A nil logger means silent.
func NewAsync(log *logger.Logger) *Async {
	if log == nil {
		log = logger.Nop()
	}
	return &Async{log: log}
}

func (e *Async) Name() string { return NameAsync }

func (e *Async) IsAvailable(_ context.Context) bool { return true }

func (e *Async) Execute(ctx context.Context, d *command.Descriptor, opts Options) (*command.Result, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	p, err := async.Spawn(d, async.WithLogger(e.log))
	if err != nil {
		return nil, err
	}
	return p.Communicate(ctx, async.CommunicateOptions{
		Input:     opts.Input,
		MaxOutput: opts.MaxOutput,
	})
}

// Elevated runs descriptors through the privileged-execution flow.
type Elevated struct {
	log *logger.Logger
}

// NewElevated creates the elevated executor. A nil logger means silent.
func NewElevated(log *logger.Logger) *Elevated {
	if log == nil {
		log = logger.Nop()
	}
	return &Elevated{log: log}
}

func (e *Elevated) Name() string { return NameElevated }

// IsAvailable reports whether the configured elevation wrapper exists
// on PATH.
func (e *Elevated) IsAvailable(_ context.Context) bool {
	_, err := exec.LookPath("sudo")
	return err == nil
}

func (e *Elevated) Execute(ctx context.Context, d *command.Descriptor, opts Options) (*command.Result, error) {
	cfg := opts.Elevate
	if cfg.MaxOutput == 0 {
		cfg.MaxOutput = opts.MaxOutput
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	return elevate.Run(ctx, d, opts.Credential, cfg, elevate.WithLogger(e.log))
}
