package executor

import (
	"context"
	"time"

	"github.com/kbukum/commander/command"
	"github.com/kbukum/commander/errors"
	"github.com/kbukum/commander/logger"
	"github.com/kbukum/commander/resilience"
)

// RunnerConfig bundles optional resilience policies for a Runner. Nil
// fields are skipped; the zero value is pure passthrough.
type RunnerConfig struct {
	// Retry respawns failed executions with exponential backoff.
	Retry *resilience.RetryConfig
	// Breaker stops respawning after repeated failures.
	Breaker *resilience.BreakerConfig
	// Bulkhead caps concurrent executions through this runner.
	Bulkhead *resilience.BulkheadConfig
}

// IsEmpty reports whether no policy is configured.
func (c RunnerConfig) IsEmpty() bool {
	return c.Retry == nil && c.Breaker == nil && c.Bulkhead == nil
}

// Runner wraps an Executor with persistent resilience state. Create one
// with NewRunner and call Run repeatedly; breaker state persists across
// calls, so a command that keeps crashing eventually fails fast.
type Runner struct {
	exec     Executor
	retryCfg *resilience.RetryConfig
	breaker  *resilience.Breaker
	bulkhead *resilience.Bulkhead
	log      *logger.Logger
}

// NewRunner creates a Runner around exec. A nil logger means silent.
func NewRunner(exec Executor, cfg RunnerConfig, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	r := &Runner{
		exec:     exec,
		retryCfg: cfg.Retry,
		log:      log.WithComponent("runner"),
	}
	if cfg.Breaker != nil {
		r.breaker = resilience.NewBreaker(*cfg.Breaker)
	}
	if cfg.Bulkhead != nil {
		r.bulkhead = resilience.NewBulkhead(*cfg.Bulkhead)
	}
	return r
}

// Run executes the descriptor through the chain
// Bulkhead → Breaker → Retry → Executor. A non-zero exit code is not a
// failure for resilience purposes; only typed errors count.
func (r *Runner) Run(ctx context.Context, d *command.Descriptor, opts Options) (*command.Result, error) {
	call := func() (*command.Result, error) {
		return r.exec.Execute(ctx, d, opts)
	}

	if r.retryCfg != nil {
		retryCfg := *r.retryCfg
		if retryCfg.OnRetry == nil {
			retryCfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
				r.log.Warn("respawning after failure", logger.Fields(
					logger.FieldBinary, d.Program(),
					logger.FieldError, err.Error(),
					"attempt", attempt,
				))
			}
		}
		inner := call
		call = func() (*command.Result, error) {
			return resilience.Retry(ctx, retryCfg, inner)
		}
	}

	if r.breaker != nil {
		inner := call
		call = func() (*command.Result, error) {
			var result *command.Result
			var callErr error
			brErr := r.breaker.Execute(func() error {
				result, callErr = inner()
				return callErr
			})
			if brErr != nil && callErr == nil {
				return nil, errors.SpawnFailed(d.Program(), brErr)
			}
			return result, callErr
		}
	}

	if r.bulkhead != nil {
		return resilience.ExecuteWithResult(r.bulkhead, ctx, call)
	}

	return call()
}
