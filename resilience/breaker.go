package resilience

import (
	"errors"
	"sync"
	"time"
)

// State represents the breaker state.
type State int

const (
	// StateClosed allows spawns to proceed.
	StateClosed State = iota
	// StateOpen blocks all spawns.
	StateOpen
	// StateHalfOpen allows limited probe spawns to test recovery.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned while the breaker refuses spawns.
var ErrBreakerOpen = errors.New("breaker is open")

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// Name identifies this breaker for logging.
	Name string
	// MaxFailures is the number of consecutive failures before opening.
	MaxFailures int
	// Cooldown is how long to stay open before probing again.
	Cooldown time.Duration
	// HalfOpenMaxCalls is the number of probes allowed in half-open state.
	HalfOpenMaxCalls int
	// OnStateChange is called when state changes.
	OnStateChange func(name string, from, to State)
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxFailures:      5,
		Cooldown:         30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// Breaker stops respawning a command that keeps crashing. A crashing
// child consumes a pid, a pty and pipe descriptors every time; the
// breaker fails fast instead of churning through them.
//
// States:
//   - Closed: spawns proceed normally
//   - Open: spawns fail immediately with ErrBreakerOpen
//   - Half-Open: a limited number of probe spawns test recovery
type Breaker struct {
	config BreakerConfig

	mu            sync.RWMutex
	state         State
	failures      int
	successes     int
	lastFailure   time.Time
	halfOpenCalls int
}

// NewBreaker creates a breaker in the closed state.
func NewBreaker(config BreakerConfig) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 30 * time.Second
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 1
	}
	return &Breaker{config: config, state: StateClosed}
}

// Execute runs fn through the breaker. Returns ErrBreakerOpen without
// calling fn while the breaker is open.
func (b *Breaker) Execute(fn func() error) error {
	if !b.allow() {
		return ErrBreakerOpen
	}
	err := fn()
	b.record(err)
	return err
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.currentState()
}

// Failures returns the consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.failures
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.toState(StateClosed)
	b.failures = 0
	b.successes = 0
	b.halfOpenCalls = 0
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s := b.currentState(); s != b.state {
		b.toState(s)
	}

	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.halfOpenCalls < b.config.HalfOpenMaxCalls {
			b.halfOpenCalls++
			return true
		}
		return false
	default:
		return false
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s := b.currentState(); s != b.state {
		b.toState(s)
	}

	if err != nil {
		b.onFailure()
	} else {
		b.onSuccess()
	}
}

func (b *Breaker) onSuccess() {
	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.config.HalfOpenMaxCalls {
			b.toState(StateClosed)
		}
	}
}

func (b *Breaker) onFailure() {
	b.failures++
	b.lastFailure = time.Now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.config.MaxFailures {
			b.toState(StateOpen)
		}
	case StateHalfOpen:
		b.toState(StateOpen)
	}
}

// currentState reports the effective state, accounting for an elapsed
// cooldown. It never mutates; write-lock paths materialize the
// transition via toState so probe counters reset exactly once.
func (b *Breaker) currentState() State {
	if b.state == StateOpen && time.Since(b.lastFailure) >= b.config.Cooldown {
		return StateHalfOpen
	}
	return b.state
}

func (b *Breaker) toState(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to

	b.halfOpenCalls = 0
	b.successes = 0
	if to == StateClosed {
		b.failures = 0
	}

	if b.config.OnStateChange != nil {
		b.config.OnStateChange(b.config.Name, from, to)
	}
}
