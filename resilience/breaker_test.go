package resilience_test

import (
	"errors"
	"testing"
	"time"

	"github.com/kbukum/commander/resilience"
)

var errCrash = errors.New("child crashed")

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := resilience.NewBreaker(resilience.BreakerConfig{
		Name:        "worker",
		MaxFailures: 3,
		Cooldown:    time.Minute,
	})

	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return errCrash }); !errors.Is(err, errCrash) {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if b.State() != resilience.StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	called := false
	err := b.Execute(func() error { called = true; return nil })
	if !errors.Is(err, resilience.ErrBreakerOpen) {
		t.Errorf("expected ErrBreakerOpen, got %v", err)
	}
	if called {
		t.Error("open breaker must not call fn")
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := resilience.NewBreaker(resilience.BreakerConfig{
		Name:        "worker",
		MaxFailures: 3,
		Cooldown:    time.Minute,
	})

	_ = b.Execute(func() error { return errCrash })
	_ = b.Execute(func() error { return errCrash })
	_ = b.Execute(func() error { return nil })

	if got := b.Failures(); got != 0 {
		t.Errorf("failures = %d after success", got)
	}
	if b.State() != resilience.StateClosed {
		t.Errorf("state = %v, want closed", b.State())
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := resilience.NewBreaker(resilience.BreakerConfig{
		Name:        "worker",
		MaxFailures: 1,
		Cooldown:    10 * time.Millisecond,
	})

	_ = b.Execute(func() error { return errCrash })
	if b.State() != resilience.StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	time.Sleep(20 * time.Millisecond)
	if b.State() != resilience.StateHalfOpen {
		t.Fatalf("state = %v, want half-open after cooldown", b.State())
	}

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if b.State() != resilience.StateClosed {
		t.Errorf("state = %v, want closed after successful probe", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := resilience.NewBreaker(resilience.BreakerConfig{
		Name:        "worker",
		MaxFailures: 1,
		Cooldown:    10 * time.Millisecond,
	})

	_ = b.Execute(func() error { return errCrash })
	time.Sleep(20 * time.Millisecond)

	_ = b.Execute(func() error { return errCrash })
	if b.State() != resilience.StateOpen {
		t.Errorf("state = %v, want open after failed probe", b.State())
	}
}

func TestBreakerStateChangeCallback(t *testing.T) {
	var transitions []string
	b := resilience.NewBreaker(resilience.BreakerConfig{
		Name:        "worker",
		MaxFailures: 1,
		Cooldown:    time.Minute,
		OnStateChange: func(name string, from, to resilience.State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = b.Execute(func() error { return errCrash })
	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("transitions = %v", transitions)
	}
}
