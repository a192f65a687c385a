package executor_test

import (
	"context"
	goerrors "errors"
	"strings"
	"testing"

	"github.com/kbukum/commander/command"
	"github.com/kbukum/commander/errors"
	"github.com/kbukum/commander/executor"
)

func mustBuild(t *testing.T, b *command.Builder) *command.Descriptor {
	t.Helper()
	d, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return d
}

func TestBlockingExecutorRoundTrip(t *testing.T) {
	e := executor.NewBlocking(nil)
	d := mustBuild(t, command.New("cat"))

	res, err := e.Execute(context.Background(), d, executor.Options{Input: []byte("via blocking")})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if string(res.Stdout) != "via blocking" {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

func TestAsyncExecutorRoundTrip(t *testing.T) {
	e := executor.NewAsync(nil)
	d := mustBuild(t, command.New("cat"))

	res, err := e.Execute(context.Background(), d, executor.Options{Input: []byte("via async")})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if string(res.Stdout) != "via async" {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

func TestExecutorExitCodePassthrough(t *testing.T) {
	e := executor.NewBlocking(nil)
	d := mustBuild(t, command.New("sh").Args("-c", "echo partial; exit 9"))

	res, err := e.Execute(context.Background(), d, executor.Options{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.ExitCode != 9 {
		t.Errorf("exit code = %d", res.ExitCode)
	}
	if !strings.Contains(string(res.Stdout), "partial") {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

func TestRegistryStockStrategies(t *testing.T) {
	r := executor.DefaultRegistry(nil)

	want := []string{executor.NameAsync, executor.NameBlocking, executor.NameElevated}
	got := r.List()
	if len(got) != len(want) {
		t.Fatalf("list = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("list[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	e, err := r.Get(executor.NameBlocking)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e.Name() != executor.NameBlocking {
		t.Errorf("name = %q", e.Name())
	}
}

func TestRegistryUnknownExecutor(t *testing.T) {
	r := executor.NewRegistry()
	_, err := r.Get("teleport")
	if !errors.HasCode(err, errors.ErrCodeInvalidCommand) {
		t.Errorf("expected INVALID_COMMAND, got %v", err)
	}
}

// flakyExecutor fails a fixed number of times before succeeding.
type flakyExecutor struct {
	failures int
	calls    int
}

func (f *flakyExecutor) Name() string                         { return "flaky" }
func (f *flakyExecutor) IsAvailable(_ context.Context) bool   { return true }
func (f *flakyExecutor) Execute(_ context.Context, _ *command.Descriptor, _ executor.Options) (*command.Result, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.SpawnFailed("flaky", goerrors.New("transient"))
	}
	return &command.Result{ExitCode: 0}, nil
}
