// Package executor unifies the execution strategies behind one
// interface so callers can pick a strategy by name and wrap it with
// resilience policies.
//
//	exec, _ := executor.DefaultRegistry(log).Get(executor.NameBlocking)
//	res, err := exec.Execute(ctx, desc, executor.Options{Input: in})
//
// Runner layers respawn retry, a crash breaker and a concurrency
// bulkhead around any Executor:
//
//	r := executor.NewRunner(exec, executor.RunnerConfig{
//	    Retry: &resilience.RetryConfig{MaxAttempts: 3},
//	})
//	res, err := r.Run(ctx, desc, executor.Options{})
package executor
