// Package resilience provides fault-tolerance patterns for repeated
// process execution.
//
// This package includes:
//   - Retry: Respawns failed processes with exponential backoff
//   - Breaker: Stops respawning a persistently crashing command
//   - Bulkhead: Caps how many children run concurrently
//
// The patterns compose; executor.Runner chains them in that order:
//
//	br := resilience.NewBreaker(resilience.DefaultBreakerConfig("worker"))
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 4})
//
//	err := br.Execute(func() error {
//	    return bh.Execute(ctx, func() error {
//	        _, err := blocking.Spawn(desc)
//	        return err
//	    })
//	})
package resilience
