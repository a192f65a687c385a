package executor

import (
	"sort"
	"sync"

	"github.com/kbukum/commander/errors"
	"github.com/kbukum/commander/logger"
)

// Registry manages named executors.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

// DefaultRegistry returns a registry with the three stock strategies
// registered, all sharing the given logger.
func DefaultRegistry(log *logger.Logger) *Registry {
	r := NewRegistry()
	r.Register(NewBlocking(log))
	r.Register(NewAsync(log))
	r.Register(NewElevated(log))
	return r
}

// Register adds an executor under its own name, replacing any previous
// registration.
func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[e.Name()] = e
}

// Get returns the executor registered under name.
func (r *Registry) Get(name string) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[name]
	if !ok {
		return nil, errors.InvalidCommand("unknown executor: " + name)
	}
	return e, nil
}

// List returns the sorted names of all registered executors.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.executors))
	for name := range r.executors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
