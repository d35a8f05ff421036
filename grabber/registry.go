package grabber

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Factory wraps a loaded Base into a concrete strategy
type Factory func(base *Base) Strategy

type RegistryOption func(r *Registry)

// WithFallback sets the factory used for banks without a
// specialized strategy. Defaults to NewCommon
func WithFallback(f Factory) RegistryOption {
	return func(r *Registry) {
		r.fallback = f
	}
}

// WithFetcher sets the page fetcher handed to every strategy
func WithFetcher(f *Fetcher) RegistryOption {
	return func(r *Registry) {
		r.fetcher = f
	}
}

// Registry resolves bank names to strategies.
// All strategies it creates share one checker table
type Registry struct {
	metadata MetadataSource
	table    *CheckerTable
	fetcher  *Fetcher

	factories map[string]Factory
	fallback  Factory

	mu sync.RWMutex
}

// NewRegistry creates a new strategy registry
func NewRegistry(
	metadata MetadataSource,
	reference CurrencyReference,
	opts ...RegistryOption,
) *Registry {
	r := &Registry{
		metadata:  metadata,
		table:     NewCheckerTable(reference),
		factories: make(map[string]Factory),
		fallback:  NewCommon,
	}

	// Apply the options
	for _, opt := range opts {
		opt(r)
	}

	if r.fetcher == nil {
		r.fetcher = NewFetcher()
	}

	return r
}

// Register registers a specialized strategy under the given bank name.
// It is meant to be called on process start, and panics on misuse
func (r *Registry) Register(name string, f Factory) {
	if name == "" {
		panic("grabber: Register called with empty name")
	}

	if f == nil {
		panic(fmt.Sprintf("grabber: Register(%q) called with nil factory", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("grabber: Register called twice for %q", name))
	}

	r.factories[name] = f
}

// Resolve creates a new strategy instance for the given bank.
// Names without a specialized strategy get the fallback strategy
func (r *Registry) Resolve(ctx context.Context, name string) (Strategy, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		factory = r.fallback
	}

	base, err := NewBase(ctx, name, r.metadata, r.table, r.fetcher)
	if err != nil {
		return nil, err
	}

	return factory(base), nil
}

// Names returns the sorted names of the specialized strategies
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.factories))
}

// Table returns the checker table shared by the registry's strategies
func (r *Registry) Table() *CheckerTable {
	return r.table
}
