package filter

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry maps filter names to filters. Names are unique within one
// registry.
//
// Safe for concurrent use; lookups take a read lock only.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]Filter
}

// Option configures a Registry.
type Option func(*Registry) error

// NewRegistry creates a registry and applies opts in order.
func NewRegistry(opts ...Option) (*Registry, error) {
	r := &Registry{filters: make(map[string]Filter)}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error.
func MustNewRegistry(opts ...Option) *Registry {
	r, err := NewRegistry(opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// With registers filters as part of construction.
func With(filters ...Filter) Option {
	return func(r *Registry) error {
		for _, f := range filters {
			if err := r.Add(f); err != nil {
				return err
			}
		}
		return nil
	}
}

// Register adds a filter. inverse may be nil for a forward-only filter.
func (r *Registry) Register(name string, forward, inverse Func) error {
	return r.Add(Filter{Name: name, Forward: forward, Inverse: inverse})
}

// Add adds f under f.Name.
func (r *Registry) Add(f Filter) error {
	if f.Name == "" {
		return errors.New("filter name is required")
	}
	if f.Forward == nil {
		return fmt.Errorf("filter %q: forward function is required", f.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.filters[f.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateFilter, f.Name)
	}
	r.filters[f.Name] = f
	return nil
}

// MustRegister registers a filter, panicking on error.
func (r *Registry) MustRegister(name string, forward, inverse Func) {
	if err := r.Register(name, forward, inverse); err != nil {
		panic(err)
	}
}

// Resolve returns the filter registered under name. It fails with
// ErrUnknownFilter when there is none.
func (r *Registry) Resolve(name string) (Filter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.filters[name]
	if !ok {
		return Filter{}, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	return f, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.filters[name]
	return ok
}

// Unregister removes a filter. Removing an unknown name is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.filters, name)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered filters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filters)
}
