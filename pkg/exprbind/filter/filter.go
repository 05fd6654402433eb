package filter

import (
	"errors"
	"fmt"
)

// Sentinel errors for filter registration and resolution.
var (
	// ErrUnknownFilter is returned when a filter name is not registered.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrDuplicateFilter is returned when a name is registered twice.
	ErrDuplicateFilter = errors.New("filter already registered")

	// ErrNoInverse is returned when a write passes through a forward-only
	// filter.
	ErrNoInverse = errors.New("filter has no inverse")
)

// Func transforms a value. args are the evaluated filter arguments in
// source order.
type Func func(v any, args ...any) (any, error)

// Filter is a named transform with an optional inverse. Forward runs when
// a binding is read (model to view); Inverse runs when a two-way binding
// is written (view to model) and returns the pre-image.
type Filter struct {
	Name    string
	Forward Func
	Inverse Func
}

// New creates a forward-only filter.
func New(name string, forward Func) Filter {
	return Filter{Name: name, Forward: forward}
}

// NewTwoWay creates a filter with an inverse.
func NewTwoWay(name string, forward, inverse Func) Filter {
	return Filter{Name: name, Forward: forward, Inverse: inverse}
}

// Invertible reports whether the filter can be applied on writes.
func (f Filter) Invertible() bool {
	return f.Inverse != nil
}

// Apply runs the forward transform.
func (f Filter) Apply(v any, args ...any) (any, error) {
	if f.Forward == nil {
		return v, nil
	}
	return f.Forward(v, args...)
}

// Invert runs the inverse transform. It returns ErrNoInverse for
// forward-only filters.
func (f Filter) Invert(v any, args ...any) (any, error) {
	if f.Inverse == nil {
		return nil, fmt.Errorf("%s: %w", f.Name, ErrNoInverse)
	}
	return f.Inverse(v, args...)
}
