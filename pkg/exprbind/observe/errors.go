package observe

import (
	"errors"
	"fmt"
)

// Sentinel errors for observer lifecycle and checkpoints.
var (
	// ErrObserverClosed is returned when opening or writing through a
	// closed observer.
	ErrObserverClosed = errors.New("observer is closed")

	// ErrObserverOpen is returned when Open is called twice.
	ErrObserverOpen = errors.New("observer is already open")

	// ErrMaxCycles is reported when a checkpoint does not stabilize within
	// the configured number of dirty-check cycles.
	ErrMaxCycles = errors.New("checkpoint did not stabilize")

	// ErrRunning is returned when Run is called on a runtime whose loop is
	// already running.
	ErrRunning = errors.New("runtime loop already running")
)

// BindingError is delivered to the error sink when evaluating an observer
// or running its callback fails. The observer stays open.
type BindingError struct {
	// ObserverID identifies the observer.
	ObserverID string
	// Expr is the expression source.
	Expr string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *BindingError) Error() string {
	return fmt.Sprintf("binding %q: %v", e.Expr, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *BindingError) Unwrap() error {
	return e.Err
}

// CallbackPanicError captures a panic raised by an observer callback.
type CallbackPanicError struct {
	Value any
}

// Error implements the error interface.
func (e *CallbackPanicError) Error() string {
	return fmt.Sprintf("callback panic: %v", e.Value)
}
