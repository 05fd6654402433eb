package expr

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/exprbind/pkg/exprbind/filter"
	"github.com/randalmurphal/exprbind/pkg/exprbind/value"
)

// Sentinel errors for parsing and evaluation.
var (
	// ErrSyntax indicates malformed expression source.
	ErrSyntax = errors.New("syntax error")

	// ErrUnassignable indicates a write to an expression that is not an
	// assignable reference, or through a filter without an inverse.
	ErrUnassignable = errors.New("expression is not assignable")

	// ErrUnknownFilter indicates a filter name that resolves to nothing.
	ErrUnknownFilter = filter.ErrUnknownFilter

	// ErrNotCallable indicates a call on a value that is not a function.
	ErrNotCallable = value.ErrNotCallable
)

// SyntaxError describes a parse failure.
type SyntaxError struct {
	// Source is the full expression source.
	Source string
	// Pos is the byte offset of the offending token.
	Pos int
	// Token is the offending token text.
	Token string
	// Msg describes what was expected.
	Msg string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("syntax error at position %d near %q: %s", e.Pos, e.Token, e.Msg)
}

// Unwrap returns ErrSyntax for errors.Is support.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// AssignError describes a rejected two-way write.
type AssignError struct {
	// Expr is the source of the expression being written.
	Expr string
	// Reason describes why the write was rejected.
	Reason string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *AssignError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot assign to %q: %s: %v", e.Expr, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot assign to %q: %s", e.Expr, e.Reason)
}

// Unwrap returns ErrUnassignable and the underlying error.
func (e *AssignError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUnassignable, e.Err}
	}
	return []error{ErrUnassignable}
}

// FilterError wraps a failure to resolve or apply a filter.
type FilterError struct {
	// Name is the filter name.
	Name string
	// Inverse is true when the failure happened on the write path.
	Inverse bool
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *FilterError) Error() string {
	dir := "forward"
	if e.Inverse {
		dir = "inverse"
	}
	return fmt.Sprintf("filter %s (%s): %v", e.Name, dir, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *FilterError) Unwrap() error {
	return e.Err
}

// CallError wraps a failure of a function called from an expression.
type CallError struct {
	// Name is the callee as written in the expression.
	Name string
	// Err is the error returned by the function, or a PanicError.
	Err error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	return fmt.Sprintf("call %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CallError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised by a user function, filter or model
// accessor.
type PanicError struct {
	// Value is the value passed to panic().
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
