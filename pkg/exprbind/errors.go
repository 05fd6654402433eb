package exprbind

import (
	"errors"

	"github.com/randalmurphal/exprbind/pkg/exprbind/expr"
	"github.com/randalmurphal/exprbind/pkg/exprbind/filter"
	"github.com/randalmurphal/exprbind/pkg/exprbind/observe"
)

// Sentinel errors re-exported so callers need only this package.
var (
	ErrSyntax          = expr.ErrSyntax
	ErrUnknownFilter   = expr.ErrUnknownFilter
	ErrUnassignable    = expr.ErrUnassignable
	ErrNotCallable     = expr.ErrNotCallable
	ErrDuplicateFilter = filter.ErrDuplicateFilter
	ErrObserverClosed  = observe.ErrObserverClosed
	ErrMaxCycles       = observe.ErrMaxCycles
)

// Sentinel errors for text bindings.
var (
	// ErrBindingClosed is returned when using a closed TextBinding.
	ErrBindingClosed = errors.New("text binding is closed")

	// ErrNotTwoWay is returned by SetValue on a text that is not exactly
	// one live binding.
	ErrNotTwoWay = errors.New("text is not a single live binding")
)
