package expr

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/exprbind/pkg/exprbind/filter"
	"github.com/randalmurphal/exprbind/pkg/exprbind/value"
)

// Recorder receives every property read an evaluation performs on a
// non-primitive object. Observers use it to build their dependency set.
type Recorder interface {
	Record(obj, key, v any)
}

// FilterResolver looks up filters by name. *filter.Registry implements it.
type FilterResolver interface {
	Resolve(name string) (filter.Filter, error)
}

// Evaluator evaluates parsed expressions against a scope chain.
// It holds no per-evaluation state and is safe for concurrent use as long
// as the models it evaluates against are not mutated concurrently.
type Evaluator struct {
	filters FilterResolver
	strict  bool
	logger  *slog.Logger
	cache   *Cache
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithFilters sets the registry used to resolve pipe filters.
func WithFilters(r FilterResolver) Option {
	return func(e *Evaluator) {
		e.filters = r
	}
}

// WithStrict controls writes to unassignable expressions. Strict
// evaluators (the default) return an error wrapping ErrUnassignable; lax
// evaluators drop the write and log it at debug level.
func WithStrict(strict bool) Option {
	return func(e *Evaluator) {
		e.strict = strict
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCache sets the parse cache used by Evaluator.Parse.
func WithCache(c *Cache) Option {
	return func(e *Evaluator) {
		if c != nil {
			e.cache = c
		}
	}
}

// New creates a new Evaluator with the given options.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{strict: true, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = NewCache(DefaultCacheSize)
	}
	return e
}

var defaultEvaluator = New()

// Eval is a convenience function that parses source and evaluates it
// against model using the default evaluator (no filters).
func Eval(source string, model any) (any, error) {
	x, err := defaultEvaluator.Parse(source)
	if err != nil {
		return value.Undefined, err
	}
	return defaultEvaluator.Evaluate(x, NewScope(model))
}

// Parse parses source through the evaluator's cache.
func (e *Evaluator) Parse(source string) (*Expression, error) {
	return e.cache.Parse(source)
}

// Cache returns the parse cache.
func (e *Evaluator) Cache() *Cache {
	return e.cache
}

// Strict reports whether unassignable writes are errors.
func (e *Evaluator) Strict() bool {
	return e.strict
}

// Evaluate computes the value of x in scope. A top-level scope clause is
// ignored: "a as b" and "b in a" both evaluate a. On error the value is
// Undefined.
func (e *Evaluator) Evaluate(x *Expression, scope *Scope) (any, error) {
	return e.EvaluateTracked(x, scope, nil)
}

// EvaluateTracked is Evaluate, reporting every property read to rec.
// A panic raised by a model accessor is returned as a *PanicError.
func (e *Evaluator) EvaluateTracked(x *Expression, scope *Scope, rec Recorder) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = value.Undefined, &PanicError{Value: r}
		}
	}()

	s := e.newState(x, scope, rec)
	v, err = s.eval(x.Body())
	if err != nil {
		return value.Undefined, err
	}
	return v, nil
}

// EvaluateAndSet writes v through x, the inverse of Evaluate. x must be an
// identifier or a member/index chain, optionally piped through filters
// that all have an inverse. Inverses apply right to left. Filter arguments
// and the objects along the chain are evaluated normally.
func (e *Evaluator) EvaluateAndSet(x *Expression, scope *Scope, v any) error {
	return e.EvaluateAndSetTracked(x, scope, v, nil)
}

// EvaluateAndSetTracked is EvaluateAndSet, reporting the reads performed
// while locating the target to rec.
func (e *Evaluator) EvaluateAndSetTracked(x *Expression, scope *Scope, v any, rec Recorder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()

	s := e.newState(x, scope, rec)

	if a, ok := x.Alias(); ok && a.Iterate {
		err = s.unassignable("iteration clause", nil)
	} else {
		err = s.assign(x.Body(), v)
	}
	if err == nil {
		return nil
	}

	if !e.strict && errors.Is(err, ErrUnassignable) {
		e.logger.Debug("dropped write to unassignable expression",
			slog.String("expr", x.Source()),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return err
}

func (e *Evaluator) newState(x *Expression, scope *Scope, rec Recorder) *state {
	if scope == nil {
		scope = NewScope(nil)
	}
	return &state{ev: e, source: x.Source(), scope: scope, rec: rec}
}

// state carries one evaluation.
type state struct {
	ev     *Evaluator
	source string
	scope  *Scope
	rec    Recorder
}

func (s *state) eval(n Node) (any, error) {
	switch n := n.(type) {
	case nil:
		return s.scope.Model(), nil

	case *Literal:
		return n.Value, nil

	case *Identifier:
		return s.ident(n.Name), nil

	case *MemberAccess:
		obj, err := s.eval(n.Object)
		if err != nil {
			return nil, err
		}
		return s.get(obj, n.Name), nil

	case *IndexAccess:
		obj, err := s.eval(n.Object)
		if err != nil {
			return nil, err
		}
		idx, err := s.eval(n.Index)
		if err != nil {
			return nil, err
		}
		return s.get(obj, idx), nil

	case *UnaryOp:
		operand, err := s.eval(n.Operand)
		if err != nil {
			return nil, err
		}
		return Unary(n.Op, operand)

	case *BinaryOp:
		return s.binary(n)

	case *Conditional:
		test, err := s.eval(n.Test)
		if err != nil {
			return nil, err
		}
		if value.IsTruthy(test) {
			return s.eval(n.Then)
		}
		return s.eval(n.Else)

	case *Call:
		return s.call(n)

	case *ArrayLiteral:
		return s.evalList(n.Elements)

	case *ObjectLiteral:
		m := value.NewMap()
		for _, p := range n.Properties {
			v, err := s.eval(p.Value)
			if err != nil {
				return nil, err
			}
			m.Put(p.Key, v)
		}
		return m, nil

	case *Filter:
		return s.filter(n)

	case *ScopeAlias:
		return s.eval(n.Expr)

	default:
		return nil, fmt.Errorf("unsupported node %T", n)
	}
}

func (s *state) ident(name string) any {
	if v, ok := s.scope.Lookup(name); ok {
		return v
	}
	return s.get(s.scope.Model(), name)
}

// get reads obj[key] and records the read for non-primitive objects.
func (s *state) get(obj, key any) any {
	v := value.Get(obj, key)
	if s.rec != nil && !value.IsPrimitive(obj) {
		s.rec.Record(obj, key, v)
	}
	return v
}

func (s *state) binary(n *BinaryOp) (any, error) {
	left, err := s.eval(n.Left)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "&&":
		if !value.IsTruthy(left) {
			return left, nil
		}
		return s.eval(n.Right)
	case "||":
		if value.IsTruthy(left) {
			return left, nil
		}
		return s.eval(n.Right)
	}

	right, err := s.eval(n.Right)
	if err != nil {
		return nil, err
	}
	return Binary(n.Op, left, right)
}

func (s *state) evalList(nodes []Node) ([]any, error) {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		v, err := s.eval(n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// call invokes a function. a.f(x) passes a as the receiver of a
// value.Method; any other callee receives the scope's model.
func (s *state) call(n *Call) (any, error) {
	var fn, this any
	if m, ok := n.Callee.(*MemberAccess); ok {
		obj, err := s.eval(m.Object)
		if err != nil {
			return nil, err
		}
		this = obj
		fn = s.get(obj, m.Name)
	} else {
		callee, err := s.eval(n.Callee)
		if err != nil {
			return nil, err
		}
		this = s.scope.Model()
		fn = callee
	}

	args, err := s.evalList(n.Args)
	if err != nil {
		return nil, err
	}

	out, err := safeCall(func() (any, error) {
		return value.Call(fn, this, args)
	})
	if err != nil {
		return nil, &CallError{Name: n.Callee.String(), Err: err}
	}
	return out, nil
}

func (s *state) filter(n *Filter) (any, error) {
	in, err := s.eval(n.Input)
	if err != nil {
		return nil, err
	}
	f, err := s.resolveFilter(n.Name)
	if err != nil {
		return nil, err
	}
	args, err := s.evalList(n.Args)
	if err != nil {
		return nil, err
	}

	out, err := safeCall(func() (any, error) {
		return f.Apply(in, args...)
	})
	if err != nil {
		return nil, &FilterError{Name: n.Name, Err: err}
	}
	return out, nil
}

// resolveFilter checks the registry first, then falls back to a function
// of the same name in scope, which acts as a forward-only filter.
func (s *state) resolveFilter(name string) (filter.Filter, error) {
	notFound := fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	if s.ev.filters != nil {
		f, err := s.ev.filters.Resolve(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, ErrUnknownFilter) {
			return filter.Filter{}, &FilterError{Name: name, Err: err}
		}
		notFound = err
	}

	fn := s.ident(name)
	if value.KindOf(fn) != value.KindFunc {
		return filter.Filter{}, &FilterError{Name: name, Err: notFound}
	}
	this := s.scope.Model()
	return filter.New(name, func(v any, args ...any) (any, error) {
		return value.Call(fn, this, append([]any{v}, args...))
	}), nil
}

func (s *state) assign(n Node, v any) error {
	switch n := n.(type) {
	case *Identifier:
		if _, ok := s.scope.Lookup(n.Name); ok {
			return s.unassignable(fmt.Sprintf("scope name %q is read-only", n.Name), nil)
		}
		return s.set(s.scope.Model(), n.Name, v)

	case *MemberAccess:
		obj, err := s.eval(n.Object)
		if err != nil {
			return err
		}
		return s.set(obj, n.Name, v)

	case *IndexAccess:
		obj, err := s.eval(n.Object)
		if err != nil {
			return err
		}
		idx, err := s.eval(n.Index)
		if err != nil {
			return err
		}
		return s.set(obj, idx, v)

	case *Filter:
		f, err := s.resolveFilter(n.Name)
		if err != nil {
			return err
		}
		if !f.Invertible() {
			return s.unassignable(fmt.Sprintf("filter %q has no inverse", n.Name), filter.ErrNoInverse)
		}
		args, err := s.evalList(n.Args)
		if err != nil {
			return err
		}
		pre, err := safeCall(func() (any, error) {
			return f.Invert(v, args...)
		})
		if err != nil {
			return &FilterError{Name: n.Name, Inverse: true, Err: err}
		}
		return s.assign(n.Input, pre)

	case nil:
		return s.unassignable("empty expression", nil)

	default:
		return s.unassignable("not a reference", nil)
	}
}

func (s *state) set(obj, key, v any) error {
	if err := value.Set(obj, key, v); err != nil {
		return s.unassignable(fmt.Sprintf("cannot set %s", value.ToString(key)), err)
	}
	return nil
}

func (s *state) unassignable(reason string, err error) error {
	return &AssignError{Expr: s.source, Reason: reason, Err: err}
}

// safeCall runs fn, converting a panic into a PanicError.
func safeCall(fn func() (any, error)) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = value.Undefined, &PanicError{Value: r}
		}
	}()
	return fn()
}
