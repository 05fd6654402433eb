package expr

import (
	"strconv"
	"strings"

	"github.com/randalmurphal/exprbind/pkg/exprbind/value"
)

// Node is a parsed expression node. The set of implementations is closed.
type Node interface {
	// String renders the node as canonical source.
	String() string
	node()
}

// Literal is a number, string, boolean or null constant.
type Literal struct {
	Value any
}

// Identifier is a bare name resolved against the scope chain.
type Identifier struct {
	Name string
}

// MemberAccess is object.Name.
type MemberAccess struct {
	Object Node
	Name   string
}

// IndexAccess is object[Index].
type IndexAccess struct {
	Object Node
	Index  Node
}

// UnaryOp is one of ! - + applied to Operand.
type UnaryOp struct {
	Op      string
	Operand Node
}

// BinaryOp is Left Op Right. && and || short-circuit.
type BinaryOp struct {
	Op    string
	Left  Node
	Right Node
}

// Conditional is Test ? Then : Else.
type Conditional struct {
	Test Node
	Then Node
	Else Node
}

// Call invokes Callee with Args.
type Call struct {
	Callee Node
	Args   []Node
}

// ArrayLiteral is [a, b, ...].
type ArrayLiteral struct {
	Elements []Node
}

// Property is one key: value entry of an object literal.
type Property struct {
	Key   string
	Value Node
}

// ObjectLiteral is {k: v, ...}. Keys keep source order.
type ObjectLiteral struct {
	Properties []Property
}

// Filter is Input | Name(Args...).
type Filter struct {
	Input Node
	Name  string
	Args  []Node
}

// ScopeAlias names the value of Expr for a nested scope.
// With Iterate unset it is "Expr as Name". With Iterate set it is
// "Name in Expr" or "Name, Index in Expr".
type ScopeAlias struct {
	Expr    Node
	Name    string
	Index   string
	Iterate bool
}

func (*Literal) node()       {}
func (*Identifier) node()    {}
func (*MemberAccess) node()  {}
func (*IndexAccess) node()   {}
func (*UnaryOp) node()       {}
func (*BinaryOp) node()      {}
func (*Conditional) node()   {}
func (*Call) node()          {}
func (*ArrayLiteral) node()  {}
func (*ObjectLiteral) node() {}
func (*Filter) node()        {}
func (*ScopeAlias) node()    {}

func (n *Literal) String() string {
	switch v := n.Value.(type) {
	case string:
		return strconv.Quote(v)
	case nil:
		return "null"
	default:
		return value.ToString(v)
	}
}

func (n *Identifier) String() string { return n.Name }

func (n *MemberAccess) String() string { return operand(n.Object) + "." + n.Name }

func (n *IndexAccess) String() string {
	return operand(n.Object) + "[" + n.Index.String() + "]"
}

func (n *UnaryOp) String() string { return n.Op + operand(n.Operand) }

func (n *BinaryOp) String() string {
	return "(" + operand(n.Left) + " " + n.Op + " " + operand(n.Right) + ")"
}

func (n *Conditional) String() string {
	return "(" + operand(n.Test) + " ? " + operand(n.Then) + " : " + operand(n.Else) + ")"
}

func (n *Call) String() string {
	return operand(n.Callee) + "(" + joinNodes(n.Args) + ")"
}

func (n *ArrayLiteral) String() string { return "[" + joinNodes(n.Elements) + "]" }

func (n *ObjectLiteral) String() string {
	parts := make([]string, len(n.Properties))
	for i, p := range n.Properties {
		parts[i] = strconv.Quote(p.Key) + ": " + operand(p.Value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (n *Filter) String() string {
	s := n.Input.String() + " | " + n.Name
	if len(n.Args) > 0 {
		s += "(" + joinNodes(n.Args) + ")"
	}
	return s
}

func (n *ScopeAlias) String() string {
	if !n.Iterate {
		return n.Expr.String() + " as " + n.Name
	}
	if n.Index != "" {
		return n.Name + ", " + n.Index + " in " + n.Expr.String()
	}
	return n.Name + " in " + n.Expr.String()
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = operand(n)
	}
	return strings.Join(parts, ", ")
}

// operand renders n as a sub-expression. Pipes and scope clauses bind
// looser than every operator, so they are parenthesized.
func operand(n Node) string {
	switch n.(type) {
	case *Filter, *ScopeAlias:
		return "(" + n.String() + ")"
	}
	return n.String()
}

// Expression is a parsed binding expression. It is immutable and safe to
// share between bindings.
type Expression struct {
	source string
	root   Node
}

// Source returns the text the expression was parsed from.
func (e *Expression) Source() string { return e.source }

// Root returns the top node, or nil for the empty expression, which
// evaluates to the model of the scope.
func (e *Expression) Root() Node { return e.root }

// String renders the expression as canonical source.
func (e *Expression) String() string {
	if e.root == nil {
		return ""
	}
	return e.root.String()
}

// Alias returns the top-level scope clause, if any.
func (e *Expression) Alias() (*ScopeAlias, bool) {
	a, ok := e.root.(*ScopeAlias)
	return a, ok
}

// Body returns the expression without its top-level scope clause.
func (e *Expression) Body() Node {
	if a, ok := e.Alias(); ok {
		return a.Expr
	}
	return e.root
}

// Assignable reports whether the expression denotes a reference chain that
// EvaluateAndSet can write to. Filters are accepted here; whether each one
// is invertible is only known once it is resolved.
func (e *Expression) Assignable() bool {
	if a, ok := e.Alias(); ok && a.Iterate {
		return false
	}
	return assignable(e.Body())
}

func assignable(n Node) bool {
	switch n := n.(type) {
	case *Identifier, *MemberAccess, *IndexAccess:
		return true
	case *Filter:
		return assignable(n.Input)
	default:
		return false
	}
}
