package expr

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/randalmurphal/exprbind/pkg/exprbind/value"
)

// Binding powers for binary operators. Higher binds tighter.
var binaryPrecedence = map[string]int{
	"||":  10,
	"&&":  20,
	"==":  30,
	"!=":  30,
	"===": 30,
	"!==": 30,
	"<":   40,
	"<=":  40,
	">":   40,
	">=":  40,
	"+":   50,
	"-":   50,
	"*":   60,
	"/":   60,
	"%":   60,
}

// Parse parses source into an Expression.
//
// Grammar, loosest first:
//
//	expression  := iteration | pipeline [ "as" ident ]
//	iteration   := ident [ "," ident ] "in" pipeline
//	pipeline    := conditional { "|" ident [ "(" args ")" ] }
//	conditional := binary [ "?" conditional ":" conditional ]
//	binary      := unary { binop unary }
//	unary       := ( "!" | "-" | "+" ) unary | postfix
//	postfix     := primary { "." ident | "[" pipeline "]" | "(" args ")" }
//	primary     := number | string | true | false | null | undefined | ident
//	             | "(" pipeline ")" | "[" args "]" | "{" props "}"
//
// Whitespace-only source parses to the empty expression.
func Parse(source string) (*Expression, error) {
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}

	p := &parser{source: source, tokens: tokens}
	root, err := p.parseTop()
	if err != nil {
		return nil, err
	}
	return &Expression{source: source, root: root}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level expressions.
func MustParse(source string) *Expression {
	e, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return e
}

type parser struct {
	source string
	tokens []Token
	pos    int
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) accept(op string) bool {
	if tok := p.peek(); tok.Type == TokenOperator && tok.Value == op {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(op string) error {
	if p.accept(op) {
		return nil
	}
	return p.errorf(p.peek(), "expected %q", op)
}

func (p *parser) expectIdent(what string) (string, error) {
	tok := p.peek()
	if tok.Type != TokenIdent {
		return "", p.errorf(tok, "expected %s", what)
	}
	p.pos++
	return tok.Value, nil
}

func (p *parser) errorf(tok Token, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if tok.Type == TokenEOF {
		msg = "unexpected end of input: " + msg
	}
	return &SyntaxError{Source: p.source, Pos: tok.Pos, Token: tok.Value, Msg: msg}
}

func (p *parser) parseTop() (Node, error) {
	if p.peek().Type == TokenEOF {
		return nil, nil
	}

	if p.isIteration() {
		return p.parseIteration()
	}

	body, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.Type == TokenIdent && tok.Value == "as" {
		p.advance()
		name, err := p.expectIdent("scope name after 'as'")
		if err != nil {
			return nil, err
		}
		body = &ScopeAlias{Expr: body, Name: name}
	}

	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, p.errorf(tok, "unexpected token")
	}
	return body, nil
}

// isIteration looks ahead for "ident in" or "ident , ident in".
func (p *parser) isIteration() bool {
	if p.peek().Type != TokenIdent {
		return false
	}
	next := p.peekAt(1)
	if next.Type == TokenIdent && next.Value == "in" {
		return true
	}
	return next.is(",") && p.peekAt(2).Type == TokenIdent && p.peekAt(3).Type == TokenIdent && p.peekAt(3).Value == "in"
}

func (p *parser) parseIteration() (Node, error) {
	alias := &ScopeAlias{Iterate: true, Name: p.advance().Value}
	if p.accept(",") {
		alias.Index = p.advance().Value
	}
	p.advance() // in

	body, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, p.errorf(tok, "unexpected token")
	}
	alias.Expr = body
	return alias, nil
}

func (p *parser) parsePipeline() (Node, error) {
	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}

	for p.accept("|") {
		name, err := p.expectIdent("filter name after '|'")
		if err != nil {
			return nil, err
		}
		f := &Filter{Input: left, Name: name}
		if p.accept("(") {
			if f.Args, err = p.parseList(")"); err != nil {
				return nil, err
			}
		}
		left = f
	}
	return left, nil
}

func (p *parser) parseConditional() (Node, error) {
	test, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.accept("?") {
		return test, nil
	}

	then, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	els, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	return &Conditional{Test: test, Then: then, Else: els}, nil
}

// parseBinary is precedence climbing over left-associative operators.
func (p *parser) parseBinary(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Type != TokenOperator {
			return left, nil
		}
		prec, ok := binaryPrecedence[tok.Value]
		if !ok || prec <= minPrec {
			return left, nil
		}
		p.advance()

		right, err := p.parseBinary(prec)
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: tok.Value, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Node, error) {
	tok := p.peek()
	if tok.Type == TokenOperator && (tok.Value == "!" || tok.Value == "-" || tok.Value == "+") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: tok.Value, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.accept("."):
			name, err := p.expectIdent("property name after '.'")
			if err != nil {
				return nil, err
			}
			node = &MemberAccess{Object: node, Name: name}
		case p.accept("["):
			index, err := p.parsePipeline()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			node = &IndexAccess{Object: node, Index: index}
		case p.accept("("):
			args, err := p.parseList(")")
			if err != nil {
				return nil, err
			}
			node = &Call{Callee: node, Args: args}
		default:
			return node, nil
		}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.advance()
	switch tok.Type {
	case TokenNumber:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, p.errorf(tok, "invalid number")
		}
		return &Literal{Value: f}, nil
	case TokenString:
		return &Literal{Value: tok.Value}, nil
	case TokenIdent:
		switch tok.Value {
		case "true":
			return &Literal{Value: true}, nil
		case "false":
			return &Literal{Value: false}, nil
		case "null":
			return &Literal{Value: nil}, nil
		case "undefined":
			return &Literal{Value: value.Undefined}, nil
		}
		return &Identifier{Name: tok.Value}, nil
	case TokenOperator:
		switch tok.Value {
		case "(":
			inner, err := p.parsePipeline()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return inner, nil
		case "[":
			elems, err := p.parseList("]")
			if err != nil {
				return nil, err
			}
			return &ArrayLiteral{Elements: elems}, nil
		case "{":
			return p.parseObject()
		}
	}
	return nil, p.errorf(tok, "unexpected token")
}

// parseList parses comma-separated expressions up to and including close.
// The opening delimiter has been consumed.
func (p *parser) parseList(close string) ([]Node, error) {
	var nodes []Node
	if p.accept(close) {
		return nodes, nil
	}
	for {
		n, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
		if p.accept(close) {
			return nodes, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseObject() (Node, error) {
	obj := &ObjectLiteral{}
	if p.accept("}") {
		return obj, nil
	}
	for {
		tok := p.advance()
		var key string
		switch tok.Type {
		case TokenIdent, TokenString:
			key = tok.Value
		case TokenNumber:
			f, err := strconv.ParseFloat(tok.Value, 64)
			if err != nil {
				return nil, p.errorf(tok, "invalid number")
			}
			key = value.FormatNumber(f)
		default:
			return nil, p.errorf(tok, "expected property name")
		}

		if err := p.expect(":"); err != nil {
			return nil, err
		}
		v, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		obj.Properties = append(obj.Properties, Property{Key: key, Value: v})

		if p.accept("}") {
			return obj, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}
