package expr

import "fmt"

// TokenType identifies a lexical token.
type TokenType int

// Token types.
const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenNumber
	TokenString
	TokenOperator
)

// String returns the token type name.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of input"
	case TokenIdent:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenOperator:
		return "operator"
	default:
		return fmt.Sprintf("token(%d)", int(t))
	}
}

// Token is a lexical token with its byte offset in the source.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// String returns a printable form of the token for error messages.
func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenString:
		return fmt.Sprintf("%q", t.Value)
	default:
		return t.Value
	}
}

// is reports whether t is the operator or identifier op.
func (t Token) is(op string) bool {
	return (t.Type == TokenOperator || t.Type == TokenIdent) && t.Value == op
}

// operators lists the operator spellings, longest first so the lexer
// matches greedily.
var operators = []string{
	"===", "!==",
	"==", "!=", "<=", ">=", "&&", "||",
	"+", "-", "*", "/", "%", "<", ">", "!",
	"?", ":", ".", ",", "|",
	"(", ")", "[", "]", "{", "}",
}
