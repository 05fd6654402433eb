package expr

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const eof = -1

// Lexer converts expression source into tokens.
// It follows the start/current/width scanning style: each scan function
// consumes runes from current and emits the text between start and current.
type Lexer struct {
	input   string
	start   int
	current int
	width   int
}

// NewLexer creates a lexer over input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize scans the whole input. The final token is always TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// Next returns the next token.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()
	l.start = l.current

	ch := l.nextRune()
	switch {
	case ch == eof:
		return Token{Type: TokenEOF, Pos: l.current}, nil
	case ch == '"' || ch == '\'':
		return l.scanString(ch)
	case isDigit(ch) || (ch == '.' && isDigit(l.peek())):
		l.current = l.start
		return l.scanNumber()
	case isIdentStart(ch):
		for isIdentPart(l.peek()) {
			l.nextRune()
		}
		return l.emit(TokenIdent), nil
	}

	l.current = l.start
	rest := l.input[l.current:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			l.current += len(op)
			return l.emit(TokenOperator), nil
		}
	}

	r, _ := utf8.DecodeRuneInString(rest)
	return Token{}, &SyntaxError{
		Source: l.input,
		Pos:    l.start,
		Token:  string(r),
		Msg:    "unexpected character",
	}
}

func (l *Lexer) emit(tt TokenType) Token {
	return Token{Type: tt, Value: l.input[l.start:l.current], Pos: l.start}
}

func (l *Lexer) nextRune() rune {
	if l.current >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) peek() rune {
	r := l.nextRune()
	l.backup()
	return r
}

func (l *Lexer) skipWhitespace() {
	for {
		r := l.nextRune()
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			l.backup()
			return
		}
	}
}

// scanString reads a quoted string. The opening quote has been consumed.
func (l *Lexer) scanString(quote rune) (Token, error) {
	var sb strings.Builder
	for {
		r := l.nextRune()
		switch r {
		case eof:
			return Token{}, &SyntaxError{
				Source: l.input,
				Pos:    l.start,
				Token:  l.input[l.start:],
				Msg:    "unterminated string literal",
			}
		case quote:
			return Token{Type: TokenString, Value: sb.String(), Pos: l.start}, nil
		case '\\':
			esc := l.nextRune()
			switch esc {
			case eof:
				continue
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case 'b':
				sb.WriteRune('\b')
			case 'f':
				sb.WriteRune('\f')
			case 'v':
				sb.WriteRune('\v')
			case 'u':
				if l.current+4 <= len(l.input) {
					if n, err := strconv.ParseUint(l.input[l.current:l.current+4], 16, 32); err == nil {
						sb.WriteRune(rune(n))
						l.current += 4
						continue
					}
				}
				sb.WriteRune('u')
			default:
				sb.WriteRune(esc)
			}
		default:
			sb.WriteRune(r)
		}
	}
}

// dotContinuesNumber reports whether the '.' at the current position is a
// decimal point.
func (l *Lexer) dotContinuesNumber() bool {
	rest := l.input[l.current+1:]
	if rest == "" {
		return true
	}
	c := rune(rest[0])
	if !isIdentStart(c) {
		return true
	}
	if c != 'e' && c != 'E' || len(rest) < 2 {
		return false
	}
	if rest[1] == '+' || rest[1] == '-' {
		return len(rest) > 2 && isDigit(rune(rest[2]))
	}
	return isDigit(rune(rest[1]))
}

// scanNumber reads digits, an optional fraction and an optional exponent.
func (l *Lexer) scanNumber() (Token, error) {
	for isDigit(l.peek()) {
		l.nextRune()
	}
	// A dot belongs to the number unless a property name follows it, so 1.5,
	// 1. and 1.e3 are numbers while 1..toFixed reads a member of 1.
	if l.peek() == '.' && l.dotContinuesNumber() {
		l.nextRune()
		for isDigit(l.peek()) {
			l.nextRune()
		}
	}
	if p := l.peek(); p == 'e' || p == 'E' {
		l.nextRune()
		if p := l.peek(); p == '+' || p == '-' {
			l.nextRune()
		}
		if !isDigit(l.peek()) {
			return Token{}, &SyntaxError{
				Source: l.input,
				Pos:    l.start,
				Token:  l.input[l.start:l.current],
				Msg:    "malformed exponent",
			}
		}
		for isDigit(l.peek()) {
			l.nextRune()
		}
	}
	if isIdentStart(l.peek()) {
		return Token{}, &SyntaxError{
			Source: l.input,
			Pos:    l.start,
			Token:  l.input[l.start : l.current+1],
			Msg:    "identifier starts immediately after number",
		}
	}
	return l.emit(TokenNumber), nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}
