package expr

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrSyntax is the category of every error returned by Parse.
var ErrSyntax = errors.New("syntax error")

// SyntaxError reports malformed input at a 0-based byte offset.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Snippet renders the input with a caret under the offending offset.
func (e *SyntaxError) Snippet() string {
	pos := e.Pos
	if pos > len(e.Input) {
		pos = len(e.Input)
	}
	if pos < 0 {
		pos = 0
	}
	return e.Input + "\n" + strings.Repeat(" ", pos) + "^"
}

// ============================================================
// Lexer
// ============================================================

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			seenDot := false
			for i < len(src) && (isDigit(src[i]) || (src[i] == '.' && !seenDot)) {
				if src[i] == '.' {
					seenDot = true
				}
				i++
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], pos: start})
		case isAlpha(c):
			start := i
			for i < len(src) && (isAlpha(src[i]) || isDigit(src[i])) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		case strings.IndexByte("+-*/^", c) >= 0:
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, &SyntaxError{Input: src, Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

// ============================================================
// Parser
// ============================================================

// Parse reads an expression. Grammar, loosest first:
//
//	sum     = product {("+" | "-") product}
//	product = unary {("*" | "/") unary | power}   juxtaposition is implicit "*"
//	unary   = ("-" | "+") unary | power
//	power   = primary ["^" unary]                 right-associative
//	primary = number | identifier | "(" sum ")"
func Parse(src string) (Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	n, err := p.sum()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return n, nil
}

// MustParse is Parse for inputs known to be valid, such as literals in
// tests and examples.
func MustParse(src string) Node {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return n
}

type parser struct {
	src  string
	toks []token
	cur  int
}

func (p *parser) peek() token { return p.toks[p.cur] }

func (p *parser) next() token {
	t := p.toks[p.cur]
	if t.kind != tokEOF {
		p.cur++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Input: p.src, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) isOp(op string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == op
}

func (p *parser) sum() (Node, error) {
	left, err := p.product()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := Op(p.next().text[0])
		right, err := p.product()
		if err != nil {
			return nil, err
		}
		left = Bin(op, left, right)
	}
	return left, nil
}

func (p *parser) startsPrimary() bool {
	switch p.peek().kind {
	case tokNumber, tokIdent, tokLParen:
		return true
	}
	return false
}

func (p *parser) product() (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("*") || p.isOp("/"):
			op := Op(p.next().text[0])
			right, err := p.unary()
			if err != nil {
				return nil, err
			}
			left = Bin(op, left, right)
		case p.startsPrimary():
			right, err := p.power()
			if err != nil {
				return nil, err
			}
			b := Bin(Mul, left, right)
			b.Implicit = true
			left = b
		default:
			return left, nil
		}
	}
}

func (p *parser) unary() (Node, error) {
	switch {
	case p.isOp("-"):
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return Neg(operand), nil
	case p.isOp("+"):
		p.next()
		return p.unary()
	}
	return p.power()
}

func (p *parser) power() (Node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if !p.isOp("^") {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return Bin(Pow, base, exp), nil
}

func (p *parser) primary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		r, ok := new(big.Rat).SetString(t.text)
		if !ok {
			return nil, p.errorf(t, "invalid number %q", t.text)
		}
		return &Number{Value: r}, nil
	case tokIdent:
		return Sym(t.text), nil
	case tokLParen:
		inner, err := p.sum()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected ')' to close '(' at offset %d", t.pos)
		}
		return Paren(inner), nil
	case tokEOF:
		return nil, p.errorf(t, "unexpected end of input")
	}
	return nil, p.errorf(t, "unexpected %q", t.text)
}
