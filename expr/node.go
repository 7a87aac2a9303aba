// Package expr holds the expression tree the rewriting engine works on:
// the node variants, typed locations into a tree, structural equality,
// the printer and the parser.
//
// Nodes are mutable so that a rewrite can replace a sub-tree in place
// through a Location, but every rewrite in this module clones first, so a
// tree that has been handed out (for instance inside a step snapshot) is
// never modified afterwards.
package expr

import (
	"math/big"
	"strconv"
)

// ============================================================
// Core interface
// ============================================================

// Node is a sub-expression in a tree.
type Node interface {
	// Children returns the node's children. The slice is a copy.
	Children() []Node
	// Child returns the i-th child without copying.
	Child(i int) Node
	// SetChild replaces the i-th child.
	SetChild(i int, c Node)
	// Clone returns a deep copy, linkage tags included.
	Clone() Node
	// Tag returns the linkage tag (0 when unset). Tags correlate nodes
	// between the before and after snapshot of a step and never take part
	// in equality or arithmetic.
	Tag() int
	SetTag(tag int)
	// Precedence describes the strength of the glue holding the node
	// together when printed.
	Precedence() Precedence
	String() string
	nodeType() string
}

type tagged struct{ tag int }

func (t *tagged) Tag() int       { return t.tag }
func (t *tagged) SetTag(tag int) { t.tag = tag }

// Precedence orders the printable binding strengths.
type Precedence int

const (
	AddPrecedence Precedence = iota
	MultPrecedence
	NegPrecedence
	ExpPrecedence
	AtomicPrecedence
)

// Op is a binary operator.
type Op byte

const (
	Add Op = '+'
	Sub Op = '-'
	Mul Op = '*'
	Div Op = '/'
	Pow Op = '^'
)

func (o Op) String() string { return string(rune(o)) }

// Precedence returns the binding strength of the operator.
func (o Op) Precedence() Precedence {
	switch o {
	case Add, Sub:
		return AddPrecedence
	case Mul, Div:
		return MultPrecedence
	case Pow:
		return ExpPrecedence
	}
	panic("expr: unknown operator " + strconv.Quote(string(rune(o))))
}

// ============================================================
// Number
// ============================================================

// Number is an exact rational constant. The parser only produces
// non-negative numbers; negative values are written with a UnaryMinus.
type Number struct {
	tagged
	Value *big.Rat
}

// Num returns an integer constant.
func Num(n int64) *Number { return &Number{Value: new(big.Rat).SetInt64(n)} }

// NumRat returns a constant holding a copy of r.
func NumRat(r *big.Rat) *Number { return &Number{Value: new(big.Rat).Set(r)} }

func (n *Number) Children() []Node  { return nil }
func (n *Number) Child(int) Node    { panic("expr: number has no children") }
func (n *Number) SetChild(int, Node) { panic("expr: number has no children") }
func (n *Number) nodeType() string  { return "num" }
func (n *Number) IsInteger() bool   { return n.Value.IsInt() }
func (n *Number) Sign() int         { return n.Value.Sign() }
func (n *Number) IsOne() bool       { return n.Value.IsInt() && n.Value.Num().IsInt64() && n.Value.Num().Int64() == 1 }

// Int64 returns the value when it is an integer that fits in an int64.
func (n *Number) Int64() (int64, bool) {
	if !n.Value.IsInt() || !n.Value.Num().IsInt64() {
		return 0, false
	}
	return n.Value.Num().Int64(), true
}

func (n *Number) Clone() Node {
	return &Number{tagged: n.tagged, Value: new(big.Rat).Set(n.Value)}
}

func (n *Number) Precedence() Precedence {
	switch {
	case n.Value.Sign() < 0:
		return NegPrecedence
	case !n.Value.IsInt():
		return MultPrecedence
	}
	return AtomicPrecedence
}

func (n *Number) String() string {
	if n.Value.IsInt() {
		return n.Value.Num().String()
	}
	return n.Value.RatString()
}

// ============================================================
// Symbol
// ============================================================

// Symbol is a named variable.
type Symbol struct {
	tagged
	Name string
}

// Sym returns a symbol node.
func Sym(name string) *Symbol { return &Symbol{Name: name} }

func (s *Symbol) Children() []Node      { return nil }
func (s *Symbol) Child(int) Node         { panic("expr: symbol has no children") }
func (s *Symbol) SetChild(int, Node)     { panic("expr: symbol has no children") }
func (s *Symbol) Clone() Node            { return &Symbol{tagged: s.tagged, Name: s.Name} }
func (s *Symbol) Precedence() Precedence { return AtomicPrecedence }
func (s *Symbol) String() string         { return s.Name }
func (s *Symbol) nodeType() string       { return "sym" }

// ============================================================
// UnaryMinus
// ============================================================

// UnaryMinus negates its operand.
type UnaryMinus struct {
	tagged
	Operand Node
}

// Neg wraps n in a unary minus.
func Neg(n Node) *UnaryMinus { return &UnaryMinus{Operand: n} }

func (u *UnaryMinus) Children() []Node      { return []Node{u.Operand} }
func (u *UnaryMinus) Precedence() Precedence { return NegPrecedence }
func (u *UnaryMinus) nodeType() string       { return "neg" }

func (u *UnaryMinus) Child(i int) Node {
	mustIndex(i, 1)
	return u.Operand
}

func (u *UnaryMinus) SetChild(i int, c Node) {
	mustIndex(i, 1)
	u.Operand = c
}

func (u *UnaryMinus) Clone() Node {
	return &UnaryMinus{tagged: u.tagged, Operand: u.Operand.Clone()}
}

// ============================================================
// BinaryOp
// ============================================================

// BinaryOp applies Op to Left and Right. Implicit marks a multiplication
// written by juxtaposition ("2x"); it only affects printing.
type BinaryOp struct {
	tagged
	Op          Op
	Left, Right Node
	Implicit    bool
}

// Bin returns the binary operation l op r.
func Bin(op Op, l, r Node) *BinaryOp { return &BinaryOp{Op: op, Left: l, Right: r} }

func (b *BinaryOp) Children() []Node      { return []Node{b.Left, b.Right} }
func (b *BinaryOp) Precedence() Precedence { return b.Op.Precedence() }
func (b *BinaryOp) nodeType() string       { return "bin" }

func (b *BinaryOp) Child(i int) Node {
	mustIndex(i, 2)
	if i == 0 {
		return b.Left
	}
	return b.Right
}

func (b *BinaryOp) SetChild(i int, c Node) {
	mustIndex(i, 2)
	if i == 0 {
		b.Left = c
	} else {
		b.Right = c
	}
}

func (b *BinaryOp) Clone() Node {
	return &BinaryOp{
		tagged:   b.tagged,
		Op:       b.Op,
		Left:     b.Left.Clone(),
		Right:    b.Right.Clone(),
		Implicit: b.Implicit,
	}
}

// ============================================================
// Parenthesis
// ============================================================

// Parenthesis is an explicit grouping written in the source or inserted
// by a rewrite. It blocks term and factor splitting.
type Parenthesis struct {
	tagged
	Inner Node
}

// Paren wraps n in parentheses.
func Paren(n Node) *Parenthesis { return &Parenthesis{Inner: n} }

func (p *Parenthesis) Children() []Node      { return []Node{p.Inner} }
func (p *Parenthesis) Precedence() Precedence { return AtomicPrecedence }
func (p *Parenthesis) String() string         { return "(" + p.Inner.String() + ")" }
func (p *Parenthesis) nodeType() string       { return "paren" }

func (p *Parenthesis) Child(i int) Node {
	mustIndex(i, 1)
	return p.Inner
}

func (p *Parenthesis) SetChild(i int, c Node) {
	mustIndex(i, 1)
	p.Inner = c
}

func (p *Parenthesis) Clone() Node {
	return &Parenthesis{tagged: p.tagged, Inner: p.Inner.Clone()}
}

func mustIndex(i, n int) {
	if i < 0 || i >= n {
		panic("expr: child index out of bounds: " + strconv.Itoa(i))
	}
}

// ============================================================
// Builders and predicates
// ============================================================

// Product chains nodes with explicit multiplications, left-associative.
// A single node is returned as is and an empty list yields the constant 1.
func Product(nodes ...Node) Node {
	if len(nodes) == 0 {
		return Num(1)
	}
	acc := nodes[0]
	for _, n := range nodes[1:] {
		acc = Bin(Mul, acc, n)
	}
	return acc
}

// Sum chains nodes with additions, left-associative. An empty list yields
// the constant 0.
func Sum(nodes ...Node) Node {
	if len(nodes) == 0 {
		return Num(0)
	}
	acc := nodes[0]
	for _, n := range nodes[1:] {
		acc = Bin(Add, acc, n)
	}
	return acc
}

// IsOp reports whether n is a binary operation with operator op.
func IsOp(n Node, op Op) bool {
	b, ok := n.(*BinaryOp)
	return ok && b.Op == op
}

// IsUnaryMinus reports whether n is a unary minus.
func IsUnaryMinus(n Node) bool {
	_, ok := n.(*UnaryMinus)
	return ok
}

// IsNumber reports whether n is a constant equal to v.
func IsNumber(n Node, v int64) bool {
	num, ok := n.(*Number)
	if !ok {
		return false
	}
	got, ok := num.Int64()
	return ok && got == v
}

// PositiveInt returns the value of n when n is a literal positive integer.
func PositiveInt(n Node) (int64, bool) {
	num, ok := Unparen(n).(*Number)
	if !ok {
		return 0, false
	}
	v, ok := num.Int64()
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// Unparen strips any number of enclosing parentheses.
func Unparen(n Node) Node {
	for {
		p, ok := n.(*Parenthesis)
		if !ok {
			return n
		}
		n = p.Inner
	}
}
