package canon

import (
	"fmt"
	"math/big"

	"github.com/florisdf/mathsteps/expr"
	"github.com/florisdf/mathsteps/term"
)

// Canonicalizer converts trees into canonical form. The zero value expands
// sums up to DefaultMaxExpansion.
type Canonicalizer struct {
	// MaxExpansion is the largest integer power of a sum that is
	// multiplied out.
	MaxExpansion int
}

func (c Canonicalizer) maxExpansion() int {
	if c.MaxExpansion <= 0 {
		return DefaultMaxExpansion
	}
	return c.MaxExpansion
}

// FromNode converts an expression tree into canonical form.
func FromNode(n expr.Node) (*Poly, error) { return Canonicalizer{}.FromNode(n) }

// Canonicalize rewrites n into its canonical tree.
func Canonicalize(n expr.Node) (expr.Node, error) { return Canonicalizer{}.Canonicalize(n) }

// FromNode converts an expression tree into canonical form.
func (c Canonicalizer) FromNode(n expr.Node) (*Poly, error) {
	switch x := n.(type) {
	case *expr.Number:
		return Const(x.Value), nil
	case *expr.Symbol:
		return Var(x.Name), nil
	case *expr.Parenthesis:
		return c.FromNode(x.Inner)
	case *expr.UnaryMinus:
		p, err := c.FromNode(x.Operand)
		if err != nil {
			return nil, err
		}
		return Neg(p), nil
	case *expr.BinaryOp:
		l, err := c.FromNode(x.Left)
		if err != nil {
			return nil, err
		}
		r, err := c.FromNode(x.Right)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case expr.Add:
			return Add(l, r), nil
		case expr.Sub:
			return Sub(l, r), nil
		case expr.Mul:
			return Mul(l, r), nil
		case expr.Div:
			q, err := Div(l, r)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", x, err)
			}
			return q, nil
		case expr.Pow:
			p, err := PowLimit(l, r, c.maxExpansion())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", x, err)
			}
			return p, nil
		}
	}
	return nil, fmt.Errorf("canon: unsupported node %T", n)
}

// Canonicalize rewrites n into its canonical tree.
func (c Canonicalizer) Canonicalize(n expr.Node) (expr.Node, error) {
	p, err := c.FromNode(n)
	if err != nil {
		return nil, err
	}
	return p.ToNode(), nil
}

// ToNode prints p back as a tree: monomials in canonical order joined by
// "+" and "-", each a coefficient followed by its powers.
func (p *Poly) ToNode() expr.Node {
	if p.IsZero() {
		return expr.Num(0)
	}
	terms := make([]expr.Node, len(p.Monos))
	for i, m := range p.Monos {
		if i == 0 {
			terms[i] = m.leadingNode()
		} else {
			terms[i] = m.signedNode()
		}
	}
	return term.TermsToNode(terms)
}

// String prints the canonical tree of p.
func (p *Poly) String() string { return p.ToNode().String() }

func (m *Mono) powerNodes() []expr.Node {
	out := make([]expr.Node, len(m.Powers))
	for i, pw := range m.Powers {
		out[i] = pw.node()
	}
	return out
}

// absNode is |coeff| times the powers.
func (m *Mono) absNode() expr.Node {
	abs := ratAbs(m.Coeff)
	factors := m.powerNodes()
	if len(factors) == 0 || !ratIsOne(abs) {
		factors = append([]expr.Node{expr.NumRat(abs)}, factors...)
	}
	return expr.Product(factors...)
}

// signedNode is the monomial as a summand after the first: a unary minus
// around the absolute value marks a subtraction for TermsToNode.
func (m *Mono) signedNode() expr.Node {
	if m.Coeff.Sign() < 0 {
		return expr.Neg(m.absNode())
	}
	return m.absNode()
}

// leadingNode puts the sign of a negative first monomial on its first
// factor, so -3*x prints as "-3*x" rather than "-(3*x)".
func (m *Mono) leadingNode() expr.Node {
	if m.Coeff.Sign() >= 0 {
		return m.absNode()
	}
	abs := ratAbs(m.Coeff)
	factors := m.powerNodes()
	if len(factors) == 0 || !ratIsOne(abs) {
		return expr.Product(append([]expr.Node{expr.Neg(expr.NumRat(abs))}, factors...)...)
	}
	factors[0] = expr.Neg(factors[0])
	return expr.Product(factors...)
}

func (pw Power) node() expr.Node {
	c, ok := pw.Exp.Constant()
	if ok && ratIsOne(c) {
		return pw.Atom.node.Clone()
	}
	return expr.Bin(expr.Pow, pw.Atom.node.Clone(), exponentNode(pw.Exp, c, ok))
}

func exponentNode(p *Poly, c *big.Rat, isConst bool) expr.Node {
	if isConst && c.IsInt() && c.Sign() > 0 {
		return expr.NumRat(c)
	}
	n := p.ToNode()
	if _, ok := n.(*expr.Symbol); ok {
		return n
	}
	return expr.Paren(n)
}
