// Package expon rewrites powers: collapsing towers of powers, expanding
// integer powers into products and splitting additive exponents.
package expon

import (
	"github.com/florisdf/mathsteps/expr"
	"github.com/florisdf/mathsteps/term"
)

// MaxIntegerSplit bounds the exponent SplitIntegerExponent expands.
const MaxIntegerSplit = 64

// Tower peels a power tower ((b^e1)^e2)^e3, looking through parentheses
// around each base. It returns the innermost base and the exponents from
// the innermost out. A node that is not a power yields itself and no
// exponents.
func Tower(n expr.Node) (base expr.Node, exps []expr.Node) {
	cur := n
	for {
		p, ok := cur.(*expr.BinaryOp)
		if !ok || p.Op != expr.Pow {
			break
		}
		exps = append(exps, p.Right)
		cur = p.Left
		if inner := expr.Unparen(cur); expr.IsOp(inner, expr.Pow) {
			cur = inner
		}
	}
	for i, j := 0, len(exps)-1; i < j; i, j = i+1, j-1 {
		exps[i], exps[j] = exps[j], exps[i]
	}
	return cur, exps
}

// Exponents lists the exponents of a power tower with enclosing
// parentheses removed: x^(m + 1) gives [m + 1] and ((x^2)^3)^4 gives
// [2 3 4]. A node that is not a power has no exponents.
func Exponents(n expr.Node) []expr.Node {
	_, exps := Tower(n)
	out := make([]expr.Node, len(exps))
	for i, e := range exps {
		out[i] = expr.Unparen(e)
	}
	return out
}

// Base returns the base of a power, or nil when n is not a power.
func Base(n expr.Node) expr.Node {
	p, ok := n.(*expr.BinaryOp)
	if !ok || p.Op != expr.Pow {
		return nil
	}
	return p.Left
}

// CollapseExponents rewrites ((b^e1)^e2)^e3 as b^(e1*e2*e3). Nodes that
// are not towers of at least two powers are returned unchanged.
func CollapseExponents(n expr.Node) expr.Node {
	base, exps := Tower(n)
	if len(exps) < 2 {
		return n
	}
	factors := make([]expr.Node, len(exps))
	for i, e := range exps {
		factors[i] = asFactor(e.Clone())
	}
	return expr.Bin(expr.Pow, wrapBase(base.Clone()), expr.Paren(expr.Product(factors...)))
}

// SplitIntegerExponent rewrites b^k, k a literal positive integer, as the
// product of k copies of b. Other nodes, and exponents above
// MaxIntegerSplit, are returned unchanged.
func SplitIntegerExponent(n expr.Node) expr.Node {
	p, ok := n.(*expr.BinaryOp)
	if !ok || p.Op != expr.Pow {
		return n
	}
	k, ok := expr.PositiveInt(p.Right)
	if !ok || k > MaxIntegerSplit {
		return n
	}
	copies := make([]expr.Node, k)
	for i := range copies {
		copies[i] = p.Left.Clone()
	}
	return expr.Product(copies...)
}

// SplitExponentTerms rewrites b^(e1 + e2 - e3) as b^e1*b^e2*b^(-e3).
// Powers whose exponent has a single term are returned unchanged.
func SplitExponentTerms(n expr.Node) expr.Node {
	p, ok := n.(*expr.BinaryOp)
	if !ok || p.Op != expr.Pow {
		return n
	}
	terms := term.Nodes(expr.Unparen(p.Right))
	if len(terms) < 2 {
		return n
	}
	factors := make([]expr.Node, len(terms))
	for i, t := range terms {
		factors[i] = expr.Bin(expr.Pow, p.Left.Clone(), AsExponent(t))
	}
	return expr.Product(factors...)
}

// asFactor prepares an exponent for use inside a product: sums keep (or
// get) their parentheses, anything else loses them.
func asFactor(e expr.Node) expr.Node {
	inner := expr.Unparen(e)
	if expr.IsOp(inner, expr.Add) || expr.IsOp(inner, expr.Sub) {
		return expr.Paren(inner)
	}
	return inner
}

// AsExponent prepares e for use as an exponent: anything but a
// non-negative integer, a symbol or a parenthesized expression gets
// parentheses.
func AsExponent(e expr.Node) expr.Node {
	switch x := e.(type) {
	case *expr.Symbol, *expr.Parenthesis:
		return e
	case *expr.Number:
		if x.IsInteger() && x.Sign() >= 0 {
			return e
		}
	}
	return expr.Paren(e)
}

func wrapBase(b expr.Node) expr.Node {
	if b.Precedence() < expr.AtomicPrecedence {
		return expr.Paren(b)
	}
	return b
}
