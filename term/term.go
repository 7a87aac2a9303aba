// Package term splits an expression into its top-level additive terms and
// each term into its top-level multiplicative factors. Results are
// locations into the caller's tree so that rewrites can replace exactly the
// node that was found.
package term

import (
	"github.com/florisdf/mathsteps/expr"
)

// Term is a top-level summand.
//
// Loc addresses the summand without its sign: for "x - 3*y" the second
// term's Loc is "3*y" and Negative is true, and for "-x + 1" the first
// term's Loc is "x".
type Term struct {
	Loc      expr.Location
	Negative bool

	// op is the "+" or "-" node whose right operand is this term, minus the
	// unary minus directly wrapping it. Either may be invalid.
	op    expr.Location
	minus expr.Location
}

// Node returns the unsigned summand.
func (t Term) Node() expr.Node { return t.Loc.Node() }

// Signed returns a copy of the summand with its sign applied.
func (t Term) Signed() expr.Node {
	n := t.Loc.Node().Clone()
	if t.Negative {
		return expr.Neg(n)
	}
	return n
}

// FlipSign negates the term in place: it toggles the governing operator
// when there is one, otherwise removes the wrapping unary minus, otherwise
// wraps the summand in a unary minus. The tree is modified, so t and every
// other Term of the same tree are stale afterwards.
func (t Term) FlipSign() {
	switch {
	case t.op.Valid():
		b := t.op.Node().(*expr.BinaryOp)
		if b.Op == expr.Add {
			b.Op = expr.Sub
		} else {
			b.Op = expr.Add
		}
	case t.minus.Valid():
		t.minus.Replace(t.Loc.Node())
	default:
		t.Loc.Replace(expr.Neg(t.Loc.Node()))
	}
}

// Terms splits the root of tree.
func Terms(tree *expr.Tree) []Term { return TermsAt(tree.Top()) }

// TermsAt splits the node at loc over its top-level "+" and "-" chain,
// left to right. Parentheses block splitting.
func TermsAt(loc expr.Location) []Term {
	var out []Term
	collect(loc, false, expr.Location{}, expr.Location{}, &out)
	return out
}

func collect(loc expr.Location, negative bool, op, minus expr.Location, out *[]Term) {
	switch n := loc.Node().(type) {
	case *expr.BinaryOp:
		if n.Op == expr.Add || n.Op == expr.Sub {
			collect(loc.Child(0), negative, expr.Location{}, expr.Location{}, out)
			collect(loc.Child(1), negative != (n.Op == expr.Sub), loc, expr.Location{}, out)
			return
		}
	case *expr.UnaryMinus:
		if !expr.IsOp(n.Operand, expr.Add) && !expr.IsOp(n.Operand, expr.Sub) {
			collect(loc.Child(0), !negative, op, loc, out)
			return
		}
	}
	*out = append(*out, Term{Loc: loc, Negative: negative, op: op, minus: minus})
}

// Nodes returns the signed summands of n.
func Nodes(n expr.Node) []expr.Node {
	terms := Terms(expr.NewTree(n.Clone()))
	out := make([]expr.Node, len(terms))
	for i, t := range terms {
		out[i] = t.Signed()
	}
	return out
}

// Count returns the number of top-level terms of n.
func Count(n expr.Node) int { return len(Terms(expr.NewTree(n))) }

// TermsToNode joins signed summands into a sum, turning a leading unary
// minus into a subtraction: ["-x", "1", "-3*y"] becomes "-x + 1 - 3*y".
func TermsToNode(terms []expr.Node) expr.Node {
	if len(terms) == 0 {
		return expr.Num(0)
	}
	acc := terms[0]
	for _, t := range terms[1:] {
		if u, ok := t.(*expr.UnaryMinus); ok {
			acc = expr.Bin(expr.Sub, acc, u.Operand)
		} else {
			acc = expr.Bin(expr.Add, acc, t)
		}
	}
	return acc
}

// ============================================================
// Factors
// ============================================================

// Factors splits the node at loc over its top-level "*" chain, left to
// right. A node that is not a product is its own single factor.
func Factors(loc expr.Location) []expr.Location {
	if expr.IsOp(loc.Node(), expr.Mul) {
		return append(Factors(loc.Child(0)), Factors(loc.Child(1))...)
	}
	return []expr.Location{loc}
}

// FactorNodes splits n into factor values. Products are split like
// Factors; a division contributes the factors of its numerator followed by
// each factor of its denominator as "1/f"; a parenthesized product in the
// denominator is split too. Literal ones are dropped unless
// nothing else is left.
func FactorNodes(n expr.Node) []expr.Node {
	out := factorNodes(n)
	if len(out) == 0 {
		return []expr.Node{expr.Num(1)}
	}
	return out
}

func factorNodes(n expr.Node) []expr.Node {
	b, ok := n.(*expr.BinaryOp)
	if !ok {
		if expr.IsNumber(n, 1) {
			return nil
		}
		return []expr.Node{n}
	}
	switch b.Op {
	case expr.Mul:
		return append(factorNodes(b.Left), factorNodes(b.Right)...)
	case expr.Div:
		out := factorNodes(b.Left)
		den := b.Right
		if p, ok := den.(*expr.Parenthesis); ok && (expr.IsOp(p.Inner, expr.Mul) || expr.IsOp(p.Inner, expr.Div)) {
			den = p.Inner
		}
		for _, d := range factorNodes(den) {
			out = append(out, expr.Bin(expr.Div, expr.Num(1), d))
		}
		return out
	}
	return []expr.Node{n}
}

// FactorsOf returns the factor locations of each term.
func FactorsOf(terms []Term) [][]expr.Location {
	out := make([][]expr.Location, len(terms))
	for i, t := range terms {
		out[i] = Factors(t.Loc)
	}
	return out
}

// ============================================================
// Common factors
// ============================================================

// FactorCount is a distinct factor and how often it occurs in a term.
type FactorCount struct {
	Factor expr.Node
	Count  int
}

// FactorCounts groups the factors of n by structural equality, in order of
// first appearance: 2*2*3*x^2*y^3 gives [2:2 3:1 x^2:1 y^3:1].
func FactorCounts(n expr.Node) []FactorCount {
	var out []FactorCount
	for _, loc := range Factors(expr.NewTree(n).Top()) {
		out = addCount(out, loc.Node())
	}
	return out
}

func addCount(counts []FactorCount, f expr.Node) []FactorCount {
	for i := range counts {
		if expr.Equal(counts[i].Factor, f) {
			counts[i].Count++
			return counts
		}
	}
	return append(counts, FactorCount{Factor: f, Count: 1})
}

func countOf(counts []FactorCount, f expr.Node) int {
	for _, c := range counts {
		if expr.Equal(c.Factor, f) {
			return c.Count
		}
	}
	return 0
}

// CommonFactors finds the factors shared by every term of tree's root. The
// result has one entry per term holding the locations of that term's
// common factors. Each distinct factor is taken with its minimum
// multiplicity across terms, and the distinct factors are enumerated from
// the term with the fewest factors (the first one on a tie). The literal 1
// is never common. A root with a single term yields that term's own
// factors.
func CommonFactors(tree *expr.Tree) [][]expr.Location {
	terms := Terms(tree)
	facs := FactorsOf(terms)
	counts := make([][]FactorCount, len(terms))
	basis := 0
	for i, fs := range facs {
		for _, loc := range fs {
			counts[i] = addCount(counts[i], loc.Node())
		}
		if len(fs) < len(facs[basis]) {
			basis = i
		}
	}

	out := make([][]expr.Location, len(terms))
	for _, c := range counts[basis] {
		if expr.IsNumber(c.Factor, 1) {
			continue
		}
		freq := c.Count
		for _, tc := range counts {
			if n := countOf(tc, c.Factor); n < freq {
				freq = n
			}
		}
		if freq == 0 {
			continue
		}
		for ti, fs := range facs {
			pushed := 0
			for _, loc := range fs {
				if pushed < freq && expr.Equal(loc.Node(), c.Factor) {
					out[ti] = append(out[ti], loc)
					pushed++
				}
			}
		}
	}
	return out
}

// CommonFactorNodes returns the values of the common factors found by
// CommonFactors, read from the first term.
func CommonFactorNodes(n expr.Node) []expr.Node {
	common := CommonFactors(expr.NewTree(n.Clone()))
	if len(common) == 0 {
		return nil
	}
	out := make([]expr.Node, len(common[0]))
	for i, loc := range common[0] {
		out[i] = loc.Node().Clone()
	}
	return out
}
