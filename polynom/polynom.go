// Package polynom relates sub-expressions to each other (equal, opposite)
// and divides sums by products of their common factors.
package polynom

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/florisdf/mathsteps/expr"
	"github.com/florisdf/mathsteps/simplify"
	"github.com/florisdf/mathsteps/term"
)

var (
	// ErrNotDivisible is the category of NotDivisibleError.
	ErrNotDivisible = errors.New("not divisible")
	// ErrAmbiguousOpposites is the category of ConsistencyError.
	ErrAmbiguousOpposites = errors.New("ambiguous opposite factor grouping")
)

// NotDivisibleError reports a divisor factor with no matching factor in
// the dividend.
type NotDivisibleError struct {
	Node    expr.Node
	Divisor expr.Node
}

func (e *NotDivisibleError) Error() string {
	return fmt.Sprintf("%s is not divisible by %s", expr.String(e.Node), expr.String(e.Divisor))
}

func (e *NotDivisibleError) Unwrap() error { return ErrNotDivisible }

// ConsistencyError reports a factor class with more than one opposite
// class.
type ConsistencyError struct {
	Class     expr.Node
	Opposites []expr.Node
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: %s has %d opposite classes", ErrAmbiguousOpposites, expr.String(e.Class), len(e.Opposites))
}

func (e *ConsistencyError) Unwrap() error { return ErrAmbiguousOpposites }

// ============================================================
// Relations
// ============================================================

// Analyzer decides equality and opposition of sub-expressions by
// comparing what its Simplifier makes of them.
type Analyzer struct {
	Simplifier simplify.Simplifier
}

// NewAnalyzer returns an analyzer backed by s, or by simplify.Default
// when s is nil.
func NewAnalyzer(s simplify.Simplifier) *Analyzer {
	if s == nil {
		s = simplify.Default
	}
	return &Analyzer{Simplifier: s}
}

func (a *Analyzer) simplified(n expr.Node) expr.Node {
	s := a.Simplifier
	if s == nil {
		s = simplify.Default
	}
	return simplify.Result(s, n)
}

// AreEqual reports whether x and y simplify to the same tree.
func (a *Analyzer) AreEqual(x, y expr.Node) bool {
	return expr.Equal(a.simplified(x), a.simplified(y))
}

// AreOpposite reports whether x simplifies to the same tree as -y.
func (a *Analyzer) AreOpposite(x, y expr.Node) bool {
	return a.AreEqual(x, negated(y))
}

func negated(n expr.Node) expr.Node { return expr.Neg(expr.Paren(n.Clone())) }

var defaultAnalyzer = NewAnalyzer(nil)

// AreEqual is Analyzer.AreEqual with the default simplifier.
func AreEqual(x, y expr.Node) bool { return defaultAnalyzer.AreEqual(x, y) }

// AreOpposite is Analyzer.AreOpposite with the default simplifier.
func AreOpposite(x, y expr.Node) bool { return defaultAnalyzer.AreOpposite(x, y) }

// ============================================================
// Negation
// ============================================================

// Negate returns an expression for -n that keeps n's shape: constants and
// symbols get or lose a unary minus, products negate their first factor,
// sums negate every term, and parentheses are kept.
func Negate(n expr.Node) expr.Node {
	if p, ok := n.(*expr.Parenthesis); ok {
		return expr.Paren(Negate(expr.Unparen(p)))
	}
	switch x := n.(type) {
	case *expr.UnaryMinus:
		return x.Operand.Clone()
	case *expr.Number:
		if x.Sign() < 0 {
			return expr.NumRat(new(big.Rat).Abs(x.Value))
		}
		return expr.Neg(x.Clone())
	case *expr.BinaryOp:
		switch x.Op {
		case expr.Mul, expr.Div:
			out := x.Clone().(*expr.BinaryOp)
			out.Left = Negate(out.Left)
			return out
		case expr.Add, expr.Sub:
			terms := term.Nodes(x)
			for i, t := range terms {
				terms[i] = Negate(t)
			}
			return term.TermsToNode(terms)
		}
	}
	return expr.Neg(n.Clone())
}

// ============================================================
// Division
// ============================================================

// DivideBySimpleFactor divides n by divisor using top-level factors only.
// A sum is divided term by term with signs preserved. Within a term, each
// factor of divisor consumes the first unused equal factor of the term,
// left to right; the quotient is the product of what is left, or 1.
// A divisor factor without a match yields a *NotDivisibleError.
func DivideBySimpleFactor(n, divisor expr.Node) (expr.Node, error) {
	tree := expr.NewTree(n.Clone())
	terms := term.Terms(tree)
	quots := make([]expr.Node, len(terms))
	for i, t := range terms {
		q, err := divideTerm(t.Loc, divisor)
		if err != nil {
			return nil, err
		}
		if t.Negative {
			q = expr.Neg(q)
		}
		quots[i] = q
	}
	return term.TermsToNode(quots), nil
}

func divideTerm(loc expr.Location, divisor expr.Node) (expr.Node, error) {
	facs := term.Factors(loc)
	used := make([]bool, len(facs))
	for _, d := range term.Factors(expr.NewTree(divisor).Top()) {
		found := false
		for i, f := range facs {
			if !used[i] && expr.EqualUnparen(f.Node(), d.Node()) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return nil, &NotDivisibleError{Node: loc.Node().Clone(), Divisor: divisor.Clone()}
		}
	}
	var rest []expr.Node
	for i, f := range facs {
		if !used[i] {
			rest = append(rest, f.Node().Clone())
		}
	}
	return expr.Product(rest...), nil
}

// Isolate writes n as factor*(n/factor).
func Isolate(n, factor expr.Node) (expr.Node, error) {
	q, err := DivideBySimpleFactor(n, factor)
	if err != nil {
		return nil, fmt.Errorf("isolate %s: %w", expr.String(factor), err)
	}
	return expr.Bin(expr.Mul, AsFactor(factor.Clone()), AsFactor(q)), nil
}

// AsFactor parenthesizes n when it has more than one term or a leading
// unary minus, so it can be used as a single factor of a product.
func AsFactor(n expr.Node) expr.Node {
	if term.Count(n) > 1 || expr.IsUnaryMinus(n) {
		return expr.Paren(n)
	}
	return n
}
