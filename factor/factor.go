// Package factor splits integer constants and constant fractions into
// prime factors.
package factor

import (
	"math"
	"math/big"

	"github.com/florisdf/mathsteps/expr"
)

// MinusOne returns the node used for a split-off sign: a unary minus
// applied to 1.
func MinusOne() expr.Node { return expr.Neg(expr.Num(1)) }

// IsConstantOrFraction reports whether n is a numeric constant, a quotient
// of two constants, or the negation of either.
func IsConstantOrFraction(n expr.Node) bool {
	switch x := n.(type) {
	case *expr.Number:
		return true
	case *expr.UnaryMinus:
		return IsConstantOrFraction(x.Operand) && !expr.IsUnaryMinus(x.Operand)
	case *expr.BinaryOp:
		if x.Op != expr.Div {
			return false
		}
		_, l := x.Left.(*expr.Number)
		_, r := x.Right.(*expr.Number)
		return l && r
	}
	return false
}

// PrimeFactorize splits a constant into its prime factors in ascending
// order: 12 gives [2 2 3] and -12 gives [-1 2 2 3]. Fractions split the
// numerator and the denominator independently and return each
// denominator prime p as 1/p.
//
// Inputs that do not split come back as a single-element slice holding n
// itself, so callers can detect "nothing happened" by identity: primes,
// 0, 1, -1, non-constants, integers that do not fit in an int64, and
// fractions whose sides are both prime.
func PrimeFactorize(n expr.Node) []expr.Node {
	if !IsConstantOrFraction(n) {
		return []expr.Node{n}
	}

	var sign []expr.Node
	abs := n
	switch x := n.(type) {
	case *expr.UnaryMinus:
		if expr.IsNumber(x.Operand, 1) {
			return []expr.Node{n}
		}
		sign = []expr.Node{MinusOne()}
		abs = x.Operand
	case *expr.Number:
		if x.Sign() < 0 {
			if expr.IsNumber(x, -1) {
				return []expr.Node{n}
			}
			sign = []expr.Node{MinusOne()}
			abs = expr.NumRat(new(big.Rat).Neg(x.Value))
		}
	}

	var num, den expr.Node
	switch x := abs.(type) {
	case *expr.BinaryOp:
		num, den = x.Left, x.Right
	case *expr.Number:
		if x.IsInteger() {
			return append(sign, splitInteger(x)...)
		}
		num, den = expr.NumRat(new(big.Rat).SetInt(x.Value.Num())), expr.NumRat(new(big.Rat).SetInt(x.Value.Denom()))
	}

	numFacs := PrimeFactorize(num)
	denFacs := PrimeFactorize(den)
	if len(numFacs) == 1 && len(denFacs) == 1 {
		return append(sign, abs)
	}
	out := sign
	for _, f := range numFacs {
		if !expr.IsNumber(f, 1) {
			out = append(out, f)
		}
	}
	for _, f := range denFacs {
		out = append(out, expr.Bin(expr.Div, expr.Num(1), f))
	}
	return out
}

// splitInteger factors a non-negative integer constant by trial division:
// 2, then odd candidates up to the square root. A prime is returned as the
// original node.
func splitInteger(n *expr.Number) []expr.Node {
	v, ok := n.Int64()
	if !ok || v < 4 {
		return []expr.Node{n}
	}
	var out []expr.Node
	for {
		p := smallestFactor(v)
		if p == v {
			if len(out) == 0 {
				return []expr.Node{n}
			}
			return append(out, expr.Num(v))
		}
		out = append(out, expr.Num(p))
		v /= p
	}
}

// smallestFactor returns the smallest prime dividing v, or v when v is
// prime.
func smallestFactor(v int64) int64 {
	if v%2 == 0 {
		return 2
	}
	root := int64(math.Sqrt(float64(v)))
	for root*root > v {
		root--
	}
	for (root+1)*(root+1) <= v {
		root++
	}
	for c := int64(3); c <= root; c += 2 {
		if v%c == 0 {
			return c
		}
	}
	return v
}

// Primes returns the prime factors of v as integers, with -1 first for a
// negative v. 0 and ±1 return themselves.
func Primes(v int64) []int64 {
	var out []int64
	if v < 0 {
		if v == -1 {
			return []int64{-1}
		}
		out = append(out, -1)
		v = -v
	}
	if v < 4 {
		return append(out, v)
	}
	for v > 1 {
		p := smallestFactor(v)
		out = append(out, p)
		v /= p
	}
	return out
}

// FactorPairs lists every pair (d, v/d) with d a divisor of v and
// -√|v| ≤ d ≤ √|v|, d ≠ 0, in increasing order of d.
func FactorPairs(v int64) [][2]int64 {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	bound := int64(math.Sqrt(float64(abs)))
	for bound*bound > abs {
		bound--
	}
	var out [][2]int64
	for d := -bound; d <= bound; d++ {
		if d != 0 && v%d == 0 {
			out = append(out, [2]int64{d, v / d})
		}
	}
	return out
}
