// Package canon is an exact canonical form for polynomial-like
// expressions: expanded sums of monomials with rational coefficients,
// where exponents may themselves be symbolic polynomials.
//
// Two expressions with the same canonical form are equal. The converse
// does not hold for every input (no polynomial GCD is attempted, and
// sums raised to symbolic or large powers are kept as opaque atoms), but
// it does for the polynomial arithmetic the factoring pipeline produces.
package canon

import (
	"errors"
	"math/big"
	"sort"
	"strings"

	"github.com/florisdf/mathsteps/expr"
)

// ErrDivisionByZero is returned when an expression divides by a value
// that is identically zero.
var ErrDivisionByZero = errors.New("canon: division by zero")

// DefaultMaxExpansion is the largest integer power of a sum that is
// multiplied out when no other limit is given. Larger powers are kept as
// opaque atoms.
const DefaultMaxExpansion = 16

// maxCoeffPower bounds integer powers of rational coefficients.
const maxCoeffPower = 1024

// ============================================================
// Rational helpers
// ============================================================

func ratInt(n int64) *big.Rat       { return new(big.Rat).SetInt64(n) }
func ratAdd(a, b *big.Rat) *big.Rat { return new(big.Rat).Add(a, b) }
func ratMul(a, b *big.Rat) *big.Rat { return new(big.Rat).Mul(a, b) }
func ratNeg(a *big.Rat) *big.Rat    { return new(big.Rat).Neg(a) }
func ratIsOne(a *big.Rat) bool      { return a.Cmp(ratInt(1)) == 0 }
func ratAbs(a *big.Rat) *big.Rat    { return new(big.Rat).Abs(a) }
func ratClone(a *big.Rat) *big.Rat  { return new(big.Rat).Set(a) }

func ratPow(a *big.Rat, k int64) *big.Rat {
	neg := k < 0
	if neg {
		k = -k
	}
	num := new(big.Int).Exp(a.Num(), big.NewInt(k), nil)
	den := new(big.Int).Exp(a.Denom(), big.NewInt(k), nil)
	if neg {
		num, den = den, num
	}
	if den.Sign() < 0 {
		num.Neg(num)
		den.Neg(den)
	}
	return new(big.Rat).SetFrac(num, den)
}

// ============================================================
// Atom, Power, Mono, Poly
// ============================================================

// Atom is an indivisible base: a symbol, or an expression kept whole such
// as a sum under a symbolic power.
type Atom struct {
	key  string
	node expr.Node
}

func symbolAtom(name string) Atom { return Atom{key: name, node: expr.Sym(name)} }

func opaqueAtom(p *Poly) Atom {
	n := p.ToNode()
	if n.Precedence() < expr.AtomicPrecedence {
		n = expr.Paren(n)
	}
	return Atom{key: "{" + p.Key() + "}", node: n}
}

// Power is an atom raised to a (possibly symbolic) exponent.
type Power struct {
	Atom Atom
	Exp  *Poly
}

// Mono is a coefficient times a product of powers of distinct atoms,
// sorted by atom key.
type Mono struct {
	Coeff  *big.Rat
	Powers []Power
}

// Poly is a sum of monomials with distinct power products and non-zero
// coefficients, kept in canonical order. The zero polynomial has no
// monomials.
type Poly struct {
	Monos []*Mono
}

// Const returns the constant polynomial r.
func Const(r *big.Rat) *Poly {
	if r.Sign() == 0 {
		return &Poly{}
	}
	return &Poly{Monos: []*Mono{{Coeff: ratClone(r)}}}
}

// Int returns the constant polynomial n.
func Int(n int64) *Poly { return Const(ratInt(n)) }

// Var returns the polynomial consisting of the symbol name.
func Var(name string) *Poly {
	return &Poly{Monos: []*Mono{{Coeff: ratInt(1), Powers: []Power{{Atom: symbolAtom(name), Exp: Int(1)}}}}}
}

func atomPoly(a Atom, exp *Poly) *Poly {
	return &Poly{Monos: []*Mono{{Coeff: ratInt(1), Powers: []Power{{Atom: a, Exp: exp}}}}}
}

// IsZero reports whether p is identically zero.
func (p *Poly) IsZero() bool { return len(p.Monos) == 0 }

// Constant returns the value of p when p has no atoms.
func (p *Poly) Constant() (*big.Rat, bool) {
	switch len(p.Monos) {
	case 0:
		return new(big.Rat), true
	case 1:
		if len(p.Monos[0].Powers) == 0 {
			return ratClone(p.Monos[0].Coeff), true
		}
	}
	return nil, false
}

// Key is a canonical text for p: equal keys mean equal polynomials.
func (p *Poly) Key() string {
	if p.IsZero() {
		return "0"
	}
	parts := make([]string, len(p.Monos))
	for i, m := range p.Monos {
		parts[i] = m.Coeff.RatString() + "*" + m.key()
	}
	return strings.Join(parts, "+")
}

func (m *Mono) key() string {
	parts := make([]string, len(m.Powers))
	for i, pw := range m.Powers {
		if c, ok := pw.Exp.Constant(); ok && ratIsOne(c) {
			parts[i] = pw.Atom.key
		} else {
			parts[i] = pw.Atom.key + "^(" + pw.Exp.Key() + ")"
		}
	}
	return strings.Join(parts, "*")
}

// degree sums the constant exponents of m; symbolic exponents count as 0.
func (m *Mono) degree() *big.Rat {
	d := new(big.Rat)
	for _, pw := range m.Powers {
		if c, ok := pw.Exp.Constant(); ok {
			d.Add(d, c)
		}
	}
	return d
}

// normalize merges monomials with equal power products, drops zero
// coefficients and sorts: higher degree first, then by lessPowers,
// constants last.
func normalize(monos []*Mono) *Poly {
	byKey := map[string]*Mono{}
	var order []string
	for _, m := range monos {
		if m.Coeff.Sign() == 0 {
			continue
		}
		k := m.key()
		if prev, ok := byKey[k]; ok {
			prev.Coeff = ratAdd(prev.Coeff, m.Coeff)
			continue
		}
		byKey[k] = &Mono{Coeff: ratClone(m.Coeff), Powers: m.Powers}
		order = append(order, k)
	}
	out := &Poly{}
	for _, k := range order {
		if m := byKey[k]; m.Coeff.Sign() != 0 {
			out.Monos = append(out.Monos, m)
		}
	}
	sort.SliceStable(out.Monos, func(i, j int) bool {
		a, b := out.Monos[i], out.Monos[j]
		if (len(a.Powers) == 0) != (len(b.Powers) == 0) {
			return len(b.Powers) == 0
		}
		if c := a.degree().Cmp(b.degree()); c != 0 {
			return c > 0
		}
		return lessPowers(a.Powers, b.Powers)
	})
	return out
}

// lessPowers orders power products lexicographically by atom, a higher
// power of the same atom first: a^3, a^2*b, a*b^2, b^3.
func lessPowers(a, b []Power) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i].Atom.key != b[i].Atom.key {
			return a[i].Atom.key < b[i].Atom.key
		}
		ca, okA := a[i].Exp.Constant()
		cb, okB := b[i].Exp.Constant()
		if okA && okB {
			if c := ca.Cmp(cb); c != 0 {
				return c > 0
			}
			continue
		}
		if ka, kb := a[i].Exp.Key(), b[i].Exp.Key(); ka != kb {
			return ka < kb
		}
	}
	return len(a) > len(b)
}

// ============================================================
// Arithmetic
// ============================================================

// Add returns a + b.
func Add(a, b *Poly) *Poly {
	monos := make([]*Mono, 0, len(a.Monos)+len(b.Monos))
	monos = append(monos, a.Monos...)
	monos = append(monos, b.Monos...)
	return normalize(monos)
}

// Neg returns -a.
func Neg(a *Poly) *Poly {
	out := &Poly{Monos: make([]*Mono, len(a.Monos))}
	for i, m := range a.Monos {
		out.Monos[i] = &Mono{Coeff: ratNeg(m.Coeff), Powers: m.Powers}
	}
	return out
}

// Sub returns a - b.
func Sub(a, b *Poly) *Poly { return Add(a, Neg(b)) }

// Mul returns a * b, fully expanded.
func Mul(a, b *Poly) *Poly {
	var monos []*Mono
	for _, x := range a.Monos {
		for _, y := range b.Monos {
			if m := mulMono(x, y); m != nil {
				monos = append(monos, m)
			}
		}
	}
	return normalize(monos)
}

func mulMono(a, b *Mono) *Mono {
	out := &Mono{Coeff: ratMul(a.Coeff, b.Coeff)}
	i, j := 0, 0
	for i < len(a.Powers) || j < len(b.Powers) {
		switch {
		case j == len(b.Powers) || (i < len(a.Powers) && a.Powers[i].Atom.key < b.Powers[j].Atom.key):
			out.Powers = append(out.Powers, a.Powers[i])
			i++
		case i == len(a.Powers) || b.Powers[j].Atom.key < a.Powers[i].Atom.key:
			out.Powers = append(out.Powers, b.Powers[j])
			j++
		default:
			if exp := Add(a.Powers[i].Exp, b.Powers[j].Exp); !exp.IsZero() {
				out.Powers = append(out.Powers, Power{Atom: a.Powers[i].Atom, Exp: exp})
			}
			i++
			j++
		}
	}
	return out
}

// Pow returns base^exp, expanding sums up to DefaultMaxExpansion.
func Pow(base, exp *Poly) (*Poly, error) { return PowLimit(base, exp, DefaultMaxExpansion) }

// PowLimit returns base^exp.
//
// Integer powers of a single monomial and integer powers up to
// maxExpansion of a sum are computed exactly; other powers of a monomial
// with coefficient 1 multiply its exponents. Anything else becomes an
// opaque atom raised to exp.
func PowLimit(base, exp *Poly, maxExpansion int) (*Poly, error) {
	c, expConst := exp.Constant()
	if expConst && c.Sign() == 0 {
		return Int(1), nil
	}
	if base.IsZero() {
		if expConst && c.Sign() < 0 {
			return nil, ErrDivisionByZero
		}
		if expConst {
			return &Poly{}, nil
		}
		return atomPoly(opaqueAtom(base), exp), nil
	}

	if expConst && c.IsInt() && c.Num().IsInt64() {
		k := c.Num().Int64()
		if len(base.Monos) == 1 {
			m := base.Monos[0]
			if k <= maxCoeffPower && k >= -maxCoeffPower {
				return &Poly{Monos: []*Mono{scaleMono(m, ratPow(m.Coeff, k), Int(k))}}, nil
			}
		} else if k > 0 && k <= int64(maxExpansion) {
			out := Int(1)
			for i := int64(0); i < k; i++ {
				out = Mul(out, base)
			}
			return out, nil
		}
	}

	if len(base.Monos) == 1 && ratIsOne(base.Monos[0].Coeff) {
		return &Poly{Monos: []*Mono{scaleMono(base.Monos[0], ratInt(1), exp)}}, nil
	}
	if len(base.Monos) == 1 && len(base.Monos[0].Powers) > 0 {
		// c*m^e = c^e * m^e with c kept as an opaque number.
		m := base.Monos[0]
		rest := &Poly{Monos: []*Mono{scaleMono(m, ratInt(1), exp)}}
		return Mul(atomPoly(opaqueAtom(Const(m.Coeff)), exp), rest), nil
	}
	return atomPoly(opaqueAtom(base), exp), nil
}

// scaleMono returns m with coefficient coeff and every exponent
// multiplied by k.
func scaleMono(m *Mono, coeff *big.Rat, k *Poly) *Mono {
	out := &Mono{Coeff: coeff}
	for _, pw := range m.Powers {
		out.Powers = append(out.Powers, Power{Atom: pw.Atom, Exp: Mul(pw.Exp, k)})
	}
	return out
}

// Div returns a / b.
func Div(a, b *Poly) (*Poly, error) {
	inv, err := Pow(b, Int(-1))
	if err != nil {
		return nil, err
	}
	return Mul(a, inv), nil
}

// Equal reports whether a and b have the same canonical form.
func Equal(a, b *Poly) bool { return a.Key() == b.Key() }
