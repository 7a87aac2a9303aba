package isolate

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/florisdf/mathsteps/expon"
	"github.com/florisdf/mathsteps/expr"
	"github.com/florisdf/mathsteps/factor"
	"github.com/florisdf/mathsteps/polynom"
	"github.com/florisdf/mathsteps/step"
	"github.com/florisdf/mathsteps/term"
)

var errFactorMoved = errors.New("factor no longer at its term and factor index")

// ============================================================
// Helpers
// ============================================================

// locate resolves the factor-th factor of the term-th term of tree.
func locate(tree *expr.Tree, ti, fi int) (expr.Location, error) {
	terms := term.Terms(tree)
	if ti >= len(terms) {
		return expr.Location{}, fmt.Errorf("term %d, factor %d: %w", ti, fi, errFactorMoved)
	}
	facs := term.Factors(terms[ti].Loc)
	if fi >= len(facs) {
		return expr.Location{}, fmt.Errorf("term %d, factor %d: %w", ti, fi, errFactorMoved)
	}
	return facs[fi], nil
}

// rewriteFactors applies rewrite to every top-level factor of every term
// of n. rewrite returns nil to keep a factor. Each rewritten factor gets
// its own tag in both snapshots.
func rewriteFactors(kind step.ChangeType, n expr.Node, rewrite func(expr.Node) expr.Node) *step.Step {
	before := expr.NewTree(step.ResetTags(n))
	after := before.Clone()
	beforeTerms := term.Terms(before)
	tag := 0
	for ti, t := range term.Terms(after) {
		beforeFacs := term.Factors(beforeTerms[ti].Loc)
		for fi, loc := range term.Factors(t.Loc) {
			out := rewrite(loc.Node())
			if out == nil {
				continue
			}
			tag++
			out = out.Clone()
			out.SetTag(tag)
			beforeFacs[fi].Node().SetTag(tag)
			loc.Replace(out)
		}
	}
	if tag == 0 {
		return step.NoChange(n)
	}
	return step.New(kind, before.Root(), after.Root())
}

// ============================================================
// Phase 1: equalize opposite factors
// ============================================================

// Equalize rewrites factors that are opposite to a class of equal factors
// into that class's representative, flipping the sign of their terms:
// 3*(x - 1) + 2*(1 - x) becomes 3*(x - 1) - 2*(x - 1).
func (p *Pipeline) Equalize(n expr.Node) (*step.Step, error) {
	start := step.ResetTags(n)
	all, err := p.analyzer.OpEqFacs(expr.NewTree(start.Clone()))
	if err != nil {
		return step.NoChange(n), fmt.Errorf("equalize: %w", err)
	}
	var groups []polynom.Group
	for _, g := range all {
		if len(g.Opposite) > 0 {
			groups = append(groups, g)
		}
	}
	if len(groups) == 0 {
		return step.NoChange(n), nil
	}

	find, err := tagFactors(start, groups, true)
	if err != nil {
		return step.NoChange(n), fmt.Errorf("equalize: %w", err)
	}
	subs := []*step.Step{step.New(step.FindOpFacs, start, find)}

	for _, sub := range []func(expr.Node, []polynom.Group) (*step.Step, error){
		negateOpposites, minusOutsideParens, equalizeMembers,
	} {
		s, err := sub(step.ResetTags(subs[len(subs)-1].After), groups)
		if err != nil {
			return step.NoChange(n), fmt.Errorf("equalize: %w", err)
		}
		if s.HasChanged() {
			subs = append(subs, s)
		}
	}

	end := step.ResetTags(subs[len(subs)-1].After)
	before, err := tagTerms(start, groups)
	if err != nil {
		return step.NoChange(n), fmt.Errorf("equalize: %w", err)
	}
	after, err := tagTerms(end, groups)
	if err != nil {
		return step.NoChange(n), fmt.Errorf("equalize: %w", err)
	}
	return step.New(step.EqualizeTermFactors, before, after, subs...), nil
}

// tagFactors returns a copy of n with the opposite members, and the equal
// members when withEqual is set, tagged by group.
func tagFactors(n expr.Node, groups []polynom.Group, withEqual bool) (expr.Node, error) {
	tree := expr.NewTree(n.Clone())
	for gi, g := range groups {
		refs := g.Opposite
		if withEqual {
			refs = append(append([]polynom.FactorRef(nil), g.Equal...), g.Opposite...)
		}
		for _, ref := range refs {
			loc, err := locate(tree, ref.Term, ref.Factor)
			if err != nil {
				return nil, err
			}
			loc.Node().SetTag(gi + 1)
		}
	}
	return tree.Root(), nil
}

// tagTerms returns a copy of n with the terms holding opposite members
// tagged by group.
func tagTerms(n expr.Node, groups []polynom.Group) (expr.Node, error) {
	tree := expr.NewTree(n.Clone())
	for gi, g := range groups {
		for _, ref := range g.Opposite {
			terms := term.Terms(tree)
			if ref.Term >= len(terms) {
				return nil, fmt.Errorf("term %d: %w", ref.Term, errFactorMoved)
			}
			terms[ref.Term].Loc.Node().SetTag(gi + 1)
		}
	}
	return tree.Root(), nil
}

// negateOpposites writes every opposite factor f as (-(g)) where g is the
// negation of f.
func negateOpposites(n expr.Node, groups []polynom.Group) (*step.Step, error) {
	before, err := tagFactors(n, groups, false)
	if err != nil {
		return nil, err
	}
	after := expr.NewTree(n.Clone())
	for gi, g := range groups {
		for _, ref := range g.Opposite {
			loc, err := locate(after, ref.Term, ref.Factor)
			if err != nil {
				return nil, err
			}
			out := expr.Paren(expr.Neg(polynom.Negate(loc.Node())))
			out.SetTag(gi + 1)
			loc.Replace(out)
		}
	}
	return step.New(step.NegateOpFacs, before, after.Root()), nil
}

// minusOutsideParens drops the minus written by negateOpposites and flips
// the sign of the enclosing term instead.
func minusOutsideParens(n expr.Node, groups []polynom.Group) (*step.Step, error) {
	tree := expr.NewTree(n.Clone())
	for _, g := range groups {
		for _, ref := range g.Opposite {
			loc, err := locate(tree, ref.Term, ref.Factor)
			if err != nil {
				return nil, err
			}
			p, ok := loc.Node().(*expr.Parenthesis)
			if !ok {
				return nil, fmt.Errorf("term %d, factor %d is %s: %w", ref.Term, ref.Factor, loc.Node(), errFactorMoved)
			}
			minus, ok := p.Inner.(*expr.UnaryMinus)
			if !ok {
				return nil, fmt.Errorf("term %d, factor %d is %s: %w", ref.Term, ref.Factor, loc.Node(), errFactorMoved)
			}
			loc.Replace(minus.Operand)
			term.Terms(tree)[ref.Term].FlipSign()
		}
	}
	before, err := tagTerms(n, groups)
	if err != nil {
		return nil, err
	}
	after, err := tagTerms(tree.Root(), groups)
	if err != nil {
		return nil, err
	}
	return step.New(step.MinusOutsideParens, before, after), nil
}

// equalizeMembers writes every member of a group as the group's
// representative.
func equalizeMembers(n expr.Node, groups []polynom.Group) (*step.Step, error) {
	before := expr.NewTree(n.Clone())
	after := expr.NewTree(n.Clone())
	changed := false
	for gi, g := range groups {
		rep := g.Representative()
		members := append(append([]polynom.FactorRef(nil), g.Equal[1:]...), g.Opposite...)
		for _, ref := range members {
			loc, err := locate(after, ref.Term, ref.Factor)
			if err != nil {
				return nil, err
			}
			if expr.Equal(loc.Node(), rep) {
				continue
			}
			old, err := locate(before, ref.Term, ref.Factor)
			if err != nil {
				return nil, err
			}
			old.Node().SetTag(gi + 1)
			out := rep.Clone()
			out.SetTag(gi + 1)
			loc.Replace(out)
			changed = true
		}
	}
	if !changed {
		return step.NoChange(n), nil
	}
	return step.New(step.EqualizeTermFactors, before.Root(), after.Root()), nil
}

// ============================================================
// Phase 2: split coefficients into primes
// ============================================================

// PrimeSplit writes every constant factor as the product of its primes:
// 12*x becomes 2*2*3*x.
func (p *Pipeline) PrimeSplit(n expr.Node) (*step.Step, error) {
	return rewriteFactors(step.FactorCoeffsIntoPrimes, n, func(f expr.Node) expr.Node {
		primes := factor.PrimeFactorize(f)
		if len(primes) < 2 {
			return nil
		}
		return expr.Product(primes...)
	}), nil
}

// ============================================================
// Phase 3: split exponents
// ============================================================

// ExponentSplit collapses power towers, simplifies exponents and splits
// additive exponents into products of powers, one nested step each.
func (p *Pipeline) ExponentSplit(n expr.Node) (*step.Step, error) {
	chain := step.NewChain(n)
	chain.Apply(collapseExponents)
	chain.Apply(p.simplifyExponents)
	chain.Apply(splitExponentTerms)
	return chain.Result(step.SplitExponents, n), nil
}

func collapseExponents(n expr.Node) *step.Step {
	return rewriteFactors(step.CollapseExponents, n, func(f expr.Node) expr.Node {
		if out := expon.CollapseExponents(f); out != f {
			return out
		}
		return nil
	})
}

func splitExponentTerms(n expr.Node) *step.Step {
	return rewriteFactors(step.SplitExponentTerms, n, func(f expr.Node) expr.Node {
		if out := expon.SplitExponentTerms(f); out != f {
			return out
		}
		return nil
	})
}

// simplifyExponents hands the exponent of every power factor to the
// simplifier. The simplifier's steps are kept as substeps, re-expressed on
// the whole expression.
func (p *Pipeline) simplifyExponents(n expr.Node) *step.Step {
	tree := expr.NewTree(step.ResetTags(n))
	var subs []*step.Step
	for _, t := range term.Terms(tree) {
		for _, loc := range term.Factors(t.Loc) {
			pw, ok := loc.Node().(*expr.BinaryOp)
			if !ok || pw.Op != expr.Pow {
				continue
			}
			steps := p.simplifier.Simplify(pw.Right)
			if len(steps) == 0 {
				continue
			}
			out := steps[len(steps)-1].After
			if expr.EqualUnparen(out, pw.Right) {
				continue
			}
			subs = append(subs, step.Embed(tree.Root(), loc.Path().Child(1), steps)...)
			pw.Right = out.Clone()
		}
	}
	if len(subs) == 0 {
		return step.NoChange(n)
	}
	return step.New(step.SimplifyExponents, n, tree.Root(), subs...)
}

// ============================================================
// Phase 4: pull equal factors
// ============================================================

// PullEqualFactors writes a sum whose terms share factors as the product
// of the shared factors and the quotient: 2*x + 2*y becomes 2*(x + y).
// A candidate factor the sum is not divisible by is skipped.
func (p *Pipeline) PullEqualFactors(n expr.Node) (*step.Step, error) {
	tree := expr.NewTree(step.ResetTags(n))
	if len(term.Terms(tree)) < 2 {
		return step.NoChange(n), nil
	}
	common := term.CommonFactors(tree)
	quot := tree.Root()
	var kept []int
	for k, loc := range common[0] {
		q, err := polynom.DivideBySimpleFactor(quot, loc.Node())
		if errors.Is(err, polynom.ErrNotDivisible) {
			p.log.Debug("common factor skipped", zap.String("factor", loc.Node().String()), zap.Error(err))
			continue
		}
		if err != nil {
			return step.NoChange(n), fmt.Errorf("pull equal factors: %w", err)
		}
		quot = q
		kept = append(kept, k)
	}
	if len(kept) == 0 {
		return step.NoChange(n), nil
	}

	factors := make([]expr.Node, len(kept))
	for i, k := range kept {
		factors[i] = common[0][k].Node().Clone()
	}
	for _, locs := range common {
		for _, k := range kept {
			locs[k].Node().SetTag(1)
		}
	}
	divisor := expr.Product(factors...)
	divisor.SetTag(1)
	after := expr.Bin(expr.Mul, divisor, expr.Paren(quot))
	return step.New(step.EqualFactorsOutsideParens, tree.Root(), after), nil
}
