package isolate

import (
	"github.com/florisdf/mathsteps/expon"
	"github.com/florisdf/mathsteps/expr"
	"github.com/florisdf/mathsteps/polynom"
	"github.com/florisdf/mathsteps/simplify"
	"github.com/florisdf/mathsteps/step"
	"github.com/florisdf/mathsteps/term"
)

// ============================================================
// Phase 5: pull factors with a common base
// ============================================================

// PullExponentFactors pulls out powers of a base shared by every term at
// the smallest exponent that occurs: x^3*y + x^2*y^2 becomes
// x^2*y*(x + y).
//
// A sum is rewritten directly. A single product whose last factor is a
// parenthesized sum, as left by PullEqualFactors, has that sum rewritten
// and the result merged into the product: 2*(x + 2*x^2) becomes
// 2*x*(1 + 2*x).
func (p *Pipeline) PullExponentFactors(n expr.Node) (*step.Step, error) {
	start := step.ResetTags(n)
	if term.Count(start) > 1 {
		return p.pullExponentFactors(start), nil
	}

	tree := expr.NewTree(start.Clone())
	t := term.Terms(tree)[0]
	facs := term.Factors(t.Loc)
	last := facs[len(facs)-1]
	paren, ok := last.Node().(*expr.Parenthesis)
	if len(facs) < 2 || !ok || term.Count(paren.Inner) < 2 {
		return step.NoChange(n), nil
	}
	inner := p.pullExponentFactors(paren.Inner)
	if !inner.HasChanged() {
		return step.NoChange(n), nil
	}

	subs := step.Embed(start, last.Path().Child(0), inner.Substeps)
	embedded := subs[len(subs)-1].After

	merged := make([]expr.Node, 0, len(facs))
	for _, f := range facs[:len(facs)-1] {
		merged = append(merged, f.Node().Clone())
	}
	for _, f := range term.Factors(expr.NewTree(step.ResetTags(inner.After)).Top()) {
		merged = append(merged, f.Node())
	}
	out := expr.NewTree(step.ResetTags(embedded))
	out.MustAt(t.Loc.Path()).Replace(expr.Product(merged...))
	subs = append(subs, step.New(step.MergeCommonFactors, embedded, out.Root()))

	return step.New(step.ExponFactorsOutsideParens, start, out.Root(), subs...), nil
}

// baseGroup is every common factor occurrence of one base.
type baseGroup struct {
	base  expr.Node
	paths []expr.Path
}

func (p *Pipeline) pullExponentFactors(n expr.Node) *step.Step {
	chain := step.NewChain(n)

	paths := commonBasePaths(chain.Current)
	if len(paths) == 0 {
		return step.NoChange(n)
	}
	chain.Apply(func(cur expr.Node) *step.Step { return addExponentOfOne(cur, paths) })

	groups := groupByBase(chain.Current, paths)
	mins := make([]expr.Node, len(groups))
	for i, g := range groups {
		mins[i] = minExponent(exponentsOf(chain.Current, g))
	}
	chain.Apply(func(cur expr.Node) *step.Step { return p.splitIntegerExponents(cur, groups, mins) })
	chain.Apply(splitExponentTerms)
	if !chain.Apply(func(cur expr.Node) *step.Step {
		s, _ := p.PullEqualFactors(cur)
		return s
	}) {
		return step.NoChange(n)
	}
	chain.Apply(removeExponentByOne)
	return chain.Result(step.ExponFactorsOutsideParens, n)
}

// commonBasePaths finds the factors whose bases are common to every term,
// looking through exponents. Paths are listed term by term.
func commonBasePaths(n expr.Node) []expr.Path {
	stripped := expr.NewTree(n.Clone())
	for _, t := range term.Terms(stripped) {
		for _, loc := range term.Factors(t.Loc) {
			if base := expon.Base(loc.Node()); base != nil && !expr.IsOp(base, expr.Mul) {
				loc.Replace(base)
			}
		}
	}
	var out []expr.Path
	for _, locs := range term.CommonFactors(stripped) {
		for _, loc := range locs {
			out = append(out, loc.Path())
		}
	}
	return out
}

// addExponentOfOne writes every common factor as a power, and gives an
// exponent without an integer factor a factor 1, so that every exponent
// has an integer part: x becomes x^1 and x^m becomes x^(1*m).
func addExponentOfOne(n expr.Node, paths []expr.Path) *step.Step {
	before := expr.NewTree(n.Clone())
	after := expr.NewTree(n.Clone())
	changed := false
	for _, path := range paths {
		loc := after.MustAt(path)
		var out expr.Node
		switch pw, ok := loc.Node().(*expr.BinaryOp); {
		case !ok || pw.Op != expr.Pow:
			out = expr.Bin(expr.Pow, loc.Node(), expr.Num(1))
		case !hasIntegerFactor(pw.Right):
			exp := expr.Unparen(pw.Right)
			if term.Count(exp) > 1 {
				exp = expr.Paren(exp)
			}
			out = expr.Bin(expr.Pow, pw.Left, expr.Paren(expr.Bin(expr.Mul, expr.Num(1), exp)))
		default:
			continue
		}
		out.SetTag(1)
		before.MustAt(path).Node().SetTag(1)
		loc.Replace(out)
		changed = true
	}
	if !changed {
		return step.NoChange(n)
	}
	return step.New(step.AddExponentOfOne, before.Root(), after.Root())
}

func hasIntegerFactor(exp expr.Node) bool {
	for _, f := range term.Factors(expr.NewTree(expr.Unparen(exp)).Top()) {
		if num, ok := f.Node().(*expr.Number); ok && num.IsInteger() {
			return true
		}
	}
	return false
}

// groupByBase groups the powers at paths by structurally equal base, in
// order of first appearance.
func groupByBase(n expr.Node, paths []expr.Path) []baseGroup {
	tree := expr.NewTree(n)
	var out []baseGroup
	for _, path := range paths {
		base := expon.Base(tree.MustAt(path).Node())
		if base == nil {
			continue
		}
		found := false
		for i := range out {
			if expr.Equal(out[i].base, base) {
				out[i].paths = append(out[i].paths, path)
				found = true
				break
			}
		}
		if !found {
			out = append(out, baseGroup{base: base, paths: []expr.Path{path}})
		}
	}
	return out
}

func exponentsOf(n expr.Node, g baseGroup) []expr.Node {
	tree := expr.NewTree(n)
	out := make([]expr.Node, len(g.paths))
	for i, path := range g.paths {
		out[i] = expr.Unparen(tree.MustAt(path).Node().(*expr.BinaryOp).Right)
	}
	return out
}

// minExponent returns the smallest of exps, or nil when they cannot be
// ordered. Positive integer literals are compared directly. Otherwise the
// factors common to all exponents are set aside and the rest must be
// positive integers: for 2*m and 3*m the minimum is 2*m.
func minExponent(exps []expr.Node) expr.Node {
	if lowest, ok := minPositiveInt(exps); ok {
		return expr.Num(lowest)
	}
	common := term.CommonFactorNodes(expr.Sum(cloneAll(exps)...))
	if len(common) == 0 {
		return nil
	}
	divisor := expr.Product(cloneAll(common)...)
	rests := make([]expr.Node, len(exps))
	for i, e := range exps {
		q, err := polynom.DivideBySimpleFactor(e, divisor)
		if err != nil {
			return nil
		}
		rests[i] = q
	}
	lowest, ok := minPositiveInt(rests)
	if !ok {
		return nil
	}
	return expr.Product(append([]expr.Node{expr.Num(lowest)}, cloneAll(common)...)...)
}

func minPositiveInt(nodes []expr.Node) (int64, bool) {
	var lowest int64
	for i, n := range nodes {
		v, ok := n.(*expr.Number)
		if !ok {
			return 0, false
		}
		k, ok := expr.PositiveInt(v)
		if !ok {
			return 0, false
		}
		if i == 0 || k < lowest {
			lowest = k
		}
	}
	return lowest, len(nodes) > 0
}

func cloneAll(nodes []expr.Node) []expr.Node {
	out := make([]expr.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// splitIntegerExponents writes each exponent e of a base with a minimum m
// as m + (e - m), the difference simplified: x^3 becomes x^(2 + 1).
func (p *Pipeline) splitIntegerExponents(n expr.Node, groups []baseGroup, mins []expr.Node) *step.Step {
	before := expr.NewTree(n.Clone())
	after := expr.NewTree(n.Clone())
	changed := false
	for gi, g := range groups {
		lowest := mins[gi]
		if lowest == nil {
			continue
		}
		for _, path := range g.paths {
			pw := after.MustAt(path).Node().(*expr.BinaryOp)
			exp := expon.AsExponent(lowest.Clone())
			if !expr.EqualUnparen(pw.Right, lowest) {
				diff := expr.Bin(expr.Sub, expr.Unparen(pw.Right).Clone(), lowest.Clone())
				if rest := simplify.Result(p.simplifier, diff); !expr.IsNumber(rest, 0) {
					exp = expr.Paren(term.TermsToNode([]expr.Node{lowest.Clone(), rest}))
				}
			}
			if !expr.Equal(pw.Right, exp) {
				pw.Right = exp
				changed = true
			}
			pw.SetTag(gi + 1)
			before.MustAt(path).Node().SetTag(gi + 1)
		}
	}
	if !changed {
		return step.NoChange(n)
	}
	return step.New(step.SplitIntegerExponents, before.Root(), after.Root())
}

// removeExponentByOne drops exponent factors equal to 1 anywhere in n, and
// the power itself when nothing else is left: x^1 becomes x and x^(1*m)
// becomes x^m.
func removeExponentByOne(n expr.Node) *step.Step {
	before := expr.NewTree(n.Clone())
	after := expr.NewTree(n.Clone())
	var changed []expr.Path
	dropUnitExponents(after.Top(), &changed)
	if len(changed) == 0 {
		return step.NoChange(n)
	}
	for _, path := range changed {
		before.MustAt(path).Node().SetTag(1)
	}
	return step.New(step.RemoveExponentByOne, before.Root(), after.Root())
}

func dropUnitExponents(loc expr.Location, changed *[]expr.Path) {
	for i := range loc.Node().Children() {
		dropUnitExponents(loc.Child(i), changed)
	}
	pw, ok := loc.Node().(*expr.BinaryOp)
	if !ok || pw.Op != expr.Pow {
		return
	}
	facs := term.Factors(expr.NewTree(expr.Unparen(pw.Right)).Top())
	var rest []expr.Node
	for _, f := range facs {
		if !expr.IsNumber(f.Node(), 1) {
			rest = append(rest, f.Node())
		}
	}
	if len(rest) == len(facs) {
		return
	}
	var out expr.Node
	if len(rest) == 0 {
		out = pw.Left
	} else {
		out = expr.Bin(expr.Pow, pw.Left, expon.AsExponent(expr.Product(rest...)))
	}
	out.SetTag(1)
	loc.Replace(out)
	*changed = append(*changed, loc.Path())
}
