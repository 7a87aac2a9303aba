// Package simplify defines the generic simplifier the factoring code
// consults and provides one implementation backed by package canon.
package simplify

import (
	"github.com/florisdf/mathsteps/canon"
	"github.com/florisdf/mathsteps/expr"
	"github.com/florisdf/mathsteps/step"
)

// Simplifier rewrites an expression into simplified form. The returned
// steps chain from n to the simplified tree; an empty result means n is
// already simplified. Simplify must not modify n.
type Simplifier interface {
	Simplify(n expr.Node) []*step.Step
}

// Func adapts a plain function to Simplifier.
type Func func(n expr.Node) []*step.Step

func (f Func) Simplify(n expr.Node) []*step.Step { return f(n) }

// Result returns the tree s simplifies n to.
func Result(s Simplifier, n expr.Node) expr.Node {
	steps := s.Simplify(n)
	if len(steps) == 0 {
		return n.Clone()
	}
	return steps[len(steps)-1].After.Clone()
}

// Canonical simplifies by expanding into canonical polynomial form. Inputs
// canon cannot evaluate, such as divisions by zero, are left unchanged.
type Canonical struct {
	// MaxExpansion bounds the integer powers of sums that are multiplied
	// out. Zero means canon.DefaultMaxExpansion.
	MaxExpansion int
}

// Default is the simplifier used when none is configured.
var Default Simplifier = Canonical{}

func (c Canonical) Simplify(n expr.Node) []*step.Step {
	out, err := canon.Canonicalizer{MaxExpansion: c.MaxExpansion}.Canonicalize(n)
	if err != nil {
		return nil
	}
	s := step.IfChanged(step.SimplifyArithmetic, n, out)
	if !s.HasChanged() {
		return nil
	}
	return []*step.Step{s}
}

// Step wraps the simplification of n into one step of the given kind, or
// the no-change sentinel.
func Step(s Simplifier, kind step.ChangeType, n expr.Node) *step.Step {
	steps := s.Simplify(n)
	if len(steps) == 0 {
		return step.NoChange(n)
	}
	return step.New(kind, n, steps[len(steps)-1].After, steps...)
}
