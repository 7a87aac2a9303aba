// Package step records rewrites: a Step holds a frozen before and after
// snapshot, the kind of change and the ordered substeps that produced it.
package step

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/florisdf/mathsteps/expr"
)

// ChangeType names the kind of rewrite a step performed.
type ChangeType string

const (
	NoChangeType ChangeType = "NO_CHANGE"

	IsolateCommonFactor ChangeType = "ISOLATE_COMMON_FACTOR"

	EqualizeTermFactors ChangeType = "EQUALIZE_TERM_FACTORS"
	FindOpFacs          ChangeType = "FIND_OP_FACS"
	NegateOpFacs        ChangeType = "NEGATE_OP_FACS"
	MinusOutsideParens  ChangeType = "MINUS_OUTSIDE_PARENS"

	FactorCoeffsIntoPrimes ChangeType = "FACTOR_COEFFS_INTO_PRIMES"

	SplitExponents     ChangeType = "SPLIT_EXPONENTS"
	SimplifyExponents  ChangeType = "SIMPLIFY_EXPONENTS"
	CollapseExponents  ChangeType = "COLLAPSE_EXPONENTS"
	SplitExponentTerms ChangeType = "SPLIT_EXPONENT_TERMS"

	EqualFactorsOutsideParens ChangeType = "EQUAL_FACTORS_OUTSIDE_PARENS"

	ExponFactorsOutsideParens ChangeType = "EXPON_FACTORS_OUTSIDE_PARENS"
	AddExponentOfOne          ChangeType = "ADD_EXPONENT_OF_ONE"
	SplitIntegerExponents     ChangeType = "SPLIT_INTEGER_EXPONENTS"
	RemoveExponentByOne       ChangeType = "REMOVE_EXPONENT_BY_ONE"
	MergeCommonFactors        ChangeType = "MERGE_COMMON_FACTORS"

	SimplifyArithmetic ChangeType = "SIMPLIFY_ARITHMETIC"
)

// Step is a recorded rewrite. Before and After are private snapshots:
// nothing else holds a reference to them, so they never change after the
// step is built.
type Step struct {
	Change   ChangeType
	Before   expr.Node
	After    expr.Node
	Substeps []*Step
}

// NoChange is the result of a rewrite that did nothing. It is not an
// error; HasChanged reports false for it.
func NoChange(n expr.Node) *Step {
	return &Step{Change: NoChangeType, Before: n.Clone(), After: n.Clone()}
}

// New records a rewrite from before to after. Both snapshots are cloned.
func New(kind ChangeType, before, after expr.Node, substeps ...*Step) *Step {
	return &Step{
		Change:   kind,
		Before:   before.Clone(),
		After:    after.Clone(),
		Substeps: substeps,
	}
}

// IfChanged is New unless before and after are structurally equal with
// tags cleared, in which case it returns the no-change sentinel.
func IfChanged(kind ChangeType, before, after expr.Node, substeps ...*Step) *Step {
	if expr.Equal(before, after) {
		return NoChange(before)
	}
	return New(kind, before, after, substeps...)
}

// HasChanged reports whether s is a real rewrite.
func (s *Step) HasChanged() bool { return s != nil && s.Change != NoChangeType }

// ResetTags returns an untagged copy of n, the input for the next rewrite.
func ResetTags(n expr.Node) expr.Node { return expr.ResetTags(n.Clone()) }

// Chain composes steps the way every multi-stage rewrite does: changed
// steps are collected in order and the returned node is the last changed
// After with tags reset, or a copy of n when nothing changed.
type Chain struct {
	Current expr.Node
	Steps   []*Step
}

// NewChain starts a chain at n.
func NewChain(n expr.Node) *Chain { return &Chain{Current: ResetTags(n)} }

// Apply runs rewrite on the current node and records the result if it
// changed anything. It reports whether it did.
func (c *Chain) Apply(rewrite func(expr.Node) *Step) bool {
	s := rewrite(c.Current)
	if !s.HasChanged() {
		return false
	}
	c.Steps = append(c.Steps, s)
	c.Current = ResetTags(s.After)
	return true
}

// Record appends an already computed step and advances the chain.
func (c *Chain) Record(s *Step) {
	if !s.HasChanged() {
		return
	}
	c.Steps = append(c.Steps, s)
	c.Current = ResetTags(s.After)
}

// Result wraps the collected steps into one step of the given kind whose
// before is start, or returns the no-change sentinel for start.
func (c *Chain) Result(kind ChangeType, start expr.Node) *Step {
	if len(c.Steps) == 0 {
		return NoChange(start)
	}
	return New(kind, start, c.Steps[len(c.Steps)-1].After, c.Steps...)
}

// Consistent reports whether the substeps of s, recursively, chain from
// s.Before to s.After once tags are ignored.
func (s *Step) Consistent() bool {
	if len(s.Substeps) == 0 {
		return true
	}
	first, last := s.Substeps[0], s.Substeps[len(s.Substeps)-1]
	if !expr.Equal(first.Before, s.Before) || !expr.Equal(last.After, s.After) {
		return false
	}
	for i, sub := range s.Substeps {
		if i > 0 && !expr.Equal(s.Substeps[i-1].After, sub.Before) {
			return false
		}
		if !sub.Consistent() {
			return false
		}
	}
	return true
}

// Flatten lists the leaf steps of s in order.
func (s *Step) Flatten() []*Step {
	if len(s.Substeps) == 0 {
		return []*Step{s}
	}
	var out []*Step
	for _, sub := range s.Substeps {
		out = append(out, sub.Flatten()...)
	}
	return out
}

// Embed re-expresses steps computed on the sub-expression at path inside
// outer as steps on outer itself. outer is not modified.
func Embed(outer expr.Node, path expr.Path, steps []*Step) []*Step {
	out := make([]*Step, len(steps))
	for i, s := range steps {
		out[i] = &Step{
			Change:   s.Change,
			Before:   replaceAt(outer, path, s.Before),
			After:    replaceAt(outer, path, s.After),
			Substeps: Embed(outer, path, s.Substeps),
		}
	}
	return out
}

func replaceAt(outer expr.Node, path expr.Path, n expr.Node) expr.Node {
	tree := expr.NewTree(outer.Clone())
	tree.MustAt(path).Replace(n.Clone())
	return tree.Root()
}

// ============================================================
// Rendering
// ============================================================

// Rendered is the printable form of a step used by the JSON and YAML
// encoders.
type Rendered struct {
	Change   ChangeType  `json:"change" yaml:"change"`
	Before   string      `json:"before" yaml:"before"`
	After    string      `json:"after" yaml:"after"`
	Substeps []*Rendered `json:"substeps,omitempty" yaml:"substeps,omitempty"`
}

// Render prints the snapshots of s and its substeps.
func (s *Step) Render() *Rendered {
	r := &Rendered{Change: s.Change, Before: expr.String(s.Before), After: expr.String(s.After)}
	for _, sub := range s.Substeps {
		r.Substeps = append(r.Substeps, sub.Render())
	}
	return r
}

func (s *Step) MarshalJSON() ([]byte, error) { return json.Marshal(s.Render()) }

func (s *Step) MarshalYAML() (interface{}, error) { return s.Render(), nil }

// String prints the step as "before -> after".
func (s *Step) String() string {
	return expr.String(s.Before) + " -> " + expr.String(s.After)
}

// ToYAML renders s as a YAML document.
func ToYAML(s *Step) (string, error) {
	b, err := yaml.Marshal(s)
	return string(b), err
}
