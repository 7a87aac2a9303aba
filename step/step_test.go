package step_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florisdf/mathsteps/expr"
	"github.com/florisdf/mathsteps/step"
)

func TestNoChange(t *testing.T) {
	s := step.NoChange(expr.MustParse("x + 1"))
	assert.False(t, s.HasChanged())
	assert.Equal(t, "x + 1", s.After.String())

	var nilStep *step.Step
	assert.False(t, nilStep.HasChanged())
}

func TestIfChanged(t *testing.T) {
	before := expr.MustParse("2*x")
	after := expr.MustParse("2*x")
	after.SetTag(1)
	assert.False(t, step.IfChanged(step.SimplifyArithmetic, before, after).HasChanged(),
		"tags alone are not a change")

	s := step.IfChanged(step.SimplifyArithmetic, before, expr.MustParse("x*2"))
	assert.True(t, s.HasChanged())
	assert.Equal(t, step.SimplifyArithmetic, s.Change)
}

func TestNew_SnapshotsAreFrozen(t *testing.T) {
	tree := expr.NewTree(expr.MustParse("a + b"))
	s := step.New(step.SimplifyArithmetic, tree.Root(), expr.MustParse("b + a"))
	tree.MustAt(expr.Path{0}).Replace(expr.Sym("z"))
	assert.Equal(t, "a + b", s.Before.String())
}

func TestResetTags_DoesNotTouchInput(t *testing.T) {
	n := expr.MustParse("x")
	n.SetTag(4)
	out := step.ResetTags(n)
	assert.Equal(t, 4, n.Tag())
	assert.Zero(t, out.Tag())
}

func TestChain(t *testing.T) {
	start := expr.MustParse("x + 2 - 3")
	c := step.NewChain(start)

	changed := c.Apply(func(n expr.Node) *step.Step { return step.NoChange(n) })
	assert.False(t, changed)

	changed = c.Apply(func(n expr.Node) *step.Step {
		after := expr.MustParse("x - 1")
		after.SetTag(2)
		return step.New(step.SimplifyArithmetic, n, after)
	})
	assert.True(t, changed)
	assert.Zero(t, c.Current.Tag(), "chain input is untagged")

	res := c.Result(step.IsolateCommonFactor, start)
	require.True(t, res.HasChanged())
	require.Len(t, res.Substeps, 1)
	assert.Equal(t, "x - 1", res.After.String())
	assert.True(t, res.Consistent())

	empty := step.NewChain(start)
	assert.False(t, empty.Result(step.IsolateCommonFactor, start).HasChanged())
}

func TestConsistent(t *testing.T) {
	a, b, c := expr.MustParse("a"), expr.MustParse("b"), expr.MustParse("c")
	good := step.New(step.IsolateCommonFactor, a, c,
		step.New(step.SimplifyArithmetic, a, b),
		step.New(step.SimplifyArithmetic, b, c))
	assert.True(t, good.Consistent())

	gap := step.New(step.IsolateCommonFactor, a, c,
		step.New(step.SimplifyArithmetic, a, b),
		step.New(step.SimplifyArithmetic, a, c))
	assert.False(t, gap.Consistent())

	wrongEnd := step.New(step.IsolateCommonFactor, a, c,
		step.New(step.SimplifyArithmetic, a, b))
	assert.False(t, wrongEnd.Consistent())
}

func TestFlatten(t *testing.T) {
	a, b, c := expr.MustParse("a"), expr.MustParse("b"), expr.MustParse("c")
	inner := step.New(step.EqualizeTermFactors, a, b,
		step.New(step.FindOpFacs, a, a),
		step.New(step.NegateOpFacs, a, b))
	outer := step.New(step.IsolateCommonFactor, a, c, inner, step.New(step.SimplifyArithmetic, b, c))
	leaves := outer.Flatten()
	require.Len(t, leaves, 3)
	assert.Equal(t, step.FindOpFacs, leaves[0].Change)
	assert.Equal(t, step.SimplifyArithmetic, leaves[2].Change)
}

func TestEmbed(t *testing.T) {
	outer := expr.MustParse("x + (x + 2 - 3)")
	inner := []*step.Step{
		step.New(step.SimplifyArithmetic, expr.MustParse("x + 2 - 3"), expr.MustParse("x - 1"),
			step.New(step.SimplifyArithmetic, expr.MustParse("x + 2 - 3"), expr.MustParse("x - 1"))),
	}
	out := step.Embed(outer, expr.Path{1, 0}, inner)
	require.Len(t, out, 1)
	assert.Equal(t, "x + (x + 2 - 3)", out[0].Before.String())
	assert.Equal(t, "x + (x - 1)", out[0].After.String())
	require.Len(t, out[0].Substeps, 1)
	assert.Equal(t, "x + (x + 2 - 3)", out[0].Substeps[0].Before.String())
	assert.Equal(t, "x + (x - 1)", out[0].Substeps[0].After.String())
	assert.Equal(t, "x + (x + 2 - 3)", outer.String(), "outer must not change")
}

func TestMarshal(t *testing.T) {
	s := step.New(step.IsolateCommonFactor, expr.MustParse("2*x + 2"), expr.MustParse("2*(x + 1)"),
		step.New(step.EqualFactorsOutsideParens, expr.MustParse("2*x + 2"), expr.MustParse("2*(x + 1)")))

	b, err := json.Marshal(s)
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "ISOLATE_COMMON_FACTOR", got["change"])
	assert.Equal(t, "2*x + 2", got["before"])
	assert.Len(t, got["substeps"], 1)

	y, err := step.ToYAML(s)
	require.NoError(t, err)
	assert.Contains(t, y, "change: ISOLATE_COMMON_FACTOR")
	assert.Contains(t, y, "after: 2*(x + 1)")
}
