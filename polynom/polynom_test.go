package polynom_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florisdf/mathsteps/expr"
	"github.com/florisdf/mathsteps/polynom"
	"github.com/florisdf/mathsteps/simplify"
	"github.com/florisdf/mathsteps/step"
)

// ============================================================
// Relations
// ============================================================

func TestAreOpposite(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"3", "-3", true},
		{"3", "3", false},
		{"3", "x", false},
		{"x", "-x", true},
		{"x - 1", "1 - x", true},
		{"x - 1", "-(-(1 - x))", true},
		{"2*(x - 1)", "2 - 2*x", true},
	}
	for _, c := range cases {
		got := polynom.AreOpposite(expr.MustParse(c.a), expr.MustParse(c.b))
		assert.Equal(t, c.want, got, "%s and %s", c.a, c.b)
	}
}

func TestAreEqual(t *testing.T) {
	assert.True(t, polynom.AreEqual(expr.MustParse("x - 1"), expr.MustParse("-(1 - x)")))
	assert.True(t, polynom.AreEqual(expr.MustParse("(x + 1)^2"), expr.MustParse("x^2 + 2*x + 1")))
	assert.False(t, polynom.AreEqual(expr.MustParse("x - 1"), expr.MustParse("1 - x")))
	assert.False(t, polynom.AreEqual(expr.MustParse("x/0"), expr.MustParse("x")))
}

func TestAnalyzer_ZeroValueUsesDefault(t *testing.T) {
	var a polynom.Analyzer
	assert.True(t, a.AreEqual(expr.MustParse("2*3"), expr.MustParse("6")))
}

// ============================================================
// Negation
// ============================================================

func TestNegate(t *testing.T) {
	cases := []struct {
		in   expr.Node
		want string
	}{
		{expr.MustParse("3"), "-3"},
		{expr.MustParse("-x"), "x"},
		{expr.MustParse("x"), "-x"},
		{expr.Num(-4), "4"},
		{expr.MustParse("2*x"), "-2*x"},
		{expr.MustParse("-2*x"), "2*x"},
		{expr.MustParse("(1 - x)"), "(-1 + x)"},
		{expr.MustParse("x - y + 2"), "-x + y - 2"},
		{expr.MustParse("x^2"), "-x^2"},
	}
	for _, c := range cases {
		in := c.in.String()
		got := polynom.Negate(c.in)
		assert.Equal(t, c.want, got.String(), in)
		assert.Equal(t, in, c.in.String(), "input must not change")
		assert.True(t, polynom.AreOpposite(c.in, got), in)
	}
}

// ============================================================
// Division
// ============================================================

func TestDivideBySimpleFactor(t *testing.T) {
	cases := []struct {
		node, divisor, want string
	}{
		{"6", "6", "1"},
		{"x*4", "x", "4"},
		{"x*4", "4", "x"},
		{"x*y + x", "x", "y + 1"},
		{"x*y - x", "x", "y - 1"},
		{"x*x*y", "x*x", "y"},
		{"(x + 1)*x", "x + 1", "x"},
		{"(x + 1)*x + 3*(x + 1)", "x + 1", "x + 3"},
		{"3*y^2*y - 3*y^2*2", "3*y^2", "y - 2"},
	}
	for _, c := range cases {
		got, err := polynom.DivideBySimpleFactor(expr.MustParse(c.node), expr.MustParse(c.divisor))
		require.NoError(t, err, "%s / %s", c.node, c.divisor)
		assert.Equal(t, c.want, got.String(), "%s / %s", c.node, c.divisor)
	}
}

func TestDivideBySimpleFactor_NegativeFirstTerm(t *testing.T) {
	n := expr.Bin(expr.Add, expr.Neg(expr.MustParse("x*y")), expr.Sym("x"))
	got, err := polynom.DivideBySimpleFactor(n, expr.Sym("x"))
	require.NoError(t, err)
	assert.Equal(t, "-y + 1", got.String())
}

func TestDivideBySimpleFactor_NotDivisible(t *testing.T) {
	cases := []struct {
		node, divisor string
	}{
		{"x*4", "2"},
		{"x*y", "x*x"},
		{"x^2 + x", "x"},
		{"2*(x + 1) - 3*x*(1 + x)", "x + 1"},
	}
	for _, c := range cases {
		_, err := polynom.DivideBySimpleFactor(expr.MustParse(c.node), expr.MustParse(c.divisor))
		require.Error(t, err, "%s / %s", c.node, c.divisor)
		assert.True(t, errors.Is(err, polynom.ErrNotDivisible))
		var nd *polynom.NotDivisibleError
		require.True(t, errors.As(err, &nd))
		assert.Contains(t, nd.Error(), "is not divisible by")
	}
}

func TestIsolate(t *testing.T) {
	cases := []struct {
		node, factor, want string
	}{
		{"x*y + x", "x", "x*(y + 1)"},
		{"(x + 1)*x + 3*(x + 1)", "x + 1", "(x + 1)*(x + 3)"},
		{"3*y^2*x*x*y - 3*y^2*x*2", "3*y^2*x", "3*y^2*x*(x*y - 2)"},
	}
	for _, c := range cases {
		n := expr.MustParse(c.node)
		got, err := polynom.Isolate(n, expr.MustParse(c.factor))
		require.NoError(t, err, c.node)
		assert.Equal(t, c.want, got.String(), c.node)
		assert.True(t, polynom.AreEqual(n, got), c.node)
	}

	_, err := polynom.Isolate(expr.MustParse("x + y"), expr.Sym("x"))
	assert.True(t, errors.Is(err, polynom.ErrNotDivisible))
}

// ============================================================
// Factor groups
// ============================================================

type ref struct {
	term, factor int
	value        string
}

func refs(rs []polynom.FactorRef) []ref {
	out := make([]ref, len(rs))
	for i, r := range rs {
		out[i] = ref{r.Term, r.Factor, r.Value.String()}
	}
	return out
}

func TestOpEqFacs_OppositePair(t *testing.T) {
	tree := expr.NewTree(expr.MustParse("3*(x - 1) + 2*(1 - x)"))
	groups, err := polynom.OpEqFacs(tree)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, []ref{{0, 1, "(x - 1)"}}, refs(g.Equal))
	assert.Equal(t, []ref{{1, 1, "(1 - x)"}}, refs(g.Opposite))
	assert.Equal(t, expr.Path{1, 1}, g.Opposite[0].Loc.Path())
	assert.Equal(t, "(x - 1)", g.Representative().String())
	assert.True(t, polynom.HasOpposites(groups))
}

func TestOpEqFacs_EqualAndOppositeGroups(t *testing.T) {
	tree := expr.NewTree(expr.MustParse("a*(x - 1) + (1 - x)*b + (x - 1)*a"))
	groups, err := polynom.OpEqFacs(tree)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, []ref{{0, 0, "a"}, {2, 1, "a"}}, refs(groups[0].Equal))
	assert.Empty(t, groups[0].Opposite)

	assert.Equal(t, []ref{{0, 1, "(x - 1)"}, {2, 0, "(x - 1)"}}, refs(groups[1].Equal))
	assert.Equal(t, []ref{{1, 0, "(1 - x)"}}, refs(groups[1].Opposite))
}

func TestOpEqFacs_LargerClassIsEqual(t *testing.T) {
	tree := expr.NewTree(expr.MustParse("(1 - x)*a + (x - 1)*b + (x - 1)*c"))
	groups, err := polynom.OpEqFacs(tree)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []ref{{1, 0, "(x - 1)"}, {2, 0, "(x - 1)"}}, refs(groups[0].Equal))
	assert.Equal(t, []ref{{0, 0, "(1 - x)"}}, refs(groups[0].Opposite))
}

func TestOpEqFacs_NoGroups(t *testing.T) {
	groups, err := polynom.OpEqFacs(expr.NewTree(expr.MustParse("2*x + 3*y")))
	require.NoError(t, err)
	assert.Empty(t, groups)
	assert.False(t, polynom.HasOpposites(groups))
}

func TestOpEqFacs_AmbiguousOpposites(t *testing.T) {
	table := map[string]string{"-(y)": "x", "-(z)": "x"}
	s := simplify.Func(func(n expr.Node) []*step.Step {
		if out, ok := table[n.String()]; ok {
			return []*step.Step{step.New(step.SimplifyArithmetic, n, expr.MustParse(out))}
		}
		return nil
	})

	_, err := polynom.NewAnalyzer(s).OpEqFacs(expr.NewTree(expr.MustParse("x*y + z")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, polynom.ErrAmbiguousOpposites))
	var ce *polynom.ConsistencyError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "x", ce.Class.String())
	assert.Len(t, ce.Opposites, 2)
}
