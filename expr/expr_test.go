package expr_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florisdf/mathsteps/expr"
)

// ============================================================
// Parser and printer
// ============================================================

func TestParse_RoundTrip(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"x", "x"},
		{"2*x + 4*x^2", "2*x + 4*x^2"},
		{"x - 2 - b", "x - 2 - b"},
		{"x - (2 - b)", "x - (2 - b)"},
		{"3*(x - 1) + 2*(1 - x)", "3*(x - 1) + 2*(1 - x)"},
		{"-x^2", "-x^2"},
		{"(-x)^2", "(-x)^2"},
		{"x^(m + 1)", "x^(m + 1)"},
		{"((x^2)^3)^4", "((x^2)^3)^4"},
		{"2x", "2 x"},
		{"3y^3 - 6y^2", "3 y^3 - 6 y^2"},
		{"x^2 / x", "x^2/x"},
		{"a / (b * c)", "a/(b*c)"},
		{"a * (b / c)", "a*(b/c)"},
		{"x^-1", "x^-1"},
		{"1.5 * x", "3/2*x"},
		{"-(-(1 - x))", "-(-(1 - x))"},
	}
	for _, c := range cases {
		n, err := expr.Parse(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, n.String(), c.in)
	}
}

func TestParse_Precedence(t *testing.T) {
	// Unary minus binds tighter than "*" but looser than "^".
	n := expr.MustParse("-x^2 * y")
	mul, ok := n.(*expr.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, expr.Mul, mul.Op)
	neg, ok := mul.Left.(*expr.UnaryMinus)
	require.True(t, ok)
	assert.True(t, expr.IsOp(neg.Operand, expr.Pow))

	pow := expr.MustParse("x^2^3").(*expr.BinaryOp)
	assert.True(t, expr.IsOp(pow.Right, expr.Pow), "power must be right-associative")
}

func TestParse_ImplicitMultiplication(t *testing.T) {
	n := expr.MustParse("2x").(*expr.BinaryOp)
	assert.True(t, n.Implicit)
	assert.True(t, expr.Equal(n, expr.MustParse("2*x")), "implicit flag must not affect equality")
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		in  string
		pos int
	}{
		{"", 0},
		{"x +", 3},
		{"(x + 1", 6},
		{"x $ y", 2},
		{"x)", 1},
	}
	for _, c := range cases {
		_, err := expr.Parse(c.in)
		require.Error(t, err, c.in)
		assert.True(t, errors.Is(err, expr.ErrSyntax), c.in)
		var se *expr.SyntaxError
		require.True(t, errors.As(err, &se), c.in)
		assert.Equal(t, c.pos, se.Pos, c.in)
	}
}

func TestSyntaxError_Snippet(t *testing.T) {
	_, err := expr.Parse("x + * y")
	var se *expr.SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "x + * y\n    ^", se.Snippet())
}

func TestPrint_InsertsParentheses(t *testing.T) {
	n := expr.Bin(expr.Mul, expr.Sym("a"), expr.Bin(expr.Add, expr.Sym("b"), expr.Num(1)))
	if n.String() != "a*(b + 1)" {
		t.Errorf("want a*(b + 1), got %s", n.String())
	}
	p := expr.Bin(expr.Pow, expr.Neg(expr.Sym("x")), expr.Num(2))
	if p.String() != "(-x)^2" {
		t.Errorf("want (-x)^2, got %s", p.String())
	}
	q := expr.Bin(expr.Pow, expr.Sym("x"), expr.NumRat(expr.MustParse("0.5").(*expr.Number).Value))
	if q.String() != "x^(1/2)" {
		t.Errorf("want x^(1/2), got %s", q.String())
	}
}

// ============================================================
// Equality
// ============================================================

func TestEqual(t *testing.T) {
	a := expr.MustParse("x + 2*y")
	b := expr.MustParse("x + 2*y")
	assert.True(t, expr.Equal(a, b))
	assert.False(t, expr.Equal(a, expr.MustParse("2*y + x")))
	assert.False(t, expr.Equal(expr.MustParse("(x)"), expr.MustParse("x")))
	assert.True(t, expr.EqualUnparen(expr.MustParse("((x + 1))"), expr.MustParse("x + 1")))

	b.SetTag(3)
	assert.True(t, expr.Equal(a, b), "tags must not affect equality")
}

func TestIndex(t *testing.T) {
	list := []expr.Node{expr.Sym("x"), expr.Num(2), expr.Sym("x")}
	assert.Equal(t, 0, expr.Index(list, expr.Sym("x")))
	assert.Equal(t, 1, expr.Index(list, expr.Num(2)))
	assert.Equal(t, -1, expr.Index(list, expr.Sym("y")))
}

// ============================================================
// Trees and locations
// ============================================================

func TestTree_ReplaceThroughLocation(t *testing.T) {
	tree := expr.NewTree(expr.MustParse("x + (x + 2 - 3)"))
	loc, ok := tree.At(expr.Path{1, 0})
	require.True(t, ok)
	assert.Equal(t, "x + 2 - 3", loc.Node().String())

	loc.Replace(expr.MustParse("x - 1"))
	assert.Equal(t, "x + (x - 1)", tree.Root().String())

	_, ok = tree.At(expr.Path{0, 0})
	assert.False(t, ok, "symbols have no children")
}

func TestTree_ReplaceRoot(t *testing.T) {
	tree := expr.NewTree(expr.Sym("x"))
	tree.Top().Replace(expr.Num(4))
	assert.Equal(t, "4", tree.Root().String())
	assert.True(t, tree.Top().IsRoot())
	assert.Equal(t, -1, tree.Top().Index())
}

func TestTree_CloneIsIndependent(t *testing.T) {
	tree := expr.NewTree(expr.MustParse("a*b"))
	clone := tree.Clone()
	clone.MustAt(expr.Path{0}).Replace(expr.Sym("c"))
	assert.Equal(t, "a*b", tree.Root().String())
	assert.Equal(t, "c*b", clone.Root().String())
}

func TestLocation_ParentAndPath(t *testing.T) {
	tree := expr.NewTree(expr.MustParse("a*(b + c)"))
	loc := tree.MustAt(expr.Path{1, 0, 1})
	assert.Equal(t, "c", loc.Node().String())
	assert.Equal(t, "/1/0/1", loc.Path().String())

	parent, ok := loc.Parent()
	require.True(t, ok)
	assert.Equal(t, "b + c", parent.Node().String())
	assert.True(t, loc.Path().HasPrefix(parent.Path()))
}

func TestResetTags(t *testing.T) {
	n := expr.MustParse("x*y")
	n.SetTag(1)
	n.Children()[0].SetTag(2)
	expr.ResetTags(n)
	expr.Walk(n, func(c expr.Node) bool {
		assert.Zero(t, c.Tag())
		return true
	})
}

// ============================================================
// JSON
// ============================================================

func TestJSON_RoundTrip(t *testing.T) {
	n := expr.MustParse("3*(x - 1)^2 + -y/2")
	n.SetTag(5)
	s, err := expr.ToJSON(n)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	back, err := expr.FromJSON(m)
	require.NoError(t, err)
	assert.True(t, expr.Equal(n, back))
	assert.Equal(t, 5, back.Tag())
	if diff := cmp.Diff(expr.ToMap(n), expr.ToMap(back)); diff != "" {
		t.Errorf("object form mismatch (-want +got):\n%s", diff)
	}
}

func TestFromJSON_Errors(t *testing.T) {
	bad := []map[string]interface{}{
		nil,
		{"type": ""},
		{"type": "num", "value": "abc"},
		{"type": "bin", "op": "%", "left": map[string]interface{}{"type": "sym", "name": "x"}},
		{"type": "neg"},
		{"type": "matrix"},
	}
	for _, m := range bad {
		_, err := expr.FromJSON(m)
		assert.Error(t, err, "%v", m)
	}
}
