package isolate_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/florisdf/mathsteps/expr"
	"github.com/florisdf/mathsteps/isolate"
	"github.com/florisdf/mathsteps/polynom"
	"github.com/florisdf/mathsteps/simplify"
	"github.com/florisdf/mathsteps/step"
)

func kinds(steps []*step.Step) []step.ChangeType {
	out := make([]step.ChangeType, len(steps))
	for i, s := range steps {
		out[i] = s.Change
	}
	return out
}

func afters(steps []*step.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.After.String()
	}
	return out
}

// ============================================================
// Whole pipeline
// ============================================================

func TestIsolateCommonFactors(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2*x + 4*x^2", "2*x*(1 + 2*x)"},
		{"x^3 * y + x^2 * y^2", "x^2*y*(x + y)"},
		{"3*(x-1) + 2*(1-x)", "(x - 1)*(3 - 2)"},
		{"6*x*y - 9*x^2", "3*x*(2*y - 3*x)"},
		{"12*a + 18*b - 30*c", "2*3*(2*a + 3*b - 5*c)"},
		{"(x + 1)*x + 3*(x + 1)", "(x + 1)*(x + 3)"},
		{"x^m + x^(2*m)", "x^m*(1 + x^m)"},
		{"3*x + 3*x", "3*x*(1 + 1)"},
		{"x - x", "x*(1 - 1)"},
		{"2 + 2", "2*(1 + 1)"},
	}
	for _, c := range cases {
		s := isolate.IsolateCommonFactors(expr.MustParse(c.in))
		require.True(t, s.HasChanged(), c.in)
		assert.Equal(t, step.IsolateCommonFactor, s.Change, c.in)
		assert.Equal(t, c.want, s.After.String(), c.in)
	}
}

func TestIsolateCommonFactors_Phases(t *testing.T) {
	s := isolate.IsolateCommonFactors(expr.MustParse("2*x + 4*x^2"))
	require.True(t, s.HasChanged())
	assert.Equal(t, []step.ChangeType{
		step.FactorCoeffsIntoPrimes,
		step.EqualFactorsOutsideParens,
		step.ExponFactorsOutsideParens,
	}, kinds(s.Substeps))
	assert.Equal(t, []string{
		"2*x + 2*2*x^2",
		"2*(x + 2*x^2)",
		"2*x*(1 + 2*x)",
	}, afters(s.Substeps))

	pulled := s.Substeps[2]
	assert.Equal(t, []step.ChangeType{
		step.AddExponentOfOne,
		step.SplitIntegerExponents,
		step.SplitExponentTerms,
		step.EqualFactorsOutsideParens,
		step.RemoveExponentByOne,
		step.MergeCommonFactors,
	}, kinds(pulled.Substeps))
	assert.Equal(t, []string{
		"2*(x^1 + 2*x^2)",
		"2*(x^1 + 2*x^(1 + 1))",
		"2*(x^1 + 2*x^1*x^1)",
		"2*(x^1*(1 + 2*x^1))",
		"2*(x*(1 + 2*x))",
		"2*x*(1 + 2*x)",
	}, afters(pulled.Substeps))
}

func TestIsolateCommonFactors_DifferentExponents(t *testing.T) {
	s := isolate.IsolateCommonFactors(expr.MustParse("x^3 * y + x^2 * y^2"))
	require.True(t, s.HasChanged())
	require.Len(t, s.Substeps, 1)
	assert.Equal(t, step.ExponFactorsOutsideParens, s.Substeps[0].Change)
	assert.Equal(t, []string{
		"x^3*y^1 + x^2*y^2",
		"x^(2 + 1)*y^1 + x^2*y^(1 + 1)",
		"x^2*x^1*y^1 + x^2*y^1*y^1",
		"x^2*y^1*(x^1 + y^1)",
		"x^2*y*(x + y)",
	}, afters(s.Substeps[0].Substeps))
}

func TestIsolateCommonFactors_NoChange(t *testing.T) {
	for _, in := range []string{"x + y", "2*x", "12", "x", "2*x + 3*y^2", "1 + 1", "1 - 1 + 1"} {
		n := expr.MustParse(in)
		s := isolate.IsolateCommonFactors(n)
		assert.False(t, s.HasChanged(), in)
		assert.Equal(t, in, s.Before.String())
		assert.True(t, expr.Equal(s.Before, s.After), in)
		assert.Equal(t, in, n.String(), "input must not change")
	}
}

func TestIsolateCommonFactors_WholeTermsPulled(t *testing.T) {
	s := isolate.IsolateCommonFactors(expr.MustParse("3*x + 3*x"))
	require.True(t, s.HasChanged())
	assert.Equal(t, []step.ChangeType{step.EqualFactorsOutsideParens}, kinds(s.Substeps))
}

func TestIsolateCommonFactors_PreparingPhasesAlone(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := isolate.New(isolate.WithLogger(zap.New(core)))
	for _, in := range []string{"12*x", "12*x + 7*y", "(x^2)^3 + y"} {
		n := expr.MustParse(in)
		prime, err := p.PrimeSplit(n)
		require.NoError(t, err)
		expo, err := p.ExponentSplit(n)
		require.NoError(t, err)
		require.True(t, prime.HasChanged() || expo.HasChanged(), in)

		s := p.IsolateCommonFactors(n)
		assert.False(t, s.HasChanged(), in)
		assert.Equal(t, in, s.After.String())
	}
	assert.Len(t, logs.FilterMessage("nothing pulled").All(), 3)
}

func TestIsolateCommonFactors_Properties(t *testing.T) {
	inputs := []string{
		"2*x + 4*x^2",
		"x^3 * y + x^2 * y^2",
		"3*(x - 1) + 2*(1 - x)",
		"6*x*y - 9*x^2",
		"12*a + 18*b - 30*c",
		"(x + 1)*x + 3*(x + 1)",
		"x^m + x^(2*m)",
		"-2*x - 4*y",
		"a*(x - 1) + (1 - x)*b",
		"((x^2)^3)^4*y + x^2*y",
	}
	for _, in := range inputs {
		n := expr.MustParse(in)
		s := isolate.IsolateCommonFactors(n)
		if !s.HasChanged() {
			continue
		}
		assert.True(t, polynom.AreEqual(n, s.After), "%s -> %s", in, s.After)
		assert.True(t, s.Consistent(), in)
		for _, leaf := range s.Flatten() {
			assert.True(t, polynom.AreEqual(leaf.Before, leaf.After), "%s: %s", leaf.Change, leaf)
		}
	}
}

func TestIsolateCommonFactors_Concurrent(t *testing.T) {
	p := isolate.New()
	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.IsolateCommonFactors(expr.MustParse("x^3 * y + x^2 * y^2")).After.String()
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, "x^2*y*(x + y)", r)
	}
}

// ============================================================
// Phases
// ============================================================

func TestEqualize(t *testing.T) {
	s, err := isolate.New().Equalize(expr.MustParse("3*(x-1) + 2*(1-x)"))
	require.NoError(t, err)
	require.True(t, s.HasChanged())
	assert.Equal(t, step.EqualizeTermFactors, s.Change)
	assert.Equal(t, "3*(x - 1) - 2*(x - 1)", s.After.String())
	assert.Equal(t, []step.ChangeType{
		step.FindOpFacs,
		step.NegateOpFacs,
		step.MinusOutsideParens,
		step.EqualizeTermFactors,
	}, kinds(s.Substeps))
	assert.Equal(t, []string{
		"3*(x - 1) + 2*(1 - x)",
		"3*(x - 1) + 2*(-(-1 + x))",
		"3*(x - 1) - 2*(-1 + x)",
		"3*(x - 1) - 2*(x - 1)",
	}, afters(s.Substeps))
	assert.True(t, s.Consistent())

	find := s.Substeps[0].After.(*expr.BinaryOp)
	assert.Equal(t, 1, find.Left.(*expr.BinaryOp).Right.Tag())
	assert.Equal(t, 1, find.Right.(*expr.BinaryOp).Right.Tag())
}

func TestEqualize_FirstTerm(t *testing.T) {
	s, err := isolate.New().Equalize(expr.MustParse("(1 - x)*a + (x - 1)*b + (x - 1)*c"))
	require.NoError(t, err)
	require.True(t, s.HasChanged())
	assert.Equal(t, "-((x - 1)*a) + (x - 1)*b + (x - 1)*c", s.After.String())
	assert.True(t, polynom.AreEqual(s.Before, s.After))
}

func TestEqualize_NothingOpposite(t *testing.T) {
	for _, in := range []string{"2*x + 3*y", "a*(x - 1) + (x - 1)*b"} {
		s, err := isolate.New().Equalize(expr.MustParse(in))
		require.NoError(t, err)
		assert.False(t, s.HasChanged(), in)
	}
}

func TestPrimeSplit(t *testing.T) {
	s, err := isolate.New().PrimeSplit(expr.MustParse("12*x + 18 - 7*y"))
	require.NoError(t, err)
	require.True(t, s.HasChanged())
	assert.Equal(t, step.FactorCoeffsIntoPrimes, s.Change)
	assert.Equal(t, "2*2*3*x + 2*3*3 - 7*y", s.After.String())

	s, err = isolate.New().PrimeSplit(expr.MustParse("2*x + 3*y"))
	require.NoError(t, err)
	assert.False(t, s.HasChanged())
}

func TestExponentSplit(t *testing.T) {
	s, err := isolate.New().ExponentSplit(expr.MustParse("((x^2)^3)^4 + x^(m + 1)"))
	require.NoError(t, err)
	require.True(t, s.HasChanged())
	assert.Equal(t, step.SplitExponents, s.Change)
	assert.Equal(t, []step.ChangeType{
		step.CollapseExponents,
		step.SimplifyExponents,
		step.SplitExponentTerms,
	}, kinds(s.Substeps))
	assert.Equal(t, []string{
		"x^(2*3*4) + x^(m + 1)",
		"x^24 + x^(m + 1)",
		"x^24 + x^m*x^1",
	}, afters(s.Substeps))
	assert.True(t, s.Consistent())
}

func TestPullEqualFactors(t *testing.T) {
	p := isolate.New()
	s, err := p.PullEqualFactors(expr.MustParse("2*x + 2*y"))
	require.NoError(t, err)
	require.True(t, s.HasChanged())
	assert.Equal(t, "2*(x + y)", s.After.String())
	assert.Equal(t, 1, s.After.(*expr.BinaryOp).Left.Tag())

	for _, in := range []string{"x + y", "2*x*y"} {
		s, err := p.PullEqualFactors(expr.MustParse(in))
		require.NoError(t, err)
		assert.False(t, s.HasChanged(), in)
	}
}

func TestPullExponentFactors_NeedsSameBase(t *testing.T) {
	s, err := isolate.New().PullExponentFactors(expr.MustParse("x^2 + y^2"))
	require.NoError(t, err)
	assert.False(t, s.HasChanged())
}

// ============================================================
// Options
// ============================================================

type recorder struct {
	mu     sync.Mutex
	phases []string
	errs   int
}

func (r *recorder) ObservePhase(phase string, changed bool, err error, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, phase)
	if err != nil {
		r.errs++
	}
}

func TestWithObserver(t *testing.T) {
	rec := &recorder{}
	isolate.New(isolate.WithObserver(rec)).IsolateCommonFactors(expr.MustParse("2*x + 2*y"))
	assert.Equal(t, []string{
		isolate.PhaseEqualize,
		isolate.PhasePrimeSplit,
		isolate.PhaseExponentSplit,
		isolate.PhasePullEqualFactors,
		isolate.PhasePullExponentFactors,
	}, rec.phases)
	assert.Zero(t, rec.errs)
}

func TestPhaseFailureIsLogged(t *testing.T) {
	// Both y and z simplify to the negation of x: x has two opposite classes.
	table := map[string]string{"-(y)": "x", "-(z)": "x"}
	s := simplify.Func(func(n expr.Node) []*step.Step {
		if out, ok := table[n.String()]; ok {
			return []*step.Step{step.New(step.SimplifyArithmetic, n, expr.MustParse(out))}
		}
		return nil
	})
	core, logs := observer.New(zapcore.DebugLevel)
	rec := &recorder{}
	p := isolate.New(isolate.WithLogger(zap.New(core)), isolate.WithSimplifier(s), isolate.WithObserver(rec))

	out := p.IsolateCommonFactors(expr.MustParse("x*y + z"))
	assert.False(t, out.HasChanged())
	assert.Equal(t, 1, rec.errs)

	failed := logs.FilterMessage("phase failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.WarnLevel, failed[0].Level)
	assert.Equal(t, isolate.PhaseEqualize, failed[0].ContextMap()["phase"])
	assert.NotEmpty(t, logs.FilterMessage("phase start").All())
}
