// Package isolate pulls the factors shared by every term of a sum out in
// front of it, recording each rewrite as a step.
//
// The pipeline runs five phases in a fixed order. Each phase gets the
// tag-free result of the phase before it and only phases that changed
// something are recorded:
//
//	equalize                 3*(x - 1) + 2*(1 - x)  ->  3*(x - 1) - 2*(x - 1)
//	prime split              4*x^2                  ->  2*2*x^2
//	exponent split           x^(m + 1)              ->  x^m*x^1
//	pull equal factors       2*x + 2*y              ->  2*(x + y)
//	pull exponent factors    x^3*y + x^2*y^2        ->  x^2*y*(x + y)
package isolate

import (
	"time"

	"go.uber.org/zap"

	"github.com/florisdf/mathsteps/expr"
	"github.com/florisdf/mathsteps/polynom"
	"github.com/florisdf/mathsteps/simplify"
	"github.com/florisdf/mathsteps/step"
)

// Phase names as reported to loggers and observers.
const (
	PhaseEqualize            = "equalize"
	PhasePrimeSplit          = "prime_split"
	PhaseExponentSplit       = "exponent_split"
	PhasePullEqualFactors    = "pull_equal_factors"
	PhasePullExponentFactors = "pull_exponent_factors"
)

// Observer is told the outcome of every phase run.
type Observer interface {
	ObservePhase(phase string, changed bool, err error, elapsed time.Duration)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Phases log at Debug, failures at Warn.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithSimplifier sets the simplifier used to compare factors and to
// simplify exponents.
func WithSimplifier(s simplify.Simplifier) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.simplifier = s
		}
	}
}

// WithObserver registers o to be told about every phase.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// Pipeline isolates common factors. A Pipeline holds no per-call state and
// may be used from several goroutines at once.
type Pipeline struct {
	log        *zap.Logger
	simplifier simplify.Simplifier
	analyzer   *polynom.Analyzer
	observer   Observer
}

// New returns a pipeline with the given options applied.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{log: zap.NewNop(), simplifier: simplify.Default}
	for _, opt := range opts {
		opt(p)
	}
	p.analyzer = polynom.NewAnalyzer(p.simplifier)
	return p
}

// Simplifier returns the simplifier the pipeline compares factors with.
func (p *Pipeline) Simplifier() simplify.Simplifier { return p.simplifier }

// Analyzer returns the analyzer the pipeline groups factors with.
func (p *Pipeline) Analyzer() *polynom.Analyzer { return p.analyzer }

type phase struct {
	name string
	run  func(expr.Node) (*step.Step, error)
	// pulls marks the phases that actually move a factor out.
	pulls bool
}

func (p *Pipeline) phases() []phase {
	return []phase{
		{name: PhaseEqualize, run: p.Equalize},
		{name: PhasePrimeSplit, run: p.PrimeSplit},
		{name: PhaseExponentSplit, run: p.ExponentSplit},
		{name: PhasePullEqualFactors, run: p.PullEqualFactors, pulls: true},
		{name: PhasePullExponentFactors, run: p.PullExponentFactors, pulls: true},
	}
}

// IsolateCommonFactors runs every phase on n and returns one
// ISOLATE_COMMON_FACTOR step holding the phases that changed something.
// When no factor could be pulled out the result is the no-change sentinel,
// even if a preparing phase rewrote n. n is not modified.
func (p *Pipeline) IsolateCommonFactors(n expr.Node) *step.Step {
	chain := step.NewChain(n)
	pulled := false
	for _, ph := range p.phases() {
		p.log.Debug("phase start", zap.String("phase", ph.name), zap.String("before", chain.Current.String()))
		start := time.Now()
		s, err := ph.run(chain.Current)
		if p.observer != nil {
			p.observer.ObservePhase(ph.name, err == nil && s.HasChanged(), err, time.Since(start))
		}
		if err != nil {
			p.log.Warn("phase failed", zap.String("phase", ph.name), zap.String("before", chain.Current.String()), zap.Error(err))
			continue
		}
		if !s.HasChanged() {
			p.log.Debug("phase unchanged", zap.String("phase", ph.name))
			continue
		}
		p.log.Debug("phase done", zap.String("phase", ph.name), zap.String("after", s.After.String()))
		chain.Record(s)
		pulled = pulled || ph.pulls
	}
	if !pulled {
		if len(chain.Steps) > 0 {
			p.log.Debug("nothing pulled", zap.String("prepared", chain.Current.String()))
		}
		return step.NoChange(n)
	}
	return chain.Result(step.IsolateCommonFactor, n)
}

var defaultPipeline = New()

// IsolateCommonFactors runs the default pipeline.
func IsolateCommonFactors(n expr.Node) *step.Step { return defaultPipeline.IsolateCommonFactors(n) }
