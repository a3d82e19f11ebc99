// Package analysis runs one statistical checkpoint over an accumulated
// treatment/control sample and records the outcome.
package analysis

import (
	"context"

	"golang.org/x/sync/errgroup"

	"studygate/adapters/rng"
	"studygate/domain/core"
	"studygate/domain/stats"
	"studygate/internal"
	"studygate/internal/bayes"
	"studygate/internal/config"
	"studygate/internal/diagnostics"
	"studygate/internal/effect"
	"studygate/internal/errors"
	"studygate/internal/metrics"
	"studygate/internal/power"
	"studygate/internal/quality"
	"studygate/internal/stopping"
	"studygate/ports"
)

const bootstrapStream = "bootstrap_cohens_d"

// Analyzer turns a StatisticalSample into a StatisticalResult. It is safe
// for concurrent use; every call draws its own bootstrap stream.
type Analyzer struct {
	cfg         config.AnalysisConfig
	gate        *quality.Gate
	minPerGroup int
	rng         ports.RNGPort
	history     ports.AnalysisLogPort
	clock       core.Clock
	logger      *internal.Logger
	metrics     bool
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithRNG sets the source of bootstrap randomness
func WithRNG(r ports.RNGPort) Option {
	return func(a *Analyzer) {
		if r != nil {
			a.rng = r
		}
	}
}

// WithHistory replaces the result log
func WithHistory(h ports.AnalysisLogPort) Option {
	return func(a *Analyzer) {
		if h != nil {
			a.history = h
		}
	}
}

// WithClock replaces the system clock
func WithClock(clock core.Clock) Option {
	return func(a *Analyzer) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *internal.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

// WithMetrics toggles Prometheus instrumentation
func WithMetrics(enabled bool) Option {
	return func(a *Analyzer) { a.metrics = enabled }
}

// New creates an Analyzer. Without WithRNG the bootstrap seed from cfg is
// used, and a zero seed selects the crypto-backed source.
func New(cfg config.AnalysisConfig, qcfg config.QualityConfig, opts ...Option) *Analyzer {
	a := &Analyzer{
		cfg:         cfg,
		gate:        quality.NewGate(qcfg),
		minPerGroup: qcfg.MinSamplesPerGroup,
		history:     NewHistory(),
		clock:       core.SystemClock,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		a.rng = rng.FromSeed(cfg.BootstrapSeed)
	}
	if a.minPerGroup < 2 {
		a.minPerGroup = quality.DefaultMinPerGroup
	}
	a.logger = internal.OrDefault(a.logger).With("component", "analyzer")
	return a
}

// History returns the result log
func (a *Analyzer) History() ports.AnalysisLogPort {
	return a.history
}

// Analyze runs the quality gate, the raw sample gate, the diagnostics and
// the effect and power engine, then decides a recommendation. If a gate
// fails no statistic is computed and the error unwraps to a
// *PreconditionError.
func (a *Analyzer) Analyze(ctx context.Context, sample stats.StatisticalSample) (*stats.StatisticalResult, error) {
	start := a.clock()
	res, err := a.analyze(ctx, sample)
	if err != nil {
		a.observe(outcomeOf(err))
		a.logger.Warn("analysis failed after %s: %v", a.clock().Sub(start), err)
		return nil, err
	}

	stored := a.history.Append(*res)
	a.observe(string(stored.Recommendation))
	a.logger.Info("analysis #%d: n=%d d=%.3f p=%.4g power=%.2f -> %s",
		stored.Sequence, stored.Power.CurrentSampleSize, stored.EffectSize, stored.PValue, stored.Power.CurrentPower, stored.Recommendation)
	return &stored, nil
}

func (a *Analyzer) analyze(ctx context.Context, sample stats.StatisticalSample) (*stats.StatisticalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assessment, err := a.gate.Assess(sample.Metrics)
	if err != nil {
		return nil, err
	}
	if !assessment.MeetsStandards {
		return nil, precondition(&PreconditionError{
			Stage:         StageQualityGate,
			QualityIssues: assessment.Issues,
			Err:           assessment.Err(),
		})
	}

	report := quality.CheckSamples(sample.Treatment, sample.Control, a.minPerGroup)
	if report.Fatal() {
		return nil, precondition(&PreconditionError{
			Stage:      StageSampleGate,
			DataIssues: report.Issues,
			Err:        report.Err(),
		})
	}
	treatment, control := report.Treatment, report.Control

	var (
		checks []stats.AssumptionCheck
		ci     stats.ConfidenceInterval
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		checks = diagnostics.Run(treatment, control, diagnostics.DefaultAlpha)
		return nil
	})
	g.Go(func() error {
		r, err := a.rng.Stream(gctx, bootstrapStream)
		if err != nil {
			return err
		}
		ci, err = effect.BootstrapCohensD(gctx, r, treatment, control, a.cfg.BootstrapIterations, a.cfg.ConfidenceLevel)
		return err
	})

	ttest, err := effect.WelchTTest(treatment, control)
	var sizes stats.EffectSizes
	if err == nil {
		sizes, err = effect.Compute(treatment, control, a.cfg.PracticalThreshold)
	}
	werr := g.Wait()
	if err != nil {
		if core.IsPreconditionError(err) {
			return nil, precondition(&PreconditionError{Stage: StageEffect, DataIssues: report.Issues, Err: err})
		}
		return nil, errors.Wrap(err, "effect engine")
	}
	if werr != nil {
		return nil, errors.Wrap(werr, "diagnostics and bootstrap")
	}
	return a.conclude(report, ttest, sizes, checks, ci), nil
}

func (a *Analyzer) conclude(report quality.DataReport, ttest stats.TTestResult, sizes stats.EffectSizes, checks []stats.AssumptionCheck, ci stats.ConfidenceInterval) *stats.StatisticalResult {
	n1, n2 := len(report.Treatment), len(report.Control)
	pa := power.Analyze(sizes.CohensD, n1, n2, power.Params{
		Alpha:             a.cfg.Alpha,
		TargetPower:       a.cfg.TargetPower,
		MinimumDetectable: a.cfg.MinimumDetectable,
		MaxSampleSize:     a.cfg.MaxSampleSize,
	})
	evidence := bayes.FromTTest(ttest.Statistic, ttest.DegreesOfFreedom, n1+n2)

	rec := stopping.Decide(stopping.Inputs{
		PValue:        ttest.PValue,
		EffectSize:    sizes.CohensD,
		ObservedPower: pa.CurrentPower,
		Evidence:      evidence.Strength,
	}, stopping.DefaultRules(a.cfg.Alpha, a.cfg.MinimumDetectable))

	res := &stats.StatisticalResult{
		ID:                 core.NewAnalysisID(),
		TestStatistic:      ttest.Statistic,
		DegreesOfFreedom:   ttest.DegreesOfFreedom,
		PValue:             ttest.PValue,
		EffectSize:         sizes.CohensD,
		EffectSizes:        sizes,
		ConfidenceInterval: ci,
		Power:              pa,
		Bayesian:           evidence,
		Assumptions:        checks,
		DataIssues:         report.Issues,
		Recommendation:     rec,
		CreatedAt:          a.clock(),
	}
	res.Interpretation = Interpret(res, a.cfg.Alpha)
	return res
}

func (a *Analyzer) observe(outcome string) {
	if a.metrics {
		metrics.ObserveAnalysis(outcome)
	}
}

func outcomeOf(err error) string {
	if core.IsPreconditionError(err) {
		return metrics.OutcomePreconditionFailed
	}
	return metrics.OutcomeError
}
