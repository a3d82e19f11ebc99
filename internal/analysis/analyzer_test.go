package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygate/adapters/rng"
	"studygate/domain/core"
	"studygate/domain/stats"
	"studygate/internal"
	"studygate/internal/config"
	"studygate/internal/diagnostics"
	apperrors "studygate/internal/errors"
	"studygate/internal/quality"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func goodMetrics() stats.DataQualityMetrics {
	return stats.DataQualityMetrics{
		Completeness:           98,
		Consistency:            97,
		Accuracy:               97,
		Validity:               99,
		Reliability:            96,
		OverallQuality:         97,
		OutlierPercentage:      1,
		MissingDataPercentage:  0.5,
		AttentionCheckPassRate: 95,
	}
}

func welchSample() stats.StatisticalSample {
	return stats.StatisticalSample{
		Treatment: []float64{5.2, 5.8, 6.1, 5.9, 6.3, 5.7, 6.0, 5.8, 6.2, 5.9},
		Control:   []float64{4.1, 4.3, 4.2, 4.0, 4.4, 4.2, 4.1, 4.3, 4.0, 4.2},
		Metrics:   goodMetrics(),
	}
}

func newAnalyzer(seed int64) *Analyzer {
	cfg := config.Default()
	return New(cfg.Analysis, cfg.Quality,
		WithRNG(rng.Seeded(seed)),
		WithClock(core.FixedClock(testNow)),
		WithLogger(internal.NewNopLogger()),
	)
}

func TestAnalyzeLargeEffectStopsForSuccess(t *testing.T) {
	a := newAnalyzer(42)
	res, err := a.Analyze(context.Background(), welchSample())
	require.NoError(t, err)

	assert.InDelta(t, 16.18, res.TestStatistic, 0.01)
	assert.InDelta(t, 12.2, res.DegreesOfFreedom, 0.01)
	assert.Less(t, res.PValue, 1e-6)
	assert.InDelta(t, 7.24, res.EffectSize, 0.01)
	assert.Equal(t, stats.MagnitudeVeryLarge, res.EffectSizes.Magnitude)
	assert.True(t, res.EffectSizes.Practical)
	assert.Equal(t, stats.EvidenceDecisive, res.Bayesian.Strength)
	assert.Greater(t, res.Power.CurrentPower, 0.99)
	assert.Equal(t, 20, res.Power.CurrentSampleSize)
	assert.Equal(t, 128, res.Power.RequiredSampleSize)
	assert.Equal(t, stats.RecommendStopSuccess, res.Recommendation)
	assert.Equal(t, 2000, res.ConfidenceInterval.Iterations)
	assert.Less(t, res.ConfidenceInterval.Lower, res.ConfidenceInterval.Upper)
	assert.Equal(t, testNow, res.CreatedAt)
	assert.Equal(t, int64(1), res.Sequence)
	assert.NotEmpty(t, res.ID)
	assert.Contains(t, res.Interpretation, "Recommendation: stop_success.")
	assert.Contains(t, res.Interpretation, "p < 0.001")
	assert.NotEmpty(t, res.Assumptions)
}

func TestAnalyzeBootstrapReproducible(t *testing.T) {
	first, err := newAnalyzer(7).Analyze(context.Background(), welchSample())
	require.NoError(t, err)
	second, err := newAnalyzer(7).Analyze(context.Background(), welchSample())
	require.NoError(t, err)

	assert.Equal(t, first.ConfidenceInterval, second.ConfidenceInterval)
	assert.Equal(t, first.Recommendation, second.Recommendation)
}

func TestAnalyzeNullEffectContinues(t *testing.T) {
	treatment := []float64{10, 11, 9, 12, 8, 10.5, 9.5, 11.5, 8.5, 10, 10.2, 9.8}
	control := make([]float64, len(treatment))
	for i, v := range treatment {
		control[len(treatment)-1-i] = v
	}

	res, err := newAnalyzer(1).Analyze(context.Background(), stats.StatisticalSample{
		Treatment: treatment,
		Control:   control,
		Metrics:   goodMetrics(),
	})
	require.NoError(t, err)

	assert.InDelta(t, 0, res.EffectSize, 1e-9)
	assert.InDelta(t, 1, res.PValue, 1e-9)
	assert.Equal(t, stats.EvidenceInconclusive, res.Bayesian.Strength)
	assert.Equal(t, stats.RecommendContinue, res.Recommendation)
}

func TestAnalyzeQualityBelowStandards(t *testing.T) {
	a := newAnalyzer(42)
	sample := welchSample()
	sample.Metrics.Completeness = 70

	res, err := a.Analyze(context.Background(), sample)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, core.ErrQualityBelowStandards))
	assert.True(t, core.IsPreconditionError(err))
	assert.Equal(t, apperrors.CodeQualityBelowStandards, apperrors.GetCode(err))

	var pe *PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, StageQualityGate, pe.Stage)
	require.Len(t, pe.QualityIssues, 1)
	assert.Equal(t, quality.IssueCompleteness, pe.QualityIssues[0].Name)
	assert.Equal(t, 70.0, pe.QualityIssues[0].Observed)

	assert.Equal(t, 0, a.History().Len(), "failed analyses are not recorded")
}

func TestAnalyzeSampleGateFailures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*stats.StatisticalSample)
		sentinel error
		code     string
	}{
		{
			name:     "too few",
			mutate:   func(s *stats.StatisticalSample) { s.Treatment = s.Treatment[:5] },
			sentinel: core.ErrInsufficientData,
			code:     apperrors.CodeInsufficientData,
		},
		{
			name:     "zero variance",
			mutate:   func(s *stats.StatisticalSample) { s.Control = []float64{4, 4, 4, 4, 4, 4, 4, 4, 4, 4} },
			sentinel: core.ErrZeroVariance,
			code:     apperrors.CodeZeroVariance,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample := welchSample()
			tt.mutate(&sample)

			_, err := newAnalyzer(42).Analyze(context.Background(), sample)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))
			assert.Equal(t, tt.code, apperrors.GetCode(err))

			var pe *PreconditionError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, StageSampleGate, pe.Stage)
			assert.NotEmpty(t, pe.DataIssues)
		})
	}
}

func TestAnalyzeInvalidMetrics(t *testing.T) {
	sample := welchSample()
	sample.Metrics.OverallQuality = -1

	_, err := newAnalyzer(42).Analyze(context.Background(), sample)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
	assert.False(t, core.IsPreconditionError(err))
}

func TestAnalyzeRecordsHistory(t *testing.T) {
	a := newAnalyzer(42)
	for i := 0; i < 3; i++ {
		_, err := a.Analyze(context.Background(), welchSample())
		require.NoError(t, err)
	}

	all := a.History().All()
	require.Len(t, all, 3)
	for i, r := range all {
		assert.Equal(t, int64(i+1), r.Sequence)
	}
	latest, ok := a.History().Latest()
	require.True(t, ok)
	assert.Equal(t, int64(3), latest.Sequence)
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newAnalyzer(42).Analyze(ctx, welchSample())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInterpretListsViolations(t *testing.T) {
	r := &stats.StatisticalResult{
		PValue:             0.2,
		EffectSize:         0.1,
		EffectSizes:        stats.EffectSizes{Magnitude: stats.MagnitudeSmall},
		ConfidenceInterval: stats.ConfidenceInterval{Level: 0.95, Lower: -0.3, Upper: 0.5},
		Power:              stats.PowerAnalysis{TargetPower: 0.8},
		Bayesian:           stats.BayesianEvidence{BayesFactor10: 0.4, Strength: stats.EvidenceInconclusive},
		Assumptions: []stats.AssumptionCheck{
			{Name: diagnostics.CheckShapiroWilk, Group: "control", Passed: false},
			{Name: diagnostics.CheckLjungBox, Passed: true},
		},
		Recommendation: stats.RecommendContinue,
	}
	text := Interpret(r, 0.05)
	assert.Contains(t, text, "p = 0.200")
	assert.Contains(t, text, "not significant")
	assert.Contains(t, text, "normality_shapiro_wilk (control)")
	assert.NotContains(t, text, diagnostics.CheckLjungBox)
	assert.Contains(t, text, "below the practical threshold")
}
