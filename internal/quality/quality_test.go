package quality

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygate/domain/core"
	"studygate/domain/stats"
	"studygate/internal/config"
	apperrors "studygate/internal/errors"
)

func goodMetrics() stats.DataQualityMetrics {
	return stats.DataQualityMetrics{
		Completeness:           98,
		Consistency:            97,
		Accuracy:               96,
		Validity:               99,
		Reliability:            95,
		OverallQuality:         96,
		OutlierPercentage:      2,
		MissingDataPercentage:  1,
		AttentionCheckPassRate: 94,
	}
}

func TestGateMeetsStandards(t *testing.T) {
	g := NewGate(config.Default().Quality)
	a, err := g.Assess(goodMetrics())
	require.NoError(t, err)
	assert.True(t, a.MeetsStandards)
	assert.Empty(t, a.Issues)
	assert.NoError(t, a.Err())
}

func TestGateThresholdBoundaries(t *testing.T) {
	g := NewGate(config.Default().Quality)

	m := goodMetrics()
	m.Completeness = 95
	m.AttentionCheckPassRate = 90
	m.OutlierPercentage = 5
	m.OverallQuality = 90
	a, err := g.Assess(m)
	require.NoError(t, err)
	assert.True(t, a.MeetsStandards, "thresholds are inclusive")
}

func TestGateViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*stats.DataQualityMetrics)
		want   Issue
	}{
		{"completeness", func(m *stats.DataQualityMetrics) { m.Completeness = 70 }, Issue{Name: IssueCompleteness, Observed: 70, Threshold: 95}},
		{"attention", func(m *stats.DataQualityMetrics) { m.AttentionCheckPassRate = 80 }, Issue{Name: IssueAttentionCheck, Observed: 80, Threshold: 90}},
		{"outliers", func(m *stats.DataQualityMetrics) { m.OutlierPercentage = 7.5 }, Issue{Name: IssueOutliers, Observed: 7.5, Threshold: 5, Max: true}},
		{"overall", func(m *stats.DataQualityMetrics) { m.OverallQuality = 89.9 }, Issue{Name: IssueOverallQuality, Observed: 89.9, Threshold: 90}},
	}

	g := NewGate(config.Default().Quality)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := goodMetrics()
			tt.mutate(&m)
			a, err := g.Assess(m)
			require.NoError(t, err)
			assert.False(t, a.MeetsStandards)
			assert.Equal(t, []Issue{tt.want}, a.Issues)

			err = a.Err()
			assert.True(t, errors.Is(err, core.ErrQualityBelowStandards))
			assert.True(t, core.IsPreconditionError(err))
			assert.Contains(t, err.Error(), tt.want.Name)
		})
	}
}

func TestGateListsEveryViolation(t *testing.T) {
	m := goodMetrics()
	m.Completeness = 50
	m.OverallQuality = 40
	a, err := NewGate(config.Default().Quality).Assess(m)
	require.NoError(t, err)
	assert.Len(t, a.Issues, 2)
}

func TestGateRejectsOutOfRangeMetrics(t *testing.T) {
	m := goodMetrics()
	m.Completeness = 120
	_, err := NewGate(config.Default().Quality).Assess(m)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func seq(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func codes(r DataReport) []string {
	var out []string
	for _, i := range r.Issues {
		out = append(out, i.Code)
	}
	return out
}

func TestCheckSamplesClean(t *testing.T) {
	r := CheckSamples(seq(5, 0.1, 12), seq(4, 0.1, 12), DefaultMinPerGroup)
	assert.Empty(t, r.Issues)
	assert.NoError(t, r.Err())
	assert.False(t, r.Fatal())
	assert.Len(t, r.Treatment, 12)
}

func TestCheckSamplesInsufficient(t *testing.T) {
	r := CheckSamples(seq(5, 0.1, 9), seq(4, 0.1, 12), DefaultMinPerGroup)
	require.True(t, r.Fatal())
	assert.Equal(t, []string{CodeInsufficientSample}, codes(r))
	assert.Equal(t, stats.IssueCritical, r.Issues[0].Severity)
	assert.True(t, errors.Is(r.Err(), core.ErrInsufficientData))
}

func TestCheckSamplesMissingValuesRemoved(t *testing.T) {
	treatment := append(seq(5, 0.1, 12), math.NaN(), math.Inf(1))
	r := CheckSamples(treatment, seq(4, 0.1, 12), DefaultMinPerGroup)

	require.False(t, r.Fatal())
	assert.Equal(t, []string{CodeMissingValues}, codes(r))
	assert.Equal(t, stats.IssueHigh, r.Issues[0].Severity)
	assert.False(t, r.Issues[0].Fatal)
	assert.Len(t, r.Treatment, 12)
}

func TestCheckSamplesMissingCanLeaveTooFew(t *testing.T) {
	treatment := append(seq(5, 0.1, 9), math.NaN())
	r := CheckSamples(treatment, seq(4, 0.1, 12), DefaultMinPerGroup)
	assert.Equal(t, []string{CodeMissingValues, CodeInsufficientSample}, codes(r))
	assert.True(t, r.Fatal())
}

func TestCheckSamplesZeroVariance(t *testing.T) {
	flat := make([]float64, 12)
	for i := range flat {
		flat[i] = 3
	}
	r := CheckSamples(seq(5, 0.1, 12), flat, DefaultMinPerGroup)
	require.True(t, r.Fatal())
	assert.Equal(t, []string{CodeZeroVariance}, codes(r))
	assert.True(t, errors.Is(r.Err(), core.ErrZeroVariance))
}

func TestCheckSamplesExtremeValues(t *testing.T) {
	treatment := append(seq(10, 0.05, 17), 1000, 1000, 1000)
	r := CheckSamples(treatment, seq(10, 0.05, 20), DefaultMinPerGroup)

	require.False(t, r.Fatal())
	assert.Contains(t, codes(r), CodeExtremeValues)
}

func TestCheckSamplesRangeRatio(t *testing.T) {
	r := CheckSamples(seq(0, 10, 11), seq(1, 0.1, 11), DefaultMinPerGroup)
	require.False(t, r.Fatal())
	assert.Equal(t, []string{CodeRangeRatio}, codes(r))
	assert.Equal(t, stats.IssueMedium, r.Issues[0].Severity)
}
