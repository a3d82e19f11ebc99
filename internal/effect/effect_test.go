package effect

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygate/domain/core"
	"studygate/domain/stats"
)

var (
	treatment = []float64{5.2, 5.8, 6.1, 5.9, 6.3, 5.7, 6.0, 5.8, 6.2, 5.9}
	control   = []float64{4.1, 4.3, 4.2, 4.0, 4.4, 4.2, 4.1, 4.3, 4.0, 4.2}
)

func TestWelchTTest(t *testing.T) {
	res, err := WelchTTest(treatment, control)
	require.NoError(t, err)

	assert.InDelta(t, 16.182, res.Statistic, 1e-3)
	assert.InDelta(t, 12.199, res.DegreesOfFreedom, 1e-3)
	assert.InDelta(t, 1.71, res.MeanDifference, 1e-9)
	assert.Less(t, res.PValue, 1e-6)
	assert.Greater(t, res.PValue, 0.0)
}

func TestWelchTTestSymmetric(t *testing.T) {
	a, err := WelchTTest(treatment, control)
	require.NoError(t, err)
	b, err := WelchTTest(control, treatment)
	require.NoError(t, err)

	assert.InDelta(t, -a.Statistic, b.Statistic, 1e-12)
	assert.InDelta(t, a.PValue, b.PValue, 1e-12)
	assert.InDelta(t, a.DegreesOfFreedom, b.DegreesOfFreedom, 1e-12)
}

func TestWelchTTestPreconditions(t *testing.T) {
	_, err := WelchTTest([]float64{1}, control)
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	_, err = WelchTTest([]float64{2, 2, 2}, []float64{2, 2, 2})
	assert.True(t, errors.Is(err, core.ErrZeroVariance))
	assert.True(t, core.IsPreconditionError(err))
}

func TestCompute(t *testing.T) {
	es, err := Compute(treatment, control, 0.3)
	require.NoError(t, err)

	assert.InDelta(t, 7.2368, es.CohensD, 1e-3)
	assert.InDelta(t, 6.9311, es.HedgesG, 1e-3)
	assert.InDelta(t, 12.988, es.GlassDelta, 1e-2)
	assert.Equal(t, 1.0, es.CliffsDelta)
	assert.Greater(t, es.PointBiserial, 0.9)
	assert.Greater(t, es.EtaSquared, 0.9)
	assert.LessOrEqual(t, es.OmegaSquared, es.EtaSquared)
	assert.Equal(t, stats.MagnitudeVeryLarge, es.Magnitude)
	assert.True(t, es.Practical)
}

func TestComputeNoEffect(t *testing.T) {
	es, err := Compute([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 4}, 0.3)
	require.NoError(t, err)

	assert.Equal(t, 0.0, es.CohensD)
	assert.Equal(t, 0.0, es.CliffsDelta)
	assert.Equal(t, 0.0, es.EtaSquared)
	assert.Equal(t, 0.0, es.OmegaSquared)
	assert.Equal(t, stats.MagnitudeNegligible, es.Magnitude)
	assert.False(t, es.Practical)
}

func TestGlassDeltaZeroControlSpread(t *testing.T) {
	assert.Equal(t, 0.0, GlassDelta([]float64{1, 2, 3}, []float64{5, 5, 5}))
}

func TestCliffsDeltaTies(t *testing.T) {
	assert.Equal(t, 0.0, CliffsDelta([]float64{1, 1}, []float64{1, 1}))
	assert.Equal(t, -1.0, CliffsDelta([]float64{0, 0}, []float64{1, 2}))
	assert.InDelta(t, 0.5, CliffsDelta([]float64{2}, []float64{1, 2}), 1e-12)
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		d    float64
		want stats.Magnitude
	}{
		{0, stats.MagnitudeNegligible},
		{0.009, stats.MagnitudeNegligible},
		{0.01, stats.MagnitudeSmall},
		{-0.19, stats.MagnitudeSmall},
		{0.2, stats.MagnitudeMedium},
		{0.49, stats.MagnitudeMedium},
		{-0.5, stats.MagnitudeLarge},
		{0.79, stats.MagnitudeLarge},
		{0.8, stats.MagnitudeVeryLarge},
		{7, stats.MagnitudeVeryLarge},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Interpret(tt.d), "d=%v", tt.d)
	}
}

func TestBootstrapReproducible(t *testing.T) {
	ctx := context.Background()
	a, err := BootstrapCohensD(ctx, rand.New(rand.NewSource(42)), treatment, control, 2000, 0.95)
	require.NoError(t, err)
	b, err := BootstrapCohensD(ctx, rand.New(rand.NewSource(42)), treatment, control, 2000, 0.95)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 2000, a.Iterations)
	assert.Less(t, a.Lower, a.Upper)
	assert.True(t, a.Contains(CohensD(treatment, control)))
}

func TestBootstrapIterationFloor(t *testing.T) {
	ci, err := BootstrapCohensD(context.Background(), rand.New(rand.NewSource(1)), treatment, control, 10, 0.95)
	require.NoError(t, err)
	assert.Equal(t, MinBootstrapIterations, ci.Iterations)
	assert.False(t, math.IsNaN(ci.Lower))
}

func TestBootstrapCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BootstrapCohensD(ctx, rand.New(rand.NewSource(1)), treatment, control, 1000, 0.95)
	assert.ErrorIs(t, err, context.Canceled)
}
