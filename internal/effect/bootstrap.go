package effect

import (
	"context"
	"math"
	"math/rand"

	"studygate/domain/core"
	"studygate/domain/stats"
	"studygate/internal/distributions"
)

// MinBootstrapIterations is the floor applied to every bootstrap run
const MinBootstrapIterations = 1000

// BootstrapCohensD resamples both groups with replacement and returns the
// percentile interval of the resampled Cohen's d. Resamples without
// spread are skipped. The context is checked between iterations.
func BootstrapCohensD(ctx context.Context, rng *rand.Rand, treatment, control []float64, iterations int, level float64) (stats.ConfidenceInterval, error) {
	if len(treatment) < 2 {
		return stats.ConfidenceInterval{}, core.NewInsufficientDataError("treatment", len(treatment), 2)
	}
	if len(control) < 2 {
		return stats.ConfidenceInterval{}, core.NewInsufficientDataError("control", len(control), 2)
	}
	if iterations < MinBootstrapIterations {
		iterations = MinBootstrapIterations
	}
	if level <= 0 || level >= 1 {
		level = 0.95
	}

	t := make([]float64, len(treatment))
	c := make([]float64, len(control))
	ds := make([]float64, 0, iterations)
	for i := 0; i < iterations; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return stats.ConfidenceInterval{}, err
			}
		}
		for j := range t {
			t[j] = treatment[rng.Intn(len(treatment))]
		}
		for j := range c {
			c[j] = control[rng.Intn(len(control))]
		}
		if d := CohensD(t, c); !math.IsNaN(d) && !math.IsInf(d, 0) {
			ds = append(ds, d)
		}
	}

	lower, upper := distributions.PercentileInterval(ds, level)
	return stats.ConfidenceInterval{
		Lower:      lower,
		Upper:      upper,
		Level:      level,
		Iterations: iterations,
	}, nil
}
