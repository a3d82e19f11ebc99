// Package effect computes the primary two-sample test and the effect-size
// estimators reported with it.
package effect

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"studygate/domain/core"
	"studygate/domain/stats"
	"studygate/internal/distributions"
)

// WelchTTest runs the unequal-variance two-sample t-test of treatment
// against control with Welch–Satterthwaite degrees of freedom.
func WelchTTest(treatment, control []float64) (stats.TTestResult, error) {
	n1, n2 := float64(len(treatment)), float64(len(control))
	if len(treatment) < 2 {
		return stats.TTestResult{}, core.NewInsufficientDataError("treatment", len(treatment), 2)
	}
	if len(control) < 2 {
		return stats.TTestResult{}, core.NewInsufficientDataError("control", len(control), 2)
	}

	m1, v1 := stat.MeanVariance(treatment, nil)
	m2, v2 := stat.MeanVariance(control, nil)

	se1, se2 := v1/n1, v2/n2
	se := math.Sqrt(se1 + se2)
	if se == 0 || math.IsNaN(se) {
		return stats.TTestResult{}, fmt.Errorf("welch t-test: %w", core.NewZeroVarianceError("both groups"))
	}

	t := (m1 - m2) / se
	df := (se1 + se2) * (se1 + se2) / (se1*se1/(n1-1) + se2*se2/(n2-1))

	return stats.TTestResult{
		Statistic:        t,
		DegreesOfFreedom: df,
		PValue:           distributions.TTestPValue(t, df),
		MeanDifference:   m1 - m2,
		StandardError:    se,
	}, nil
}
