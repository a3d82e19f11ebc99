// Package diagnostics checks the assumptions behind the two-sample t-test
// before its result is trusted.
package diagnostics

import (
	"math"

	"studygate/domain/stats"
)

// Check names
const (
	CheckShapiroWilk   = "normality_shapiro_wilk"
	CheckDAgostinoK2   = "normality_dagostino_k2"
	CheckBrownForsythe = "equal_variance_brown_forsythe"
	CheckLjungBox      = "independence_ljung_box"
	CheckSampleRatio   = "sample_size_ratio"
)

const (
	// DefaultAlpha is the significance level for every assumption test
	DefaultAlpha = 0.05

	// D'Agostino is added once a group exceeds this size
	dagostinoMinSize = 50
	maxSampleRatio   = 2.0
)

const (
	remedyNormality    = "consider a rank-based test such as Mann-Whitney U, or a variance-stabilizing transform"
	remedyVariance     = "Welch's t-test tolerates unequal variances; report Glass's delta alongside Cohen's d"
	remedyIndependence = "check for session or ordering effects; consider a mixed model or cluster-robust errors"
	remedySampleRatio  = "rebalance allocation; power is limited by the smaller group"
)

// Run evaluates every assumption for a treatment/control pair. Checks are
// returned in a fixed order: per-group normality, equal variance,
// independence, then the sample-size ratio.
func Run(treatment, control []float64, alpha float64) []stats.AssumptionCheck {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}

	var checks []stats.AssumptionCheck
	for _, g := range []struct {
		name   string
		values []float64
	}{
		{"treatment", treatment},
		{"control", control},
	} {
		w, p := ShapiroWilk(g.values)
		checks = append(checks, check(CheckShapiroWilk, g.name, w, p, alpha, stats.AssumptionImportant, remedyNormality))

		if len(g.values) > dagostinoMinSize {
			k2, p := DAgostinoK2(g.values)
			checks = append(checks, check(CheckDAgostinoK2, g.name, k2, p, alpha, stats.AssumptionImportant, remedyNormality))
		}
	}

	f, p := BrownForsythe(treatment, control)
	checks = append(checks, check(CheckBrownForsythe, "", f, p, alpha, stats.AssumptionImportant, remedyVariance))

	series := residuals(treatment, control)
	q, p := LjungBox(series, LjungBoxLags(len(series)))
	checks = append(checks, check(CheckLjungBox, "", q, p, alpha, stats.AssumptionCritical, remedyIndependence))

	return append(checks, sampleRatio(len(treatment), len(control)))
}

// Violations filters the failed checks
func Violations(checks []stats.AssumptionCheck) []stats.AssumptionCheck {
	var out []stats.AssumptionCheck
	for _, c := range checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

func check(name, group string, statistic, p, alpha float64, severity stats.AssumptionSeverity, remedy string) stats.AssumptionCheck {
	c := stats.AssumptionCheck{
		Name:      name,
		Group:     group,
		Passed:    p >= alpha,
		Statistic: statistic,
		PValue:    p,
		Severity:  severity,
	}
	if !c.Passed {
		c.Remedy = remedy
	}
	return c
}

// sampleRatio has no p-value; PValue stays zero. An empty group fails
// with a zero ratio.
func sampleRatio(n1, n2 int) stats.AssumptionCheck {
	lo, hi := math.Min(float64(n1), float64(n2)), math.Max(float64(n1), float64(n2))
	var ratio float64
	if lo > 0 {
		ratio = hi / lo
	}
	c := stats.AssumptionCheck{
		Name:      CheckSampleRatio,
		Passed:    lo > 0 && ratio <= maxSampleRatio,
		Statistic: ratio,
		Severity:  stats.AssumptionMinor,
	}
	if !c.Passed {
		c.Remedy = remedySampleRatio
	}
	return c
}
