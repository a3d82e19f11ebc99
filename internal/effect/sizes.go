package effect

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"studygate/domain/core"
	"studygate/domain/stats"
)

// Interpret labels the magnitude of a standardized effect
func Interpret(d float64) stats.Magnitude {
	switch ad := math.Abs(d); {
	case ad < 0.01:
		return stats.MagnitudeNegligible
	case ad < 0.20:
		return stats.MagnitudeSmall
	case ad < 0.50:
		return stats.MagnitudeMedium
	case ad < 0.80:
		return stats.MagnitudeLarge
	default:
		return stats.MagnitudeVeryLarge
	}
}

// CohensD is the mean difference over the pooled standard deviation, with
// the pooled variance divided by n1+n2-2.
func CohensD(treatment, control []float64) float64 {
	n1, n2 := float64(len(treatment)), float64(len(control))
	if n1 < 2 || n2 < 2 {
		return math.NaN()
	}
	m1, v1 := stat.MeanVariance(treatment, nil)
	m2, v2 := stat.MeanVariance(control, nil)
	pooled := math.Sqrt(((n1-1)*v1 + (n2-1)*v2) / (n1 + n2 - 2))
	if pooled == 0 {
		return math.NaN()
	}
	return (m1 - m2) / pooled
}

// HedgesCorrection is the small-sample bias factor applied to Cohen's d
func HedgesCorrection(n1, n2 int) float64 {
	return 1 - 3/(4*float64(n1+n2)-9)
}

// GlassDelta scales the mean difference by the control standard deviation
func GlassDelta(treatment, control []float64) float64 {
	sd := stat.StdDev(control, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return (stat.Mean(treatment, nil) - stat.Mean(control, nil)) / sd
}

// CliffsDelta is P(x > y) - P(x < y) over all treatment/control pairs
func CliffsDelta(treatment, control []float64) float64 {
	if len(treatment) == 0 || len(control) == 0 {
		return 0
	}
	sorted := append([]float64(nil), control...)
	sort.Float64s(sorted)

	var dominance int
	for _, x := range treatment {
		below := sort.SearchFloat64s(sorted, x)
		above := len(sorted) - sort.Search(len(sorted), func(i int) bool { return sorted[i] > x })
		dominance += below - above
	}
	return float64(dominance) / float64(len(treatment)*len(control))
}

// PointBiserial correlates group membership (treatment = 1) with outcome
func PointBiserial(treatment, control []float64) float64 {
	values := make([]float64, 0, len(treatment)+len(control))
	groups := make([]float64, 0, cap(values))
	for _, v := range treatment {
		values = append(values, v)
		groups = append(groups, 1)
	}
	for _, v := range control {
		values = append(values, v)
		groups = append(groups, 0)
	}
	r := stat.Correlation(groups, values, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// VarianceExplained returns eta-squared and omega-squared for the
// two-group one-way decomposition. Omega-squared is floored at zero.
func VarianceExplained(treatment, control []float64) (eta, omega float64) {
	n1, n2 := float64(len(treatment)), float64(len(control))
	n := n1 + n2
	if n1 == 0 || n2 == 0 || n < 3 {
		return 0, 0
	}
	m1 := stat.Mean(treatment, nil)
	m2 := stat.Mean(control, nil)
	grand := (n1*m1 + n2*m2) / n

	ssBetween := n1*(m1-grand)*(m1-grand) + n2*(m2-grand)*(m2-grand)
	var ssWithin float64
	for _, v := range treatment {
		ssWithin += (v - m1) * (v - m1)
	}
	for _, v := range control {
		ssWithin += (v - m2) * (v - m2)
	}
	ssTotal := ssBetween + ssWithin
	if ssTotal == 0 {
		return 0, 0
	}

	msWithin := ssWithin / (n - 2)
	eta = ssBetween / ssTotal
	omega = (ssBetween - msWithin) / (ssTotal + msWithin)
	if omega < 0 {
		omega = 0
	}
	return eta, omega
}

// Compute returns every estimator for treatment against control. Effects
// with |d| at or above practicalThreshold are flagged practical.
func Compute(treatment, control []float64, practicalThreshold float64) (stats.EffectSizes, error) {
	if len(treatment) < 2 {
		return stats.EffectSizes{}, core.NewInsufficientDataError("treatment", len(treatment), 2)
	}
	if len(control) < 2 {
		return stats.EffectSizes{}, core.NewInsufficientDataError("control", len(control), 2)
	}
	d := CohensD(treatment, control)
	if math.IsNaN(d) {
		return stats.EffectSizes{}, core.NewZeroVarianceError("pooled")
	}

	eta, omega := VarianceExplained(treatment, control)
	return stats.EffectSizes{
		CohensD:       d,
		HedgesG:       d * HedgesCorrection(len(treatment), len(control)),
		GlassDelta:    GlassDelta(treatment, control),
		CliffsDelta:   CliffsDelta(treatment, control),
		PointBiserial: PointBiserial(treatment, control),
		EtaSquared:    eta,
		OmegaSquared:  omega,
		Magnitude:     Interpret(d),
		Practical:     math.Abs(d) >= practicalThreshold,
	}, nil
}
