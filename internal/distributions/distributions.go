// Package distributions wraps the gonum distributions used for p-values,
// critical values and percentile intervals.
package distributions

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// TTestPValue computes the two-tailed p-value of a t statistic with
// (possibly fractional) degrees of freedom.
func TTestPValue(tStatistic, degreesOfFreedom float64) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(tStatistic) {
		return 1.0
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: degreesOfFreedom}
	p := 2 * tDist.Survival(math.Abs(tStatistic))
	return clampProbability(p)
}

// TQuantile returns the p quantile of Student's t
func TQuantile(p, degreesOfFreedom float64) float64 {
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: degreesOfFreedom}
	return tDist.Quantile(p)
}

// FTestPValue computes the upper-tail p-value of an F statistic
func FTestPValue(fStatistic, df1, df2 float64) float64 {
	if df1 <= 0 || df2 <= 0 || math.IsNaN(fStatistic) {
		return 1.0
	}
	if fStatistic <= 0 {
		return 1.0
	}
	fDist := distuv.F{D1: df1, D2: df2}
	return clampProbability(fDist.Survival(fStatistic))
}

// ChiSquarePValue computes the upper-tail p-value of a chi-square statistic
func ChiSquarePValue(chiSquare, degreesOfFreedom float64) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(chiSquare) {
		return 1.0
	}
	if chiSquare <= 0 {
		return 1.0
	}
	chiDist := distuv.ChiSquared{K: degreesOfFreedom}
	return clampProbability(chiDist.Survival(chiSquare))
}

// ChiSquareQuantile returns the p quantile of a chi-square distribution
func ChiSquareQuantile(p, degreesOfFreedom float64) float64 {
	return distuv.ChiSquared{K: degreesOfFreedom}.Quantile(p)
}

// NormalCDF computes the standard normal CDF
func NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalSurvival computes the standard normal upper tail
func NormalSurvival(x float64) float64 {
	return distuv.UnitNormal.Survival(x)
}

// NormalQuantile computes the standard normal inverse CDF
func NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// PercentileInterval returns the central confidenceLevel interval of
// samples by the percentile method. Non-finite samples are ignored.
func PercentileInterval(samples []float64, confidenceLevel float64) (lower, upper float64) {
	sorted := make([]float64, 0, len(samples))
	for _, s := range samples {
		if !math.IsNaN(s) && !math.IsInf(s, 0) {
			sorted = append(sorted, s)
		}
	}
	if len(sorted) == 0 {
		return 0, 0
	}
	if confidenceLevel <= 0 || confidenceLevel >= 1 {
		confidenceLevel = 0.95
	}
	sort.Float64s(sorted)

	alpha := 1.0 - confidenceLevel
	lowerIdx := int(math.Round(float64(len(sorted)-1) * alpha / 2))
	upperIdx := int(math.Round(float64(len(sorted)-1) * (1 - alpha/2)))
	if upperIdx >= len(sorted) {
		upperIdx = len(sorted) - 1
	}
	return sorted[lowerIdx], sorted[upperIdx]
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1.0
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
