package diagnostics

import (
	"math"

	mstats "github.com/montanaflynn/stats"

	"studygate/internal/distributions"
)

// BrownForsythe tests equality of variances across groups using absolute
// deviations from each group median. Groups without spread around their
// medians give F = 0, p = 1.
func BrownForsythe(groups ...[]float64) (f, p float64) {
	k := len(groups)
	if k < 2 {
		return 0, 1
	}

	deviations := make([][]float64, k)
	means := make([]float64, k)
	var total int
	var grand float64
	for i, g := range groups {
		if len(g) == 0 {
			return 0, 1
		}
		median, err := mstats.Median(g)
		if err != nil {
			return 0, 1
		}
		deviations[i] = make([]float64, len(g))
		for j, v := range g {
			z := math.Abs(v - median)
			deviations[i][j] = z
			means[i] += z
			grand += z
		}
		means[i] /= float64(len(g))
		total += len(g)
	}
	if total <= k {
		return 0, 1
	}
	grand /= float64(total)

	var between, within float64
	for i, zs := range deviations {
		between += float64(len(zs)) * (means[i] - grand) * (means[i] - grand)
		for _, z := range zs {
			within += (z - means[i]) * (z - means[i])
		}
	}
	if within == 0 {
		return 0, 1
	}

	df1, df2 := float64(k-1), float64(total-k)
	f = (df2 / df1) * between / within
	return f, distributions.FTestPValue(f, df1, df2)
}
