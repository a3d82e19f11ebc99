package diagnostics

import (
	"gonum.org/v1/gonum/stat"

	"studygate/internal/distributions"
)

const maxLjungBoxLag = 10

// LjungBoxLags picks the number of lags for a series of length n
func LjungBoxLags(n int) int {
	h := n / 5
	if h > maxLjungBoxLag {
		h = maxLjungBoxLag
	}
	if h < 1 {
		h = 1
	}
	return h
}

// LjungBox tests a series for autocorrelation up to lag h. A series
// without variation gives Q = 0, p = 1.
func LjungBox(series []float64, h int) (q, p float64) {
	n := len(series)
	if h < 1 || n <= h+1 {
		return 0, 1
	}

	mean := stat.Mean(series, nil)
	var denom float64
	for _, v := range series {
		denom += (v - mean) * (v - mean)
	}
	if denom == 0 {
		return 0, 1
	}

	fn := float64(n)
	for k := 1; k <= h; k++ {
		var num float64
		for t := k; t < n; t++ {
			num += (series[t] - mean) * (series[t-k] - mean)
		}
		r := num / denom
		q += r * r / (fn - float64(k))
	}
	q *= fn * (fn + 2)
	return q, distributions.ChiSquarePValue(q, float64(h))
}

// residuals centres each group on its own mean and concatenates them
func residuals(groups ...[]float64) []float64 {
	var out []float64
	for _, g := range groups {
		m := stat.Mean(g, nil)
		for _, v := range g {
			out = append(out, v-m)
		}
	}
	return out
}
