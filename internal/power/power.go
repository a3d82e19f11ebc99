// Package power computes two-sample t-test power from the noncentral t
// distribution, and inverts it for sample size and detectable effect.
package power

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"

	"studygate/domain/stats"
	"studygate/internal/distributions"
)

const (
	// integration range over the standard normal component
	normalSpan = 10.0
	quadNodes  = 256

	maxDetectableEffect = 10.0
	curvePoints         = 12
)

// Params are the settings shared by every power computation
type Params struct {
	Alpha             float64
	TargetPower       float64
	MinimumDetectable float64
	MaxSampleSize     int
}

// TwoSample returns the power of a two-tailed two-sample t-test with
// group sizes n1 and n2 against a true standardized effect d.
//
// With T = (Z + δ) / sqrt(V/df), the rejection event |T| > c is
// V < df (Z+δ)²/c², so power = E_Z[F_χ²(df (Z+δ)²/c²)].
func TwoSample(d float64, n1, n2 int, alpha float64) float64 {
	if n1 < 2 || n2 < 2 || alpha <= 0 || alpha >= 1 {
		return 0
	}
	df := float64(n1 + n2 - 2)
	delta := math.Abs(d) * math.Sqrt(float64(n1)*float64(n2)/float64(n1+n2))
	c := distributions.TQuantile(1-alpha/2, df)
	chi := distuv.ChiSquared{K: df}

	f := func(z float64) float64 {
		shifted := z + delta
		return distuv.UnitNormal.Prob(z) * chi.CDF(df*shifted*shifted/(c*c))
	}
	p := quad.Fixed(f, -normalSpan, normalSpan, quadNodes, nil, 0)
	return clamp(p)
}

// Observed is the power at the current sample for the observed effect
func Observed(d float64, n1, n2 int, alpha float64) float64 {
	return TwoSample(d, n1, n2, alpha)
}

// RequiredTotalSampleSize is the smallest total sample, split evenly
// between two groups, that reaches target power for effect d. The search
// is capped at maxTotal; ok is false when the cap is not enough.
func RequiredTotalSampleSize(d, alpha, target float64, maxTotal int) (total int, ok bool) {
	maxPerGroup := maxTotal / 2
	if maxPerGroup < 2 {
		return maxTotal, false
	}
	reaches := func(n int) bool { return TwoSample(d, n, n, alpha) >= target }

	lo, hi := 2, 2
	for !reaches(hi) {
		if hi >= maxPerGroup {
			return maxTotal, false
		}
		lo = hi
		hi *= 2
		if hi > maxPerGroup {
			hi = maxPerGroup
		}
	}
	if lo == hi {
		return 2 * hi, true
	}
	// invariant: !reaches(lo) && reaches(hi)
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if reaches(mid) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return 2 * hi, true
}

// DetectableEffect is the smallest |d| detectable with the target power
// at the given group sizes, searched over (0, 10]. Samples too small to
// reach the target even at 10 report 10.
func DetectableEffect(n1, n2 int, alpha, target float64) float64 {
	if TwoSample(maxDetectableEffect, n1, n2, alpha) < target {
		return maxDetectableEffect
	}
	lo, hi := 0.0, maxDetectableEffect
	for i := 0; i < 60 && hi-lo > 1e-6; i++ {
		mid := (lo + hi) / 2
		if TwoSample(mid, n1, n2, alpha) >= target {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi
}

// Curve evaluates power at each total sample size, split evenly
func Curve(d, alpha float64, totals []int) []stats.PowerPoint {
	points := make([]stats.PowerPoint, 0, len(totals))
	for _, total := range totals {
		n := total / 2
		points = append(points, stats.PowerPoint{SampleSize: total, Power: TwoSample(d, n, n, alpha)})
	}
	return points
}

// CurveSizes spreads evenly spaced even totals from 4 up to upTo
func CurveSizes(upTo int) []int {
	if upTo < 4 {
		upTo = 4
	}
	step := (upTo - 4) / (curvePoints - 1)
	if step < 2 {
		step = 2
	}
	step += step % 2

	var sizes []int
	for n := 4; n < upTo; n += step {
		sizes = append(sizes, n)
	}
	return append(sizes, upTo+upTo%2)
}

// Analyze assembles the power record for an observed effect d at group
// sizes n1 and n2.
func Analyze(d float64, n1, n2 int, p Params) stats.PowerAnalysis {
	current := Observed(d, n1, n2, p.Alpha)
	required, _ := RequiredTotalSampleSize(p.MinimumDetectable, p.Alpha, p.TargetPower, p.MaxSampleSize)

	upTo := required
	if n1+n2 > upTo {
		upTo = n1 + n2
	}
	return stats.PowerAnalysis{
		CurrentPower:            current,
		TargetPower:             p.TargetPower,
		CurrentSampleSize:       n1 + n2,
		RequiredSampleSize:      required,
		Alpha:                   p.Alpha,
		Beta:                    1 - p.TargetPower,
		MinimumDetectableEffect: p.MinimumDetectable,
		DetectableEffectAtN:     DetectableEffect(n1, n2, p.Alpha, p.TargetPower),
		Curve:                   Curve(p.MinimumDetectable, p.Alpha, CurveSizes(upTo)),
	}
}

func clamp(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
