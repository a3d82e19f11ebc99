package diagnostics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"studygate/internal/distributions"
)

const (
	minShapiroWilk = 3
	maxShapiroWilk = 5000
	minDAgostino   = 8
)

var (
	swAnCoeffs  = []float64{0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	swAn1Coeffs = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
)

// ShapiroWilk returns the W statistic and its p-value using Royston's
// approximation. Samples outside 3..5000 or without spread return W = 1,
// p = 1.
func ShapiroWilk(sample []float64) (w, p float64) {
	n := len(sample)
	if n < minShapiroWilk || n > maxShapiroWilk {
		return 1, 1
	}
	x := append([]float64(nil), sample...)
	sort.Float64s(x)

	mean := stat.Mean(x, nil)
	var ss float64
	for _, v := range x {
		ss += (v - mean) * (v - mean)
	}
	if ss == 0 {
		return 1, 1
	}

	a := swCoefficients(n)
	var num float64
	for i, v := range x {
		num += a[i] * v
	}
	w = math.Min(num*num/ss, 1)
	return w, swPValue(w, n)
}

func swCoefficients(n int) []float64 {
	a := make([]float64, n)
	if n == 3 {
		a[0], a[2] = -math.Sqrt(0.5), math.Sqrt(0.5)
		return a
	}

	m := make([]float64, n)
	var mm float64
	for i := range m {
		m[i] = distributions.NormalQuantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
		mm += m[i] * m[i]
	}
	u := 1 / math.Sqrt(float64(n))
	an := m[n-1]/math.Sqrt(mm) + poly(swAnCoeffs, u)

	if n <= 5 {
		phi := (mm - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)
		for i := range a {
			a[i] = m[i] / math.Sqrt(phi)
		}
		a[0], a[n-1] = -an, an
		return a
	}

	an1 := m[n-2]/math.Sqrt(mm) + poly(swAn1Coeffs, u)
	phi := (mm - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) / (1 - 2*an*an - 2*an1*an1)
	for i := range a {
		a[i] = m[i] / math.Sqrt(phi)
	}
	a[0], a[1], a[n-2], a[n-1] = -an, -an1, an1, an
	return a
}

func swPValue(w float64, n int) float64 {
	if n == 3 {
		w = math.Max(w, 0.75)
		return clamp(6 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Pi/3))
	}
	if w >= 1 {
		return 1
	}

	y := math.Log(1 - w)
	fn := float64(n)
	var mu, sigma float64
	if n <= 11 {
		gamma := 0.459*fn - 2.273
		if y >= gamma {
			return 0
		}
		y = -math.Log(gamma - y)
		mu = 0.5440 - 0.39978*fn + 0.025054*fn*fn - 0.0006714*fn*fn*fn
		sigma = math.Exp(1.3822 - 0.77857*fn + 0.062767*fn*fn - 0.0020322*fn*fn*fn)
	} else {
		l := math.Log(fn)
		mu = -1.5861 - 0.31082*l - 0.083751*l*l + 0.0038915*l*l*l
		sigma = math.Exp(-0.4803 - 0.082676*l + 0.0030302*l*l)
	}
	return distributions.NormalSurvival((y - mu) / sigma)
}

// DAgostinoK2 is the omnibus skewness and kurtosis test. It needs at
// least 8 observations; smaller or constant samples return K2 = 0, p = 1.
func DAgostinoK2(sample []float64) (k2, p float64) {
	n := len(sample)
	if n < minDAgostino {
		return 0, 1
	}
	fn := float64(n)

	mean := stat.Mean(sample, nil)
	var m2, m3, m4 float64
	for _, v := range sample {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
		m4 += d * d * d * d
	}
	m2, m3, m4 = m2/fn, m3/fn, m4/fn
	if m2 == 0 {
		return 0, 1
	}
	g1 := m3 / math.Pow(m2, 1.5)
	b2 := m4 / (m2 * m2)

	// skewness
	y := g1 * math.Sqrt((fn+1)*(fn+3)/(6*(fn-2)))
	beta2 := 3 * (fn*fn + 27*fn - 70) * (fn + 1) * (fn + 3) / ((fn - 2) * (fn + 5) * (fn + 7) * (fn + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(math.Log(math.Sqrt(w2)))
	alpha := math.Sqrt(2 / (w2 - 1))
	z1 := delta * math.Asinh(y/alpha)

	// kurtosis
	e := 3 * (fn - 1) / (fn + 1)
	variance := 24 * fn * (fn - 2) * (fn - 3) / ((fn + 1) * (fn + 1) * (fn + 3) * (fn + 5))
	x := (b2 - e) / math.Sqrt(variance)
	sqrtBeta1 := 6 * (fn*fn - 5*fn + 2) / ((fn + 7) * (fn + 9)) * math.Sqrt(6*(fn+3)*(fn+5)/(fn*(fn-2)*(fn-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))
	t := (1 - 2/a) / (1 + x*math.Sqrt(2/(a-4)))
	z2 := ((1 - 2/(9*a)) - math.Cbrt(t)) / math.Sqrt(2/(9*a))

	k2 = z1*z1 + z2*z2
	return k2, distributions.ChiSquarePValue(k2, 2)
}

func poly(coeffs []float64, x float64) float64 {
	var sum, pow float64 = 0, 1
	for _, c := range coeffs {
		sum += c * pow
		pow *= x
	}
	return sum
}

func clamp(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}
