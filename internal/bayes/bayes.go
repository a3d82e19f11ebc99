// Package bayes supplements the t-test with a BIC-approximated Bayes
// factor and its evidence band.
package bayes

import (
	"math"

	"studygate/domain/stats"
)

// maxLogBF keeps exp from overflowing
const maxLogBF = 700

// FromTTest converts a t statistic with df degrees of freedom over a total
// sample of n into BF10, the posterior probability of H1 under equal prior
// odds, and the evidence strength.
func FromTTest(t, df float64, n int) stats.BayesianEvidence {
	if n < 2 || df <= 0 || math.IsNaN(t) {
		return stats.BayesianEvidence{BayesFactor10: 1, PosteriorH1: 0.5, Strength: stats.EvidenceInconclusive}
	}
	logBF := float64(n)/2*math.Log1p(t*t/df) - 0.5*math.Log(float64(n))
	if logBF > maxLogBF {
		logBF = maxLogBF
	}
	bf := math.Exp(logBF)
	return stats.BayesianEvidence{
		BayesFactor10: bf,
		PosteriorH1:   1 / (1 + math.Exp(-logBF)),
		Strength:      Strength(bf),
	}
}

// Strength bands a Bayes factor
func Strength(bf float64) stats.EvidenceStrength {
	switch {
	case bf > 100:
		return stats.EvidenceDecisive
	case bf > 30:
		return stats.EvidenceVeryStrong
	case bf > 10:
		return stats.EvidenceStrong
	case bf > 3:
		return stats.EvidenceModerate
	case bf > 1:
		return stats.EvidenceWeak
	default:
		return stats.EvidenceInconclusive
	}
}
