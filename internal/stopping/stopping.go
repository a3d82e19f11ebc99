// Package stopping turns one analysis checkpoint into a recommendation on
// whether the study should continue.
package stopping

import (
	"math"

	"studygate/domain/stats"
)

// Inputs are the only values a decision depends on
type Inputs struct {
	PValue        float64
	EffectSize    float64
	ObservedPower float64
	Evidence      stats.EvidenceStrength
}

// Rules holds the thresholds of each rule
type Rules struct {
	Alpha         float64
	MinimumEffect float64

	SuccessMinPower float64

	FutilityMinPower  float64
	FutilityMaxEffect float64

	IncreaseMaxP      float64
	IncreaseMaxPower  float64
	IncreaseMinEffect float64
}

// DefaultRules uses the given significance level and minimum effect with
// the fixed power and effect bounds.
func DefaultRules(alpha, minimumEffect float64) Rules {
	return Rules{
		Alpha:             alpha,
		MinimumEffect:     minimumEffect,
		SuccessMinPower:   0.80,
		FutilityMinPower:  0.90,
		FutilityMaxEffect: 0.10,
		IncreaseMaxP:      0.10,
		IncreaseMaxPower:  0.70,
		IncreaseMinEffect: 0.20,
	}
}

// Decide applies the rules in priority order: success, futility, increase
// sample, and otherwise continue.
func Decide(in Inputs, r Rules) stats.Recommendation {
	effect := math.Abs(in.EffectSize)
	conclusive := in.Evidence != stats.EvidenceInconclusive

	switch {
	case in.PValue < r.Alpha && effect >= r.MinimumEffect && in.ObservedPower > r.SuccessMinPower && conclusive:
		return stats.RecommendStopSuccess
	case in.ObservedPower > r.FutilityMinPower && effect < r.FutilityMaxEffect && !conclusive:
		return stats.RecommendStopFutility
	case in.PValue < r.IncreaseMaxP && in.ObservedPower < r.IncreaseMaxPower && effect > r.IncreaseMinEffect:
		return stats.RecommendIncreaseSample
	default:
		return stats.RecommendContinue
	}
}
