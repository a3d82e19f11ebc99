package analysis

import (
	"fmt"
	"strings"

	"studygate/domain/stats"
	"studygate/internal/diagnostics"
)

// Interpret renders a plain-language summary of a result for the
// reporting layer.
func Interpret(r *stats.StatisticalResult, alpha float64) string {
	var b strings.Builder

	verdict := "not significant"
	if r.PValue < alpha {
		verdict = "significant"
	}
	fmt.Fprintf(&b, "Welch t(%.2f) = %.2f, %s (%s at alpha %.2f). ",
		r.DegreesOfFreedom, r.TestStatistic, formatP(r.PValue), verdict, alpha)

	practical := "below"
	if r.EffectSizes.Practical {
		practical = "at or above"
	}
	fmt.Fprintf(&b, "Cohen's d = %.2f (%s, %s the practical threshold), %.0f%% CI [%.2f, %.2f]. ",
		r.EffectSize, r.EffectSizes.Magnitude, practical,
		r.ConfidenceInterval.Level*100, r.ConfidenceInterval.Lower, r.ConfidenceInterval.Upper)

	fmt.Fprintf(&b, "Observed power %.2f at n = %d; n = %d needed for %.0f%% power at d = %.2f. ",
		r.Power.CurrentPower, r.Power.CurrentSampleSize, r.Power.RequiredSampleSize,
		r.Power.TargetPower*100, r.Power.MinimumDetectableEffect)

	fmt.Fprintf(&b, "BF10 = %.3g (%s evidence). ", r.Bayesian.BayesFactor10, r.Bayesian.Strength)

	if violations := diagnostics.Violations(r.Assumptions); len(violations) > 0 {
		names := make([]string, len(violations))
		for i, v := range violations {
			names[i] = v.Name
			if v.Group != "" {
				names[i] += " (" + v.Group + ")"
			}
		}
		fmt.Fprintf(&b, "Assumption violations: %s. ", strings.Join(names, ", "))
	}

	fmt.Fprintf(&b, "Recommendation: %s.", r.Recommendation)
	return b.String()
}

func formatP(p float64) string {
	if p < 0.001 {
		return "p < 0.001"
	}
	return fmt.Sprintf("p = %.3f", p)
}
