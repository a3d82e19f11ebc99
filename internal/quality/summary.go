package quality

import (
	"studygate/domain/stats"
	"studygate/domain/validation"
)

var consistencyCodes = []validation.Code{
	validation.CodeTemporalOrderViolation,
	validation.CodeRelativeTimestampMismatch,
	validation.CodeFutureTimestamp,
	validation.CodeSessionIDMismatch,
	validation.CodeSubjectIDMismatch,
	validation.CodeCategorySequenceViolation,
	validation.CodeQualityPatternDeviation,
}

// Summarize derives the aggregate quality metrics of a batch of validation
// results. An empty batch yields all-zero metrics, which no gate accepts.
func Summarize(results []validation.Result) stats.DataQualityMetrics {
	if len(results) == 0 {
		return stats.DataQualityMetrics{}
	}

	var complete, consistent, valid, kept, outliers, attentive int
	var scoreSum float64
	for _, r := range results {
		scoreSum += r.Score
		if !r.HasCode(validation.CodeRequiredFieldMissing) && !r.HasCode(validation.CodeInvalidFieldType) {
			complete++
		}
		if !hasAny(r, consistencyCodes) {
			consistent++
		}
		if r.IsValid {
			valid++
		}
		if !r.QuarantineRequired {
			kept++
		}
		if r.HasCode(validation.CodeStatisticalOutlier) {
			outliers++
		}
		if !r.HasCode(validation.CodeAttentionCheckFailed) && !r.HasCode(validation.CodeInsufficientAttention) {
			attentive++
		}
	}

	n := float64(len(results))
	pct := func(k int) float64 { return 100 * float64(k) / n }
	m := stats.DataQualityMetrics{
		Completeness:           pct(complete),
		Consistency:            pct(consistent),
		Accuracy:               scoreSum / n,
		Validity:               pct(valid),
		Reliability:            pct(kept),
		OutlierPercentage:      pct(outliers),
		MissingDataPercentage:  100 - pct(complete),
		AttentionCheckPassRate: pct(attentive),
	}
	m.OverallQuality = (m.Completeness + m.Consistency + m.Accuracy + m.Validity + m.Reliability) / 5
	return m
}

func hasAny(r validation.Result, codes []validation.Code) bool {
	for _, c := range codes {
		if r.HasCode(c) {
			return true
		}
	}
	return false
}
