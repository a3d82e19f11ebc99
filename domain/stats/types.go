package stats

import (
	"time"

	"studygate/domain/core"
)

// DataQualityMetrics is the aggregate quality snapshot attached to a sample.
// Every field is a percentage in [0, 100].
type DataQualityMetrics struct {
	Completeness           float64 `json:"completeness" yaml:"completeness" validate:"gte=0,lte=100"`
	Consistency            float64 `json:"consistency" yaml:"consistency" validate:"gte=0,lte=100"`
	Accuracy               float64 `json:"accuracy" yaml:"accuracy" validate:"gte=0,lte=100"`
	Validity               float64 `json:"validity" yaml:"validity" validate:"gte=0,lte=100"`
	Reliability            float64 `json:"reliability" yaml:"reliability" validate:"gte=0,lte=100"`
	OverallQuality         float64 `json:"overall_quality" yaml:"overall_quality" validate:"gte=0,lte=100"`
	OutlierPercentage      float64 `json:"outlier_percentage" yaml:"outlier_percentage" validate:"gte=0,lte=100"`
	MissingDataPercentage  float64 `json:"missing_data_percentage" yaml:"missing_data_percentage" validate:"gte=0,lte=100"`
	AttentionCheckPassRate float64 `json:"attention_check_pass_rate" yaml:"attention_check_pass_rate" validate:"gte=0,lte=100"`
}

// StatisticalSample is one analysis checkpoint: disjoint treatment and
// control observations plus their quality snapshot.
type StatisticalSample struct {
	Treatment []float64          `json:"treatment"`
	Control   []float64          `json:"control"`
	Metrics   DataQualityMetrics `json:"metrics"`
}

// TotalSize returns the combined group size
func (s StatisticalSample) TotalSize() int {
	return len(s.Treatment) + len(s.Control)
}

// AssumptionSeverity grades an assumption violation
type AssumptionSeverity string

const (
	AssumptionCritical  AssumptionSeverity = "critical"
	AssumptionImportant AssumptionSeverity = "important"
	AssumptionMinor     AssumptionSeverity = "minor"
)

// AssumptionCheck is the outcome of one diagnostic test
type AssumptionCheck struct {
	Name      string             `json:"name"`
	Group     string             `json:"group,omitempty"`
	Passed    bool               `json:"passed"`
	Statistic float64            `json:"statistic"`
	PValue    float64            `json:"p_value"`
	Severity  AssumptionSeverity `json:"severity"`
	Remedy    string             `json:"remedy,omitempty"`
}

// IssueSeverity grades a raw-data finding
type IssueSeverity string

const (
	IssueCritical IssueSeverity = "critical"
	IssueHigh     IssueSeverity = "high"
	IssueMedium   IssueSeverity = "medium"
)

// DataIssue is a finding from the raw numeric input gate
type DataIssue struct {
	Code     string        `json:"code"`
	Severity IssueSeverity `json:"severity"`
	Fatal    bool          `json:"fatal"`
	Message  string        `json:"message"`
}

// Magnitude labels the size of a standardized effect
type Magnitude string

const (
	MagnitudeNegligible Magnitude = "negligible"
	MagnitudeSmall      Magnitude = "small"
	MagnitudeMedium     Magnitude = "medium"
	MagnitudeLarge      Magnitude = "large"
	MagnitudeVeryLarge  Magnitude = "very large"
)

// EffectSizes collects every estimator computed from one pair of groups
type EffectSizes struct {
	CohensD       float64   `json:"cohens_d"`
	HedgesG       float64   `json:"hedges_g"`
	GlassDelta    float64   `json:"glass_delta"`
	CliffsDelta   float64   `json:"cliffs_delta"`
	PointBiserial float64   `json:"point_biserial"`
	EtaSquared    float64   `json:"eta_squared"`
	OmegaSquared  float64   `json:"omega_squared"`
	Magnitude     Magnitude `json:"magnitude"`
	Practical     bool      `json:"practical"`
}

// ConfidenceInterval is a percentile bootstrap interval
type ConfidenceInterval struct {
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Level      float64 `json:"level"`
	Iterations int     `json:"iterations"`
}

// Contains reports whether v lies inside the interval
func (ci ConfidenceInterval) Contains(v float64) bool {
	return v >= ci.Lower && v <= ci.Upper
}

// PowerPoint is one point of a power curve
type PowerPoint struct {
	SampleSize int     `json:"sample_size"`
	Power      float64 `json:"power"`
}

// PowerAnalysis describes observed and required power
type PowerAnalysis struct {
	CurrentPower            float64      `json:"current_power"`
	TargetPower             float64      `json:"target_power"`
	CurrentSampleSize       int          `json:"current_sample_size"`
	RequiredSampleSize      int          `json:"required_sample_size"`
	Alpha                   float64      `json:"alpha"`
	Beta                    float64      `json:"beta"`
	MinimumDetectableEffect float64      `json:"minimum_detectable_effect"`
	DetectableEffectAtN     float64      `json:"detectable_effect_at_n"`
	Curve                   []PowerPoint `json:"curve,omitempty"`
}

// EvidenceStrength is the Bayes-factor evidence band
type EvidenceStrength string

const (
	EvidenceDecisive     EvidenceStrength = "decisive"
	EvidenceVeryStrong   EvidenceStrength = "very_strong"
	EvidenceStrong       EvidenceStrength = "strong"
	EvidenceModerate     EvidenceStrength = "moderate"
	EvidenceWeak         EvidenceStrength = "weak"
	EvidenceInconclusive EvidenceStrength = "inconclusive"
)

// BayesianEvidence supplements the frequentist test
type BayesianEvidence struct {
	BayesFactor10 float64          `json:"bayes_factor_10"`
	PosteriorH1   float64          `json:"posterior_h1"`
	Strength      EvidenceStrength `json:"strength"`
}

// Recommendation is the stopping-rule outcome
type Recommendation string

const (
	RecommendContinue       Recommendation = "continue"
	RecommendStopSuccess    Recommendation = "stop_success"
	RecommendStopFutility   Recommendation = "stop_futility"
	RecommendIncreaseSample Recommendation = "increase_sample"
)

// TTestResult is the primary hypothesis test outcome
type TTestResult struct {
	Statistic        float64 `json:"statistic"`
	DegreesOfFreedom float64 `json:"degrees_of_freedom"`
	PValue           float64 `json:"p_value"`
	MeanDifference   float64 `json:"mean_difference"`
	StandardError    float64 `json:"standard_error"`
}

// StatisticalResult is the immutable outcome of one analysis checkpoint
type StatisticalResult struct {
	ID                 core.AnalysisID    `json:"id"`
	Sequence           int64              `json:"sequence"`
	TestStatistic      float64            `json:"test_statistic"`
	DegreesOfFreedom   float64            `json:"degrees_of_freedom"`
	PValue             float64            `json:"p_value"`
	EffectSize         float64            `json:"effect_size"`
	EffectSizes        EffectSizes        `json:"effect_sizes"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	Power              PowerAnalysis      `json:"power_analysis"`
	Bayesian           BayesianEvidence   `json:"bayesian"`
	Assumptions        []AssumptionCheck  `json:"assumptions"`
	DataIssues         []DataIssue        `json:"data_issues,omitempty"`
	Interpretation     string             `json:"interpretation"`
	Recommendation     Recommendation     `json:"recommendation"`
	CreatedAt          time.Time          `json:"created_at"`
}
