package validation

import (
	"reflect"
	"time"

	"studygate/domain/core"
	"studygate/domain/observation"
)

// Severity ranks how serious a finding is. Higher values are worse.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	case SeverityLow:
		return "low"
	default:
		return "info"
	}
}

// MarshalText renders the severity by name
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Impact classifies a warning for score weighting
type Impact string

const (
	ImpactCompliance  Impact = "compliance"
	ImpactStatistical Impact = "statistical"
	ImpactQuality     Impact = "quality"
	ImpactPerformance Impact = "performance"
)

// Code is a machine-readable finding identifier
type Code string

const (
	// schema
	CodeRequiredFieldMissing Code = "REQUIRED_FIELD_MISSING"
	CodeInvalidFieldType     Code = "INVALID_FIELD_TYPE"
	CodeInvalidEnumValue     Code = "INVALID_ENUM_VALUE"
	CodeFieldOutOfRange      Code = "FIELD_OUT_OF_RANGE"

	// system integrity
	CodeSystemClockDrift     Code = "SYSTEM_CLOCK_DRIFT"
	CodeResourcePressureHigh Code = "RESOURCE_PRESSURE_HIGH"

	// business rules
	CodeInsufficientAttention   Code = "INSUFFICIENT_ATTENTION_DURATION"
	CodeExcessiveDuration       Code = "EXCESSIVE_DURATION"
	CodeLowQualityScore         Code = "LOW_QUALITY_SCORE"
	CodeAttentionCheckFailed    Code = "ATTENTION_CHECK_FAILED"
	CodeInvalidClickCoordinates Code = "INVALID_CLICK_COORDINATES"

	// statistical
	CodeStatisticalOutlier      Code = "STATISTICAL_OUTLIER_DETECTED"
	CodeQualityPatternDeviation Code = "QUALITY_PATTERN_DEVIATION"

	// ethics
	CodeConsentNotVerified        Code = "CONSENT_NOT_VERIFIED"
	CodeDataMinimizationViolation Code = "DATA_MINIMIZATION_VIOLATION"
	CodeExcessiveBurden           Code = "EXCESSIVE_PARTICIPANT_BURDEN"

	// integrity / security
	CodeIntegrityCheckFailed      Code = "INTEGRITY_CHECK_FAILED"
	CodeDuplicateObservation      Code = "DUPLICATE_OBSERVATION"
	CodeSensitiveDataNotEncrypted Code = "SENSITIVE_DATA_NOT_ENCRYPTED"

	// temporal
	CodeTemporalOrderViolation    Code = "TEMPORAL_ORDER_VIOLATION"
	CodeRelativeTimestampMismatch Code = "RELATIVE_TIMESTAMP_MISMATCH"
	CodeFutureTimestamp           Code = "FUTURE_TIMESTAMP"

	// cross reference
	CodeSessionIDMismatch         Code = "SESSION_ID_MISMATCH"
	CodeSubjectIDMismatch         Code = "SUBJECT_ID_MISMATCH"
	CodeCategorySequenceViolation Code = "CATEGORY_SEQUENCE_VIOLATION"

	// framework
	CodePerformanceBudgetExceeded Code = "PERFORMANCE_BUDGET_EXCEEDED"
	CodeFrameworkError            Code = "VALIDATION_FRAMEWORK_ERROR"
)

// EmergencyCodes escalate the subject to the compliance layer
var EmergencyCodes = map[Code]bool{
	CodeSystemClockDrift:          true,
	CodeIntegrityCheckFailed:      true,
	CodeConsentNotVerified:        true,
	CodeSensitiveDataNotEncrypted: true,
}

// Issue is a single error or warning
type Issue struct {
	Code     Code           `json:"code"`
	Field    string         `json:"field,omitempty"`
	Message  string         `json:"message"`
	Severity Severity       `json:"severity"`
	Impact   Impact         `json:"impact,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}

// Result is the immutable outcome of validating one observation
type Result struct {
	ID                 core.ResultID      `json:"id"`
	ObservationID      core.ObservationID `json:"observation_id"`
	SubjectID          core.SubjectID     `json:"subject_id"`
	IsValid            bool               `json:"is_valid"`
	Severity           Severity           `json:"severity"`
	Score              float64            `json:"validation_score"`
	Errors             []Issue            `json:"errors"`
	Warnings           []Issue            `json:"warnings"`
	QuarantineRequired bool               `json:"quarantine_required"`
	IntegrityHash      core.Hash          `json:"integrity_hash,omitempty"`
	QualityScore       *float64           `json:"quality_score,omitempty"`
	ValidatedAt        time.Time          `json:"validated_at"`
	Duration           time.Duration      `json:"duration"`
}

// HasCode reports whether any error or warning carries code
func (r Result) HasCode(code Code) bool {
	return r.CountCode(code) > 0
}

// CountCode counts errors and warnings carrying code
func (r Result) CountCode(code Code) int {
	n := 0
	for _, e := range r.Errors {
		if e.Code == code {
			n++
		}
	}
	for _, w := range r.Warnings {
		if w.Code == code {
			n++
		}
	}
	return n
}

// CountSeverity counts errors at exactly severity s
func (r Result) CountSeverity(s Severity) int {
	n := 0
	for _, e := range r.Errors {
		if e.Severity == s {
			n++
		}
	}
	return n
}

// Equivalent compares result content, ignoring the result id and
// validation-time metadata.
func (r Result) Equivalent(other Result) bool {
	a, b := r, other
	a.ID, b.ID = "", ""
	a.ValidatedAt, b.ValidatedAt = time.Time{}, time.Time{}
	a.Duration, b.Duration = 0, 0
	return reflect.DeepEqual(a, b)
}

// BaselineKey selects a reference distribution
type BaselineKey struct {
	Category observation.Category
	Kind     observation.EventKind
}

// Baseline is the reference mean and standard deviation of duration (ms)
// for one category and event kind.
type Baseline struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// ZScore returns how many standard deviations value lies from the mean
func (b Baseline) ZScore(value float64) float64 {
	if b.StdDev <= 0 {
		return 0
	}
	return (value - b.Mean) / b.StdDev
}

// Snapshot aggregates validator activity for the reporting layer
type Snapshot struct {
	TotalValidations int64   `json:"total_validations"`
	AverageScore     float64 `json:"average_score"`
	CriticalErrors   int64   `json:"critical_errors"`
	Quarantined      int64   `json:"quarantined"`
	QuarantineRate   float64 `json:"quarantine_rate"`
	EmergencyFlags   int     `json:"emergency_flags"`
}
