package validator

import (
	"fmt"
	"math"
	"time"

	"studygate/domain/core"
	"studygate/domain/observation"
	"studygate/domain/validation"
)

// Thresholds applied by the layers
const (
	MaxClockDrift         = 5 * time.Second
	MaxFutureSkew         = time.Second
	ResourcePressureLimit = 0.9

	MinDurationMS      = 500.0
	MaxDurationMS      = 30000.0
	MinQualityScore    = 95.0
	ScreenMaxX         = 7680.0
	ScreenMaxY         = 4320.0
	OutlierZ           = 3.0
	SevereOutlierZ     = 5.0
	QualityDeviation   = 20.0
	MaxSessionDuration = 30 * time.Minute

	RelativeToleranceMicros = 1000
)

// input is everything a layer may look at for one call
type input struct {
	obs        *observation.Observation
	vctx       observation.Context
	now        time.Time
	typeIssues []observation.FieldIssue
	hash       core.Hash
	hashErr    error
}

type findings struct {
	errors   []validation.Issue
	warnings []validation.Issue
}

func (f *findings) fail(code validation.Code, field string, sev validation.Severity, msg string, ctx map[string]any) {
	f.errors = append(f.errors, validation.Issue{Code: code, Field: field, Message: msg, Severity: sev, Context: ctx})
}

func (f *findings) warn(code validation.Code, field string, impact validation.Impact, msg string, ctx map[string]any) {
	f.warnings = append(f.warnings, validation.Issue{Code: code, Field: field, Message: msg, Severity: validation.SeverityInfo, Impact: impact, Context: ctx})
}

type layer struct {
	name string
	run  func(in *input) findings
}

func (v *Validator) layers() []layer {
	return []layer{
		{"system_integrity", v.systemIntegrity},
		{"schema", v.schema},
		{"business_rules", v.businessRules},
		{"statistical_anomaly", v.statisticalAnomaly},
		{"ethics", v.ethics},
		{"integrity_security", v.integritySecurity},
		{"temporal", v.temporal},
		{"cross_reference", v.crossReference},
	}
}

func (v *Validator) systemIntegrity(in *input) findings {
	var f findings
	if in.obs.Timestamp != 0 {
		drift := core.AbsDuration(in.now, in.obs.Time())
		if drift > MaxClockDrift {
			f.fail(validation.CodeSystemClockDrift, "timestamp", validation.SeverityCritical,
				fmt.Sprintf("observation timestamp is %s away from the system clock", drift.Round(time.Millisecond)),
				map[string]any{"drift_ms": drift.Milliseconds(), "limit_ms": MaxClockDrift.Milliseconds()})
		}
	}
	if v.resourceProbe != nil {
		if load := v.resourceProbe(); load > ResourcePressureLimit {
			f.warn(validation.CodeResourcePressureHigh, "", validation.ImpactPerformance,
				"validator host is under resource pressure",
				map[string]any{"load": load, "limit": ResourcePressureLimit})
		}
	}
	return f
}

type numericRange struct {
	field  string
	value  *float64
	lo, hi float64
}

func (v *Validator) schema(in *input) findings {
	var f findings
	obs := in.obs

	for _, ti := range in.typeIssues {
		f.fail(validation.CodeInvalidFieldType, ti.Field, validation.SeverityHigh,
			fmt.Sprintf("%s must be a %s", ti.Field, ti.Expected),
			map[string]any{"expected": ti.Expected, "actual": ti.Actual})
	}

	required := []struct {
		field   string
		missing bool
	}{
		{"id", obs.ID.IsEmpty()},
		{"subject_id", obs.SubjectID.IsEmpty()},
		{"session_id", obs.SessionID.IsEmpty()},
		{"timestamp", obs.Timestamp == 0},
		{"event_kind", obs.Kind == ""},
		{"category", obs.Category == ""},
	}
	for _, r := range required {
		if r.missing {
			f.fail(validation.CodeRequiredFieldMissing, r.field, validation.SeverityCritical,
				fmt.Sprintf("required field %s is missing", r.field), nil)
		}
	}

	if obs.Category != "" && !obs.Category.Valid() {
		f.fail(validation.CodeInvalidEnumValue, "category", validation.SeverityHigh,
			fmt.Sprintf("unknown category %q", obs.Category),
			map[string]any{"allowed": observation.Categories, "actual": string(obs.Category)})
	}
	if obs.Kind != "" && !obs.Kind.Valid() {
		f.fail(validation.CodeInvalidEnumValue, "event_kind", validation.SeverityHigh,
			fmt.Sprintf("unknown event kind %q", obs.Kind),
			map[string]any{"allowed": observation.EventKinds, "actual": string(obs.Kind)})
	}

	m := obs.Measurements
	ranges := []numericRange{
		{"measurements.duration_ms", m.DurationMS, 0, math.MaxFloat64},
		{"measurements.quality_score", m.QualityScore, 0, 100},
		{"measurements.cognitive_load", m.CognitiveLoad, 1, 10},
		{"measurements.scroll_depth", m.ScrollDepth, 0, 100},
	}
	for _, r := range ranges {
		if r.value == nil {
			continue
		}
		if val := *r.value; !(val >= r.lo && val <= r.hi) {
			f.fail(validation.CodeFieldOutOfRange, r.field, validation.SeverityHigh,
				fmt.Sprintf("%s must lie in [%g, %g]", r.field, r.lo, r.hi),
				map[string]any{"min": r.lo, "max": r.hi, "actual": val})
		}
	}
	if obs.RelativeTimestamp != nil && *obs.RelativeTimestamp < 0 {
		f.fail(validation.CodeFieldOutOfRange, "relative_timestamp", validation.SeverityHigh,
			"relative_timestamp must not be negative",
			map[string]any{"min": 0, "actual": *obs.RelativeTimestamp})
	}
	return f
}

func (v *Validator) businessRules(in *input) findings {
	var f findings
	m := in.obs.Measurements

	if m.DurationMS != nil {
		switch d := *m.DurationMS; {
		case d < MinDurationMS:
			f.fail(validation.CodeInsufficientAttention, "measurements.duration_ms", validation.SeverityHigh,
				"interaction was too short to reflect attention",
				map[string]any{"min_ms": MinDurationMS, "actual": d})
		case d > MaxDurationMS:
			f.warn(validation.CodeExcessiveDuration, "measurements.duration_ms", validation.ImpactQuality,
				"interaction lasted longer than expected",
				map[string]any{"max_ms": MaxDurationMS, "actual": d})
		}
	}
	if m.QualityScore != nil && *m.QualityScore < MinQualityScore {
		f.fail(validation.CodeLowQualityScore, "measurements.quality_score", validation.SeverityHigh,
			"quality score is below research standard",
			map[string]any{"min": MinQualityScore, "actual": *m.QualityScore})
	}
	if m.AttentionCheckPassed != nil && !*m.AttentionCheckPassed {
		f.fail(validation.CodeAttentionCheckFailed, "measurements.attention_check_passed", validation.SeverityHigh,
			"attention check failed", nil)
	}
	if outside(m.ClickX, 0, ScreenMaxX) || outside(m.ClickY, 0, ScreenMaxY) {
		ctx := map[string]any{"max_x": ScreenMaxX, "max_y": ScreenMaxY}
		if m.ClickX != nil {
			ctx["x"] = *m.ClickX
		}
		if m.ClickY != nil {
			ctx["y"] = *m.ClickY
		}
		f.fail(validation.CodeInvalidClickCoordinates, "measurements.click", validation.SeverityMedium,
			"click coordinates fall outside any supported screen", ctx)
	}
	return f
}

func outside(p *float64, lo, hi float64) bool {
	return p != nil && !(*p >= lo && *p <= hi)
}

func (v *Validator) statisticalAnomaly(in *input) findings {
	var f findings
	obs := in.obs

	if d := obs.Measurements.DurationMS; d != nil && obs.Category.Valid() && obs.Kind.Valid() && v.baselines != nil {
		if b, ok := v.baselines.Lookup(obs.Category, obs.Kind); ok && b.StdDev > 0 {
			z := b.ZScore(*d)
			if math.Abs(z) >= OutlierZ {
				sev := validation.SeverityMedium
				if math.Abs(z) > SevereOutlierZ {
					sev = validation.SeverityHigh
				}
				f.fail(validation.CodeStatisticalOutlier, "measurements.duration_ms", sev,
					fmt.Sprintf("duration is %.2f standard deviations from the %s/%s baseline", z, obs.Category, obs.Kind),
					map[string]any{"z_score": z, "baseline_mean": b.Mean, "baseline_std_dev": b.StdDev, "value": *d})
			}
		}
	}

	if q := obs.Measurements.QualityScore; q != nil && !obs.SubjectID.IsEmpty() {
		if avg, n, ok := v.rollingQuality(obs.SubjectID, obs.ID); ok {
			if dev := math.Abs(*q - avg); dev > QualityDeviation {
				f.warn(validation.CodeQualityPatternDeviation, "measurements.quality_score", validation.ImpactStatistical,
					"quality score departs from the subject's recent pattern",
					map[string]any{"rolling_average": avg, "window": n, "deviation": dev})
			}
		}
	}
	return f
}

// rollingQuality averages the quality score of the subject's most recent
// results, leaving out earlier validations of the same observation.
func (v *Validator) rollingQuality(subject core.SubjectID, self core.ObservationID) (float64, int, bool) {
	window := v.cfg.RollingWindow
	recent := v.history.Recent(subject, 2*window)

	var sum float64
	n := 0
	for i := len(recent) - 1; i >= 0 && n < window; i-- {
		r := recent[i]
		if r.QualityScore == nil || (!self.IsEmpty() && r.ObservationID == self) {
			continue
		}
		sum += *r.QualityScore
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return sum / float64(n), n, true
}

func (v *Validator) ethics(in *input) findings {
	var f findings
	if !in.vctx.ConsentVerified {
		f.fail(validation.CodeConsentNotVerified, "", validation.SeverityCritical,
			"subject consent has not been verified", nil)
	}
	if in.obs.Measurements.HasCoordinates() && in.obs.Kind != observation.KindInteraction {
		f.warn(validation.CodeDataMinimizationViolation, "measurements.click", validation.ImpactCompliance,
			fmt.Sprintf("click coordinates are not needed for %s events", in.obs.Kind), nil)
	}
	if in.vctx.SessionDuration > MaxSessionDuration {
		f.warn(validation.CodeExcessiveBurden, "", validation.ImpactCompliance,
			"session has exceeded the participant burden limit",
			map[string]any{"session_minutes": in.vctx.SessionDuration.Minutes(), "limit_minutes": MaxSessionDuration.Minutes()})
	}
	return f
}

func (v *Validator) integritySecurity(in *input) findings {
	var f findings
	obs := in.obs

	if !obs.Checksum.IsEmpty() {
		switch {
		case in.hashErr != nil:
			f.fail(validation.CodeIntegrityCheckFailed, "checksum", validation.SeverityCritical,
				"integrity hash could not be recomputed", map[string]any{"cause": in.hashErr.Error()})
		case !obs.Checksum.Equals(in.hash):
			f.fail(validation.CodeIntegrityCheckFailed, "checksum", validation.SeverityCritical,
				"carried checksum does not match the observation",
				map[string]any{"expected": in.hash.String(), "actual": obs.Checksum.String()})
		}
	}

	if !obs.ID.IsEmpty() && !obs.SubjectID.IsEmpty() && obs.Timestamp != 0 && obs.Kind != "" {
		if owner := v.fingerprints.Claim(obs.Fingerprint(), obs.ID); owner != obs.ID {
			f.fail(validation.CodeDuplicateObservation, "", validation.SeverityMedium,
				"an observation with the same subject, timestamp and kind was already recorded",
				map[string]any{"original_id": owner.String()})
		}
	}

	if obs.Measurements.HasCoordinates() && !(obs.Encrypted && obs.EncryptionKeyID != "") {
		f.fail(validation.CodeSensitiveDataNotEncrypted, "measurements.click", validation.SeverityCritical,
			"click coordinates were collected without encryption", nil)
	}
	return f
}

func (v *Validator) temporal(in *input) findings {
	var f findings
	obs := in.obs
	if obs.Timestamp == 0 {
		return f
	}

	if in.vctx.LastSeen != 0 && obs.Timestamp <= in.vctx.LastSeen {
		f.fail(validation.CodeTemporalOrderViolation, "timestamp", validation.SeverityHigh,
			"timestamp does not advance past the subject's last event",
			map[string]any{"last_seen": in.vctx.LastSeen, "actual": obs.Timestamp})
	}

	if obs.RelativeTimestamp != nil && in.vctx.SessionStart != 0 {
		expected := obs.Timestamp - in.vctx.SessionStart
		diff := *obs.RelativeTimestamp - expected
		if diff < 0 {
			diff = -diff
		}
		if diff > RelativeToleranceMicros {
			f.fail(validation.CodeRelativeTimestampMismatch, "relative_timestamp", validation.SeverityMedium,
				"relative timestamp disagrees with the session start",
				map[string]any{"expected": expected, "actual": *obs.RelativeTimestamp, "tolerance_us": RelativeToleranceMicros})
		}
	}

	if ahead := obs.Time().Sub(in.now); ahead > MaxFutureSkew {
		f.fail(validation.CodeFutureTimestamp, "timestamp", validation.SeverityHigh,
			"timestamp lies in the future",
			map[string]any{"ahead_ms": ahead.Milliseconds()})
	}
	return f
}

func (v *Validator) crossReference(in *input) findings {
	var f findings
	obs, vctx := in.obs, in.vctx

	if !vctx.ExpectedSessionID.IsEmpty() && obs.SessionID != vctx.ExpectedSessionID {
		f.fail(validation.CodeSessionIDMismatch, "session_id", validation.SeverityCritical,
			"session id does not match the active session",
			map[string]any{"expected": vctx.ExpectedSessionID.String(), "actual": obs.SessionID.String()})
	}
	if !vctx.ExpectedSubjectID.IsEmpty() && obs.SubjectID != vctx.ExpectedSubjectID {
		f.fail(validation.CodeSubjectIDMismatch, "subject_id", validation.SeverityCritical,
			"subject id does not match the active subject",
			map[string]any{"expected": vctx.ExpectedSubjectID.String(), "actual": obs.SubjectID.String()})
	}
	if want, ok := vctx.ExpectedCategory(); ok && obs.Category != want {
		f.fail(validation.CodeCategorySequenceViolation, "category", validation.SeverityHigh,
			"category is out of the scheduled order",
			map[string]any{"expected": string(want), "actual": string(obs.Category), "position": vctx.SequencePosition})
	}
	return f
}
