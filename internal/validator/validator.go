package validator

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"studygate/domain/core"
	"studygate/domain/observation"
	"studygate/domain/validation"
	"studygate/internal"
	"studygate/internal/config"
	"studygate/internal/ledger"
	"studygate/internal/metrics"
	"studygate/ports"
)

// ValidThreshold is the minimum score of a valid observation
const ValidThreshold = 99.5

// Score deductions
const (
	penaltyHigh   = 20.0
	penaltyMedium = 10.0
	penaltyLow    = 5.0
)

var warningWeights = map[validation.Impact]float64{
	validation.ImpactCompliance:  5,
	validation.ImpactStatistical: 3,
	validation.ImpactQuality:     2,
	validation.ImpactPerformance: 0.5,
}

// Validator screens observations before they enter the analysis dataset.
// It is safe for concurrent use.
type Validator struct {
	baselines     ports.BaselineProvider
	history       ports.HistoryPort
	flags         ports.EmergencyFlagPort
	fingerprints  ports.FingerprintPort
	clock         core.Clock
	logger        *internal.Logger
	resourceProbe func() float64
	cfg           config.ValidationConfig
	metrics       bool

	pipeline []layer

	mu    sync.Mutex
	stats counters
}

type counters struct {
	total          int64
	scoreSum       float64
	criticalErrors int64
	quarantined    int64
}

// Option configures a Validator
type Option func(*Validator)

// WithClock replaces the system clock
func WithClock(clock core.Clock) Option {
	return func(v *Validator) {
		if clock != nil {
			v.clock = clock
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *internal.Logger) Option {
	return func(v *Validator) { v.logger = logger }
}

// WithResourceProbe installs a host load probe returning a 0-1 utilisation
func WithResourceProbe(probe func() float64) Option {
	return func(v *Validator) { v.resourceProbe = probe }
}

// WithConfig overrides the validation settings
func WithConfig(cfg config.ValidationConfig) Option {
	return func(v *Validator) { v.cfg = cfg }
}

// WithFingerprints replaces the duplicate-detection index
func WithFingerprints(fp ports.FingerprintPort) Option {
	return func(v *Validator) {
		if fp != nil {
			v.fingerprints = fp
		}
	}
}

// WithMetrics toggles Prometheus instrumentation
func WithMetrics(enabled bool) Option {
	return func(v *Validator) { v.metrics = enabled }
}

// New creates a Validator. history and flags receive every result and
// every escalation.
func New(baselines ports.BaselineProvider, history ports.HistoryPort, flags ports.EmergencyFlagPort, opts ...Option) *Validator {
	v := &Validator{
		baselines:    baselines,
		history:      history,
		flags:        flags,
		fingerprints: ledger.NewFingerprints(),
		clock:        core.SystemClock,
		cfg:          config.Default().Validation,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.history == nil {
		v.history = ledger.NewHistory(v.cfg.HistoryCapacity)
	}
	if v.flags == nil {
		v.flags = ledger.NewEmergencyFlags()
	}
	if v.cfg.RollingWindow <= 0 {
		v.cfg.RollingWindow = 5
	}
	v.logger = internal.OrDefault(v.logger).With("component", "validator")
	v.pipeline = v.layers()
	return v
}

// Validate screens one observation. It never panics: internal faults and
// nil input come back as a critical, quarantined result.
func (v *Validator) Validate(obs *observation.Observation, vctx observation.Context) validation.Result {
	return v.validate(obs, vctx, nil)
}

// ValidatePayload decodes a loosely-typed payload and validates it. Fields
// of the wrong primitive type are reported rather than coerced.
func (v *Validator) ValidatePayload(payload map[string]any, vctx observation.Context) (result validation.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = v.frameworkFailure("", "", fmt.Errorf("decode panic: %v", r))
		}
	}()
	if payload == nil {
		return v.frameworkFailure("", "", fmt.Errorf("nil payload"))
	}
	obs, issues := observation.Decode(payload)
	return v.validate(obs, vctx, issues)
}

// Item pairs an observation with its validation context
type Item struct {
	Observation *observation.Observation
	Context     observation.Context
}

// ValidateBatch validates items concurrently and returns results in input
// order. It stops scheduling new work once ctx is done.
func (v *Validator) ValidateBatch(ctx context.Context, items []Item) ([]validation.Result, error) {
	results := make([]validation.Result, len(items))

	g, gctx := errgroup.WithContext(ctx)
	limit := v.cfg.BatchConcurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i := range items {
		if err := gctx.Err(); err != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = v.Validate(items[i].Observation, items[i].Context)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

func (v *Validator) validate(obs *observation.Observation, vctx observation.Context, typeIssues []observation.FieldIssue) (result validation.Result) {
	if obs == nil {
		return v.frameworkFailure("", "", fmt.Errorf("nil observation"))
	}

	defer func() {
		if r := recover(); r != nil {
			result = v.frameworkFailure(obs.ID, obs.SubjectID, fmt.Errorf("panic: %v", r))
		}
	}()

	started := v.clock()
	in := &input{obs: obs, vctx: vctx, now: started, typeIssues: typeIssues}
	in.hash, in.hashErr = obs.ComputeHash()

	var errs, warns []validation.Issue
	for _, l := range v.pipeline {
		f := l.run(in)
		errs = append(errs, f.errors...)
		warns = append(warns, f.warnings...)
	}

	finished := v.clock()
	elapsed := finished.Sub(started)
	if elapsed > v.cfg.PerformanceBudget {
		warns = append(warns, validation.Issue{
			Code:     validation.CodePerformanceBudgetExceeded,
			Message:  fmt.Sprintf("validation took %s", elapsed),
			Severity: validation.SeverityInfo,
			Impact:   validation.ImpactPerformance,
			Context:  map[string]any{"elapsed_ms": float64(elapsed.Microseconds()) / 1000, "budget_ms": float64(v.cfg.PerformanceBudget.Microseconds()) / 1000},
		})
	}

	result = assemble(errs, warns)
	result.ID = core.NewResultID()
	result.ObservationID = obs.ID
	result.SubjectID = obs.SubjectID
	if in.hashErr == nil {
		result.IntegrityHash = in.hash
	}
	if q := obs.Measurements.QualityScore; q != nil {
		score := *q
		result.QualityScore = &score
	}
	result.ValidatedAt = finished
	result.Duration = elapsed

	v.record(result)
	return result
}

// assemble applies scoring and the quarantine rule
func assemble(errs, warns []validation.Issue) validation.Result {
	if errs == nil {
		errs = []validation.Issue{}
	}
	if warns == nil {
		warns = []validation.Issue{}
	}

	r := validation.Result{Errors: errs, Warnings: warns, Severity: validation.SeverityInfo}

	var critical, high, medium, low int
	outlierHigh := false
	for _, e := range errs {
		if e.Severity > r.Severity {
			r.Severity = e.Severity
		}
		switch e.Severity {
		case validation.SeverityCritical:
			critical++
		case validation.SeverityHigh:
			high++
			if e.Code == validation.CodeStatisticalOutlier {
				outlierHigh = true
			}
		case validation.SeverityMedium:
			medium++
		case validation.SeverityLow:
			low++
		}
	}

	if critical > 0 {
		r.Score = 0
	} else {
		score := 100 - penaltyHigh*float64(high) - penaltyMedium*float64(medium) - penaltyLow*float64(low)
		for _, w := range warns {
			score -= warningWeights[w.Impact]
		}
		if score < 0 {
			score = 0
		}
		r.Score = score
	}

	r.IsValid = critical == 0 && r.Score >= ValidThreshold
	r.QuarantineRequired = critical > 0 || r.Score < ValidThreshold || high > 1 || outlierHigh
	return r
}

func (v *Validator) frameworkFailure(id core.ObservationID, subject core.SubjectID, cause error) validation.Result {
	now := v.clock()
	v.logger.Error("validation framework failure for observation %q: %v", id, cause)

	result := validation.Result{
		ID:            core.NewResultID(),
		ObservationID: id,
		SubjectID:     subject,
		IsValid:       false,
		Severity:      validation.SeverityCritical,
		Score:         0,
		Errors: []validation.Issue{{
			Code:     validation.CodeFrameworkError,
			Message:  "validation could not be completed",
			Severity: validation.SeverityCritical,
			Context:  map[string]any{"cause": cause.Error()},
		}},
		Warnings:           []validation.Issue{},
		QuarantineRequired: true,
		ValidatedAt:        now,
	}
	v.record(result)
	return result
}

// record updates the ledger, emergency flags, counters and metrics
func (v *Validator) record(result validation.Result) {
	log := v.logger.With("subject_id", result.SubjectID.String(), "observation_id", result.ObservationID.String())

	if !result.SubjectID.IsEmpty() {
		v.history.Append(result.SubjectID, result)
		for _, e := range result.Errors {
			if validation.EmergencyCodes[e.Code] {
				v.flags.Raise(result.SubjectID, e.Code)
				log.Warn("emergency escalation: %s", e.Code)
				if v.metrics {
					metrics.ObserveEmergency(string(e.Code))
				}
			}
		}
	}

	critical := int64(result.CountSeverity(validation.SeverityCritical))
	v.mu.Lock()
	v.stats.total++
	v.stats.scoreSum += result.Score
	v.stats.criticalErrors += critical
	if result.QuarantineRequired {
		v.stats.quarantined++
	}
	v.mu.Unlock()

	if result.QuarantineRequired {
		log.Info("observation quarantined (score %.1f, %d errors, %d warnings)", result.Score, len(result.Errors), len(result.Warnings))
	} else {
		log.Debug("observation accepted (score %.1f)", result.Score)
	}
	if v.metrics {
		metrics.ObserveValidation(result.Duration, result.IsValid, result.QuarantineRequired)
	}
}

// Snapshot returns aggregate statistics for the reporting layer
func (v *Validator) Snapshot() validation.Snapshot {
	v.mu.Lock()
	c := v.stats
	v.mu.Unlock()

	s := validation.Snapshot{
		TotalValidations: c.total,
		CriticalErrors:   c.criticalErrors,
		Quarantined:      c.quarantined,
		EmergencyFlags:   v.flags.Count(),
	}
	if c.total > 0 {
		s.AverageScore = c.scoreSum / float64(c.total)
		s.QuarantineRate = float64(c.quarantined) / float64(c.total)
	}
	return s
}

// EmergencyFlags exposes the escalation set to the compliance layer
func (v *Validator) EmergencyFlags() ports.EmergencyFlagPort {
	return v.flags
}

// ClearEmergency is the operator action that lifts a subject's flag
func (v *Validator) ClearEmergency(subject core.SubjectID) bool {
	cleared := v.flags.Clear(subject)
	if cleared {
		v.logger.Info("emergency flag cleared for subject %s", subject)
	}
	return cleared
}

// History exposes the audit ledger
func (v *Validator) History() ports.HistoryReaderPort {
	return v.history
}
