// Package testkit generates synthetic loan-simulation studies for tests and
// the demo harness.
package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"studygate/domain/core"
	"studygate/domain/observation"
	"studygate/domain/stats"
	"studygate/domain/validation"
	"studygate/internal/quality"
	"studygate/ports"
)

// Arm is the experimental condition a subject is assigned to
type Arm string

const (
	ArmTreatment Arm = "treatment"
	ArmControl   Arm = "control"
)

// Corruption is a deliberate defect injected into an event
type Corruption string

const (
	CorruptNone           Corruption = ""
	CorruptAttentionCheck Corruption = "attention_check"
	CorruptTooShort       Corruption = "too_short"
	CorruptTampered       Corruption = "tampered"
	CorruptMissingSession Corruption = "missing_session"
)

var corruptions = []Corruption{CorruptAttentionCheck, CorruptTooShort, CorruptTampered, CorruptMissingSession}

const (
	// events of one subject fit inside this window before Now, so a
	// validator frozen at Now sees no clock drift
	eventWindow = 4 * time.Second

	sessionLead     = 10 * time.Minute
	maxAbsZ         = 2.5
	minDurationMS   = 600.0
	maxDurationMS   = 29000.0
	subjectSpreadSD = 0.4
	eventNoiseSD    = 0.7
	encryptionKeyID = "study-key-1"
)

// StudyConfig configures a synthetic study
type StudyConfig struct {
	Subjects         int       `json:"subjects"`
	EventsPerSubject int       `json:"events_per_subject"`
	Effect           float64   `json:"effect"`
	CorruptionRate   float64   `json:"corruption_rate"`
	Seed             int64     `json:"seed"`
	Now              time.Time `json:"now"`
}

// DefaultStudyConfig returns a balanced study with a large treatment effect
func DefaultStudyConfig() StudyConfig {
	return StudyConfig{
		Subjects:         40,
		EventsPerSubject: 8,
		Effect:           0.8,
		CorruptionRate:   0.02,
		Seed:             42,
		Now:              time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

// Event is one generated observation with the context it is validated in
type Event struct {
	Arm         Arm
	Observation *observation.Observation
	Context     observation.Context
	Corruption  Corruption
}

// StudyGenerator produces observations whose durations are drawn around
// the baseline of their category and kind. Treatment subjects are shifted
// by Effect baseline standard deviations.
type StudyGenerator struct {
	cfg       StudyConfig
	baselines ports.BaselineProvider
	rng       *rand.Rand
}

// NewStudyGenerator creates a generator seeded from cfg.Seed
func NewStudyGenerator(cfg StudyConfig, baselines ports.BaselineProvider) *StudyGenerator {
	if cfg.EventsPerSubject < 1 {
		cfg.EventsPerSubject = 1
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now().UTC()
	}
	return &StudyGenerator{
		cfg:       cfg,
		baselines: baselines,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Now is the instant the study's events are generated against
func (g *StudyGenerator) Now() time.Time {
	return g.cfg.Now
}

// Generate returns every event of the study, subject by subject
func (g *StudyGenerator) Generate() ([]Event, error) {
	events := make([]Event, 0, g.cfg.Subjects*g.cfg.EventsPerSubject)
	for s := 0; s < g.cfg.Subjects; s++ {
		subjectEvents, err := g.subject(s)
		if err != nil {
			return nil, err
		}
		events = append(events, subjectEvents...)
	}
	return events, nil
}

func (g *StudyGenerator) subject(s int) ([]Event, error) {
	n := g.cfg.EventsPerSubject
	arm := ArmControl
	shift := 0.0
	if s%2 == 0 {
		arm = ArmTreatment
		shift = g.cfg.Effect
	}
	subject := core.SubjectID(fmt.Sprintf("subj-%03d", s+1))
	session := core.SessionID(fmt.Sprintf("sess-%03d", s+1))
	personal := g.rng.NormFloat64() * subjectSpreadSD

	sequence := make([]observation.Category, n)
	for j := range sequence {
		sequence[j] = observation.Categories[j%len(observation.Categories)]
	}

	now := core.ToMicros(g.cfg.Now)
	start := now - eventWindow.Microseconds()
	step := eventWindow.Microseconds() / int64(n)
	sessionStart := now - sessionLead.Microseconds()

	events := make([]Event, 0, n)
	var lastSeen core.Micros
	for j := 0; j < n; j++ {
		ts := start + int64(j)*step + 1
		category := sequence[j]
		kind := observation.EventKinds[(j+s)%len(observation.EventKinds)]

		b, ok := g.baselines.Lookup(category, kind)
		if !ok {
			return nil, fmt.Errorf("no baseline for %s/%s: %w", category, kind, core.ErrInvalidBaseline)
		}
		z := clampAbs(shift+personal+g.rng.NormFloat64()*eventNoiseSD, maxAbsZ)
		duration := math.Min(math.Max(b.Mean+z*b.StdDev, minDurationMS), maxDurationMS)

		obs := &observation.Observation{
			ID:                core.ObservationID(fmt.Sprintf("%s-evt-%02d", subject, j+1)),
			SubjectID:         subject,
			SessionID:         session,
			Category:          category,
			Kind:              kind,
			Timestamp:         ts,
			RelativeTimestamp: observation.MicrosPtr(ts - sessionStart),
			Measurements: observation.Measurements{
				DurationMS:           observation.Float(duration),
				QualityScore:         observation.Float(95 + 5*g.rng.Float64()),
				CognitiveLoad:        observation.Float(float64(3 + g.rng.Intn(5))),
				ScrollDepth:          observation.Float(100 * g.rng.Float64()),
				AttentionCheckPassed: observation.Bool(true),
				Hesitation:           observation.Bool(g.rng.Float64() < 0.2),
			},
		}
		if kind == observation.KindInteraction {
			obs.Measurements.ClickX = observation.Float(float64(g.rng.Intn(1920)))
			obs.Measurements.ClickY = observation.Float(float64(g.rng.Intn(1080)))
			obs.Encrypted = true
			obs.EncryptionKeyID = encryptionKeyID
		}

		vctx := observation.Context{
			ConsentVerified:   true,
			SessionStart:      sessionStart,
			LastSeen:          lastSeen,
			ExpectedSessionID: session,
			ExpectedSubjectID: subject,
			ExpectedSequence:  sequence,
			SequencePosition:  j,
			SessionDuration:   sessionLead,
		}

		corruption := CorruptNone
		if g.rng.Float64() < g.cfg.CorruptionRate {
			corruption = corruptions[g.rng.Intn(len(corruptions))]
		}
		if err := corrupt(obs, corruption); err != nil {
			return nil, err
		}

		events = append(events, Event{Arm: arm, Observation: obs, Context: vctx, Corruption: corruption})
		lastSeen = ts
	}
	return events, nil
}

// corrupt seals obs and then applies the defect
func corrupt(obs *observation.Observation, c Corruption) error {
	switch c {
	case CorruptAttentionCheck:
		obs.Measurements.AttentionCheckPassed = observation.Bool(false)
	case CorruptTooShort:
		obs.Measurements.DurationMS = observation.Float(100)
	case CorruptMissingSession:
		obs.SessionID = ""
	}
	if err := obs.Seal(); err != nil {
		return err
	}
	if c == CorruptTampered {
		*obs.Measurements.DurationMS += 1
	}
	return nil
}

func clampAbs(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}

// Outcomes reduces accepted events to one score per subject: the mean
// baseline z-score of the subject's accepted durations. results[i] must be
// the validation result of events[i]. Subjects with no accepted event are
// left out.
func Outcomes(events []Event, results []validation.Result, baselines ports.BaselineProvider) (treatment, control []float64) {
	type acc struct {
		arm   Arm
		sum   float64
		count int
	}
	bySubject := make(map[core.SubjectID]*acc)
	var order []core.SubjectID

	for i, e := range events {
		if i >= len(results) || results[i].QuarantineRequired {
			continue
		}
		obs := e.Observation
		if obs.Measurements.DurationMS == nil {
			continue
		}
		b, ok := baselines.Lookup(obs.Category, obs.Kind)
		if !ok {
			continue
		}
		a, seen := bySubject[obs.SubjectID]
		if !seen {
			a = &acc{arm: e.Arm}
			bySubject[obs.SubjectID] = a
			order = append(order, obs.SubjectID)
		}
		a.sum += b.ZScore(*obs.Measurements.DurationMS)
		a.count++
	}

	for _, id := range order {
		a := bySubject[id]
		mean := a.sum / float64(a.count)
		if a.arm == ArmTreatment {
			treatment = append(treatment, mean)
		} else {
			control = append(control, mean)
		}
	}
	return treatment, control
}

// Sample assembles the analysis input from a validated study
func Sample(events []Event, results []validation.Result, baselines ports.BaselineProvider) stats.StatisticalSample {
	treatment, control := Outcomes(events, results, baselines)
	return stats.StatisticalSample{
		Treatment: treatment,
		Control:   control,
		Metrics:   quality.Summarize(results),
	}
}
