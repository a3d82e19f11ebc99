package observation

import (
	"encoding/json"
	"fmt"
	"time"

	"studygate/domain/core"
)

// Category is the loan-simulation type the observation was recorded in
type Category string

const (
	CategoryPayday      Category = "payday"
	CategoryInstallment Category = "installment"
	CategoryTitle       Category = "title"
	CategoryPersonal    Category = "personal"
)

// Categories lists every valid category in canonical order
var Categories = []Category{CategoryPayday, CategoryInstallment, CategoryTitle, CategoryPersonal}

// Valid reports whether c is a declared category
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// EventKind classifies what the observation measures
type EventKind string

const (
	KindInteraction   EventKind = "interaction"
	KindCognitive     EventKind = "cognitive"
	KindBehavioral    EventKind = "behavioral"
	KindPhysiological EventKind = "physiological"
)

// EventKinds lists every valid event kind
var EventKinds = []EventKind{KindInteraction, KindCognitive, KindBehavioral, KindPhysiological}

// Valid reports whether k is a declared event kind
func (k EventKind) Valid() bool {
	for _, known := range EventKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseCategory parses a category name
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownCategory, s)
	}
	return c, nil
}

// ParseEventKind parses an event kind name
func ParseEventKind(s string) (EventKind, error) {
	k := EventKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownEventKind, s)
	}
	return k, nil
}

// Measurements holds the optional typed measurement fields. A nil pointer
// means the field was not collected.
type Measurements struct {
	DurationMS           *float64 `json:"duration_ms,omitempty"`
	QualityScore         *float64 `json:"quality_score,omitempty"`
	CognitiveLoad        *float64 `json:"cognitive_load,omitempty"`
	ScrollDepth          *float64 `json:"scroll_depth,omitempty"`
	ClickX               *float64 `json:"click_x,omitempty"`
	ClickY               *float64 `json:"click_y,omitempty"`
	AttentionCheckPassed *bool    `json:"attention_check_passed,omitempty"`
	Hesitation           *bool    `json:"hesitation,omitempty"`
}

// HasCoordinates reports whether click coordinates were collected
func (m Measurements) HasCoordinates() bool {
	return m.ClickX != nil || m.ClickY != nil
}

// Observation is one recorded event from the loan-simulation task
type Observation struct {
	ID                core.ObservationID `json:"id"`
	SubjectID         core.SubjectID     `json:"subject_id"`
	SessionID         core.SessionID     `json:"session_id"`
	Category          Category           `json:"category"`
	Kind              EventKind          `json:"event_kind"`
	Timestamp         core.Micros        `json:"timestamp"`
	RelativeTimestamp *core.Micros       `json:"relative_timestamp,omitempty"`
	Measurements      Measurements       `json:"measurements"`
	Encrypted         bool               `json:"encrypted,omitempty"`
	EncryptionKeyID   string             `json:"encryption_key_id,omitempty"`
	Checksum          core.Hash          `json:"checksum,omitempty"`
}

// Time returns the absolute timestamp as a time.Time
func (o *Observation) Time() time.Time {
	return core.FromMicros(o.Timestamp)
}

// Fingerprint identifies an event independently of its id: the same subject
// cannot emit two events of one kind at the same microsecond.
func (o *Observation) Fingerprint() string {
	return fmt.Sprintf("%s|%d|%s", o.SubjectID, o.Timestamp, o.Kind)
}

// ComputeHash derives the integrity hash from the observation's own fields,
// excluding any carried checksum.
func (o *Observation) ComputeHash() (core.Hash, error) {
	clone := *o
	clone.Checksum = ""
	data, err := json.Marshal(clone)
	if err != nil {
		return "", fmt.Errorf("marshal observation %s: %w", o.ID, err)
	}
	return core.NewHash(data), nil
}

// Seal stamps the observation with its current integrity hash
func (o *Observation) Seal() error {
	h, err := o.ComputeHash()
	if err != nil {
		return err
	}
	o.Checksum = h
	return nil
}

// Context is the ambient state a caller supplies with each validation call.
// It is never stored on the observation.
type Context struct {
	ConsentVerified   bool
	SessionStart      core.Micros // zero when unknown
	LastSeen          core.Micros // zero when the subject has no prior event
	ExpectedSessionID core.SessionID
	ExpectedSubjectID core.SubjectID
	ExpectedSequence  []Category
	SequencePosition  int
	SessionDuration   time.Duration
}

// ExpectedCategory returns the category the sequence expects at the current
// position, if a sequence was supplied.
func (c Context) ExpectedCategory() (Category, bool) {
	if len(c.ExpectedSequence) == 0 || c.SequencePosition < 0 || c.SequencePosition >= len(c.ExpectedSequence) {
		return "", false
	}
	return c.ExpectedSequence[c.SequencePosition], true
}

// Float returns a pointer to v, for building measurements
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for building measurements
func Bool(v bool) *bool { return &v }

// MicrosPtr returns a pointer to v
func MicrosPtr(v core.Micros) *core.Micros { return &v }
