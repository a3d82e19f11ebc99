package ledger

import (
	"sort"
	"sync"

	"studygate/domain/core"
	"studygate/domain/validation"
)

// EmergencyFlags records subjects escalated to the compliance layer along
// with the codes that triggered them. Flags stay set until Clear.
type EmergencyFlags struct {
	mu      sync.RWMutex
	reasons map[core.SubjectID][]validation.Code
}

// NewEmergencyFlags creates an empty flag set
func NewEmergencyFlags() *EmergencyFlags {
	return &EmergencyFlags{reasons: make(map[core.SubjectID][]validation.Code)}
}

// Raise flags subject for code. Raising the same code twice is a no-op.
func (f *EmergencyFlags) Raise(subject core.SubjectID, code validation.Code) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.reasons[subject] {
		if c == code {
			return
		}
	}
	f.reasons[subject] = append(f.reasons[subject], code)
}

// Flagged reports whether subject has an open flag
func (f *EmergencyFlags) Flagged(subject core.SubjectID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.reasons[subject]
	return ok
}

// Reasons returns the codes raised for subject in the order first seen
func (f *EmergencyFlags) Reasons(subject core.SubjectID) []validation.Code {
	f.mu.RLock()
	defer f.mu.RUnlock()
	codes := f.reasons[subject]
	if len(codes) == 0 {
		return nil
	}
	return append([]validation.Code(nil), codes...)
}

// Subjects lists flagged subjects, sorted
func (f *EmergencyFlags) Subjects() []core.SubjectID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.SubjectID, 0, len(f.reasons))
	for id := range f.reasons {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clear removes subject's flag. It reports whether a flag was present.
func (f *EmergencyFlags) Clear(subject core.SubjectID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.reasons[subject]
	delete(f.reasons, subject)
	return ok
}

// Count returns the number of flagged subjects
func (f *EmergencyFlags) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.reasons)
}

// Fingerprints maps an observation fingerprint to the first observation id
// that carried it.
type Fingerprints struct {
	seen sync.Map
}

// NewFingerprints creates an empty index
func NewFingerprints() *Fingerprints {
	return &Fingerprints{}
}

// Claim registers fingerprint for id and returns the owning id
func (p *Fingerprints) Claim(fingerprint string, id core.ObservationID) core.ObservationID {
	owner, _ := p.seen.LoadOrStore(fingerprint, id)
	return owner.(core.ObservationID)
}
