package ports

import (
	"studygate/domain/core"
	"studygate/domain/validation"
)

// HistoryWriterPort appends validation results to a subject's history
type HistoryWriterPort interface {
	Append(subject core.SubjectID, result validation.Result)
}

// HistoryReaderPort provides read-only access to a subject's history
type HistoryReaderPort interface {
	// Recent returns up to n of the most recent results, oldest first
	Recent(subject core.SubjectID, n int) []validation.Result
	Len(subject core.SubjectID) int
}

// HistoryPort combines read and write access
type HistoryPort interface {
	HistoryWriterPort
	HistoryReaderPort
}

// EmergencyFlagPort records subjects escalated to the compliance layer.
// Flags persist until an operator clears them.
type EmergencyFlagPort interface {
	Raise(subject core.SubjectID, code validation.Code)
	Flagged(subject core.SubjectID) bool
	Reasons(subject core.SubjectID) []validation.Code
	Clear(subject core.SubjectID) bool
	Count() int
}

// FingerprintPort detects distinct observations that collide on
// subject, timestamp and kind.
type FingerprintPort interface {
	// Claim registers fingerprint for id and returns the id that first
	// claimed it. A different returned id means a duplicate.
	Claim(fingerprint string, id core.ObservationID) core.ObservationID
}
