package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Domain-specific ID types
type (
	ObservationID ID
	SubjectID     ID
	SessionID     ID
	ResultID      ID
	AnalysisID    ID
)

func (id ObservationID) String() string { return ID(id).String() }
func (id SubjectID) String() string     { return ID(id).String() }
func (id SessionID) String() string     { return ID(id).String() }
func (id ResultID) String() string      { return ID(id).String() }
func (id AnalysisID) String() string    { return ID(id).String() }

func (id ObservationID) IsEmpty() bool { return ID(id).IsEmpty() }
func (id SubjectID) IsEmpty() bool     { return ID(id).IsEmpty() }
func (id SessionID) IsEmpty() bool     { return ID(id).IsEmpty() }

// NewResultID returns a fresh identifier for a validation result
func NewResultID() ResultID { return ResultID(NewID()) }

// NewAnalysisID returns a fresh identifier for a statistical result
func NewAnalysisID() AnalysisID { return AnalysisID(NewID()) }

// ParseSubjectID parses a string into SubjectID
func ParseSubjectID(s string) (SubjectID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("subject ID cannot be empty")
	}
	return SubjectID(s), nil
}

// ParseSessionID parses a string into SessionID
func ParseSessionID(s string) (SessionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	return SessionID(s), nil
}
