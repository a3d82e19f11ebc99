package analysis

import (
	"sync/atomic"
)

// SequenceManager hands out strictly increasing checkpoint numbers,
// starting at 1. It is safe for concurrent use.
type SequenceManager struct {
	current atomic.Int64
}

// NewSequenceManager creates a manager whose first Next returns 1
func NewSequenceManager() *SequenceManager {
	return &SequenceManager{}
}

// Next returns a new sequence number
func (s *SequenceManager) Next() int64 {
	return s.current.Add(1)
}

// Current returns the last issued number without advancing, 0 if none
func (s *SequenceManager) Current() int64 {
	return s.current.Load()
}
