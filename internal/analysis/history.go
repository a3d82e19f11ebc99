package analysis

import (
	"sync"

	"studygate/domain/stats"
)

// History is the append-only log of statistical results kept for audit
// and later meta-analysis. Entries are never modified after Append.
type History struct {
	seq *SequenceManager

	mu      sync.RWMutex
	results []stats.StatisticalResult
}

// NewHistory creates an empty log
func NewHistory() *History {
	return &History{seq: NewSequenceManager()}
}

// Append stamps result with the next sequence number and stores it. The
// stored copy is returned.
func (h *History) Append(result stats.StatisticalResult) stats.StatisticalResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	result.Sequence = h.seq.Next()
	result.Assumptions = append([]stats.AssumptionCheck(nil), result.Assumptions...)
	result.DataIssues = append([]stats.DataIssue(nil), result.DataIssues...)
	result.Power.Curve = append([]stats.PowerPoint(nil), result.Power.Curve...)
	h.results = append(h.results, result)
	return result
}

// All returns the results in sequence order
func (h *History) All() []stats.StatisticalResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]stats.StatisticalResult(nil), h.results...)
}

// Latest returns the most recent result
func (h *History) Latest() (stats.StatisticalResult, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.results) == 0 {
		return stats.StatisticalResult{}, false
	}
	return h.results[len(h.results)-1], true
}

// Len returns the number of stored results
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.results)
}
