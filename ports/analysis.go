package ports

import "studygate/domain/stats"

// AnalysisLogPort is the append-only audit log of analysis checkpoints
type AnalysisLogPort interface {
	// Append stamps the next sequence number on result and stores it
	Append(result stats.StatisticalResult) stats.StatisticalResult
	All() []stats.StatisticalResult
	Latest() (stats.StatisticalResult, bool)
	Len() int
}
