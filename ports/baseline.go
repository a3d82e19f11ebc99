package ports

import (
	"studygate/domain/observation"
	"studygate/domain/validation"
)

// BaselineProvider supplies reference distributions for outlier scoring.
// Implementations must be safe for concurrent reads.
type BaselineProvider interface {
	Lookup(category observation.Category, kind observation.EventKind) (validation.Baseline, bool)
}
