package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Analysis precondition errors
	ErrPreconditionUnmet     = errors.New("analysis preconditions unmet")
	ErrQualityBelowStandards = fmt.Errorf("%w: data quality below standards", ErrPreconditionUnmet)
	ErrInsufficientData      = fmt.Errorf("%w: insufficient data for analysis", ErrPreconditionUnmet)
	ErrZeroVariance          = fmt.Errorf("%w: zero variance in sample group", ErrPreconditionUnmet)
	ErrMissingValues         = errors.New("sample contains missing values")

	// Integrity errors
	ErrHashMismatch = errors.New("hash mismatch")

	// Configuration errors
	ErrUnknownCategory  = errors.New("unknown loan category")
	ErrUnknownEventKind = errors.New("unknown event kind")
	ErrInvalidBaseline  = errors.New("invalid baseline")
)

// NewInsufficientDataError reports a group that is below the minimum size
func NewInsufficientDataError(group string, have, need int) error {
	return fmt.Errorf("%w: %s has %d observations, need %d", ErrInsufficientData, group, have, need)
}

// NewZeroVarianceError reports a group without spread
func NewZeroVarianceError(group string) error {
	return fmt.Errorf("%w: %s", ErrZeroVariance, group)
}

// NewBaselineError reports a malformed baseline row
func NewBaselineError(key string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrInvalidBaseline, key, reason)
}

// IsPreconditionError reports whether err means an analysis could not run
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrPreconditionUnmet)
}
