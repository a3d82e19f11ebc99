package analysis

import (
	stderrors "errors"
	"fmt"

	"studygate/domain/core"
	"studygate/domain/stats"
	"studygate/internal/errors"
	"studygate/internal/quality"
)

// Stage names the gate that stopped an analysis
type Stage string

const (
	StageQualityGate Stage = "quality_gate"
	StageSampleGate  Stage = "sample_gate"
	StageEffect      Stage = "effect"
)

// PreconditionError reports an analysis that could not run. Err wraps one
// of the core precondition sentinels.
type PreconditionError struct {
	Stage         Stage
	QualityIssues []quality.Issue
	DataIssues    []stats.DataIssue
	Err           error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("analysis stopped at %s: %v", e.Stage, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// Code maps the underlying sentinel to an application error code
func (e *PreconditionError) Code() string {
	switch {
	case stderrors.Is(e.Err, core.ErrQualityBelowStandards):
		return errors.CodeQualityBelowStandards
	case stderrors.Is(e.Err, core.ErrZeroVariance):
		return errors.CodeZeroVariance
	case stderrors.Is(e.Err, core.ErrInsufficientData):
		return errors.CodeInsufficientData
	default:
		return errors.CodeInvalidInput
	}
}

// precondition wraps a PreconditionError in an AppError carrying its code
func precondition(pe *PreconditionError) error {
	return errors.WithCode(pe.Code(), pe)
}
