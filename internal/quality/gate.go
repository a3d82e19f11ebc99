// Package quality holds the two gates an analysis must clear before any
// statistic is computed: the aggregate metrics gate and the raw numeric
// sample gate.
package quality

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"studygate/domain/core"
	"studygate/domain/stats"
	"studygate/internal/config"
	"studygate/internal/errors"
)

// Threshold names reported in an Issue
const (
	IssueCompleteness   = "completeness"
	IssueAttentionCheck = "attention_check_pass_rate"
	IssueOutliers       = "outlier_percentage"
	IssueOverallQuality = "overall_quality"
)

var validate = validator.New()

// Issue is one violated threshold. Max is true when Observed exceeded an
// upper bound rather than fell below a lower one.
type Issue struct {
	Name      string  `json:"name"`
	Observed  float64 `json:"observed"`
	Threshold float64 `json:"threshold"`
	Max       bool    `json:"max,omitempty"`
}

func (i Issue) String() string {
	op := "<"
	if i.Max {
		op = ">"
	}
	return fmt.Sprintf("%s %.2f %s %.2f", i.Name, i.Observed, op, i.Threshold)
}

// Assessment is the result of the metrics gate
type Assessment struct {
	MeetsStandards bool    `json:"meets_standards"`
	Issues         []Issue `json:"issues,omitempty"`
}

// Err is nil when the standards are met, otherwise an error wrapping
// core.ErrQualityBelowStandards that names every violation.
func (a Assessment) Err() error {
	if a.MeetsStandards {
		return nil
	}
	parts := make([]string, len(a.Issues))
	for i, issue := range a.Issues {
		parts[i] = issue.String()
	}
	return fmt.Errorf("%w: %s", core.ErrQualityBelowStandards, strings.Join(parts, "; "))
}

// Gate checks aggregate quality metrics against configured thresholds
type Gate struct {
	cfg config.QualityConfig
}

// NewGate builds a gate from the quality thresholds
func NewGate(cfg config.QualityConfig) *Gate {
	return &Gate{cfg: cfg}
}

// Config returns the thresholds in force
func (g *Gate) Config() config.QualityConfig {
	return g.cfg
}

// Assess compares metrics to the thresholds. Metrics outside [0, 100]
// are rejected as invalid input rather than assessed.
func (g *Gate) Assess(m stats.DataQualityMetrics) (Assessment, error) {
	if err := validate.Struct(m); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return Assessment{}, errors.InvalidInput(fmt.Sprintf("quality metric %s out of range (value %v)", fe.Field(), fe.Value()))
		}
		return Assessment{}, errors.WithCode(errors.CodeInvalidInput, err)
	}

	var issues []Issue
	if m.Completeness < g.cfg.MinCompleteness {
		issues = append(issues, Issue{Name: IssueCompleteness, Observed: m.Completeness, Threshold: g.cfg.MinCompleteness})
	}
	if m.AttentionCheckPassRate < g.cfg.MinAttentionPassRate {
		issues = append(issues, Issue{Name: IssueAttentionCheck, Observed: m.AttentionCheckPassRate, Threshold: g.cfg.MinAttentionPassRate})
	}
	if m.OutlierPercentage > g.cfg.MaxOutlierRate {
		issues = append(issues, Issue{Name: IssueOutliers, Observed: m.OutlierPercentage, Threshold: g.cfg.MaxOutlierRate, Max: true})
	}
	if m.OverallQuality < g.cfg.MinOverallScore {
		issues = append(issues, Issue{Name: IssueOverallQuality, Observed: m.OverallQuality, Threshold: g.cfg.MinOverallScore})
	}

	return Assessment{MeetsStandards: len(issues) == 0, Issues: issues}, nil
}
