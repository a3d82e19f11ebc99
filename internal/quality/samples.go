package quality

import (
	stderrors "errors"
	"fmt"
	"math"

	mstats "github.com/montanaflynn/stats"

	"studygate/domain/core"
	"studygate/domain/stats"
)

// Raw sample issue codes
const (
	CodeInsufficientSample = "INSUFFICIENT_SAMPLE_SIZE"
	CodeMissingValues      = "MISSING_VALUES"
	CodeZeroVariance       = "ZERO_VARIANCE"
	CodeExtremeValues      = "EXTREME_VALUES"
	CodeRangeRatio         = "RANGE_RATIO"
)

const (
	// DefaultMinPerGroup is the smallest group an analysis accepts
	DefaultMinPerGroup = 10

	tukeyFence      = 3.0
	maxExtremeShare = 0.05
	maxRangeRatio   = 10.0
)

// DataReport is the outcome of the raw sample gate. Treatment and Control
// hold the groups with missing values removed.
type DataReport struct {
	Issues    []stats.DataIssue
	Treatment []float64
	Control   []float64

	fatal []error
}

// Err joins the fatal findings, or is nil when analysis may proceed
func (r DataReport) Err() error {
	return stderrors.Join(r.fatal...)
}

// Fatal reports whether any finding blocks analysis
func (r DataReport) Fatal() bool {
	return len(r.fatal) > 0
}

func (r *DataReport) add(issue stats.DataIssue, err error) {
	r.Issues = append(r.Issues, issue)
	if issue.Fatal {
		r.fatal = append(r.fatal, err)
	}
}

// CheckSamples screens raw treatment and control values. Missing values
// (NaN or infinite) are dropped before size and variance are checked.
func CheckSamples(treatment, control []float64, minPerGroup int) DataReport {
	if minPerGroup < 2 {
		minPerGroup = DefaultMinPerGroup
	}
	var r DataReport

	var missing int
	r.Treatment, missing = dropMissing(treatment)
	var controlMissing int
	r.Control, controlMissing = dropMissing(control)
	if missing += controlMissing; missing > 0 {
		r.add(stats.DataIssue{
			Code:     CodeMissingValues,
			Severity: stats.IssueHigh,
			Message:  fmt.Sprintf("%d missing values removed", missing),
		}, nil)
	}

	groups := []struct {
		name   string
		values []float64
	}{
		{"treatment", r.Treatment},
		{"control", r.Control},
	}
	for _, g := range groups {
		if len(g.values) < minPerGroup {
			r.add(stats.DataIssue{
				Code:     CodeInsufficientSample,
				Severity: stats.IssueCritical,
				Fatal:    true,
				Message:  fmt.Sprintf("%s has %d observations, need %d", g.name, len(g.values), minPerGroup),
			}, core.NewInsufficientDataError(g.name, len(g.values), minPerGroup))
		}
	}
	for _, g := range groups {
		if len(g.values) > 0 && spread(g.values) == 0 {
			r.add(stats.DataIssue{
				Code:     CodeZeroVariance,
				Severity: stats.IssueCritical,
				Fatal:    true,
				Message:  fmt.Sprintf("%s has zero variance", g.name),
			}, core.NewZeroVarianceError(g.name))
		}
	}
	if r.Fatal() {
		return r
	}

	if share := extremeShare(append(append([]float64(nil), r.Treatment...), r.Control...)); share > maxExtremeShare {
		r.add(stats.DataIssue{
			Code:     CodeExtremeValues,
			Severity: stats.IssueHigh,
			Message:  fmt.Sprintf("%.1f%% of pooled values lie beyond 3 IQR Tukey fences", share*100),
		}, nil)
	}

	rt, rc := spread(r.Treatment), spread(r.Control)
	if ratio := math.Max(rt, rc) / math.Min(rt, rc); ratio > maxRangeRatio {
		r.add(stats.DataIssue{
			Code:     CodeRangeRatio,
			Severity: stats.IssueMedium,
			Message:  fmt.Sprintf("group ranges differ %.1fx; consider a log or rank transformation", ratio),
		}, nil)
	}
	return r
}

func dropMissing(values []float64) ([]float64, int) {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out, len(values) - len(out)
}

// spread is max - min
func spread(values []float64) float64 {
	lo, err := mstats.Min(values)
	if err != nil {
		return 0
	}
	hi, _ := mstats.Max(values)
	return hi - lo
}

// extremeShare is the fraction of values outside [Q1 - 3 IQR, Q3 + 3 IQR]
func extremeShare(values []float64) float64 {
	q1, err := mstats.Percentile(values, 25)
	if err != nil {
		return 0
	}
	q3, err := mstats.Percentile(values, 75)
	if err != nil {
		return 0
	}
	iqr := q3 - q1
	lo, hi := q1-tukeyFence*iqr, q3+tukeyFence*iqr

	var n int
	for _, v := range values {
		if v < lo || v > hi {
			n++
		}
	}
	return float64(n) / float64(len(values))
}
