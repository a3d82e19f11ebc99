package excel

import (
	"fmt"
	"strconv"

	"studygate/domain/core"
	"studygate/domain/observation"
	"studygate/domain/validation"
	"studygate/internal"
	"studygate/internal/errors"
)

// Baseline workbook columns
const (
	ColumnCategory  = "category"
	ColumnEventKind = "event_kind"
	ColumnMean      = "mean"
	ColumnStdDev    = "std_dev"
)

// BaselineReader loads baseline recalibrations from a workbook with the
// columns category, event_kind, mean and std_dev.
type BaselineReader struct {
	reader *DataReader
}

// NewBaselineReader creates a reader for path
func NewBaselineReader(path, sheet string, logger *internal.Logger) *BaselineReader {
	return &BaselineReader{reader: NewDataReader(path, sheet, logger)}
}

// Read returns the overrides keyed by (category, kind). Any malformed row
// rejects the whole workbook.
func (b *BaselineReader) Read() (map[validation.BaselineKey]validation.Baseline, error) {
	table, err := b.reader.ReadData()
	if err != nil {
		return nil, errors.BaselineInvalid(err)
	}

	for _, col := range []string{ColumnCategory, ColumnEventKind, ColumnMean, ColumnStdDev} {
		if !hasHeader(table.Headers, col) {
			return nil, errors.BaselineInvalid(fmt.Errorf("missing column %q", col))
		}
	}

	overrides := make(map[validation.BaselineKey]validation.Baseline, len(table.Rows))
	for i, row := range table.Rows {
		line := i + 2
		key, baseline, err := parseRow(row)
		if err != nil {
			return nil, errors.BaselineInvalid(fmt.Errorf("row %d: %w", line, err))
		}
		if _, dup := overrides[key]; dup {
			return nil, errors.BaselineInvalid(fmt.Errorf("row %d: %w", line,
				core.NewBaselineError(fmt.Sprintf("%s/%s", key.Category, key.Kind), "listed twice")))
		}
		overrides[key] = baseline
	}
	return overrides, nil
}

func parseRow(row RawRowData) (validation.BaselineKey, validation.Baseline, error) {
	cat, err := observation.ParseCategory(row[ColumnCategory])
	if err != nil {
		return validation.BaselineKey{}, validation.Baseline{}, err
	}
	kind, err := observation.ParseEventKind(row[ColumnEventKind])
	if err != nil {
		return validation.BaselineKey{}, validation.Baseline{}, err
	}
	key := validation.BaselineKey{Category: cat, Kind: kind}
	label := fmt.Sprintf("%s/%s", cat, kind)

	mean, err := strconv.ParseFloat(row[ColumnMean], 64)
	if err != nil {
		return key, validation.Baseline{}, core.NewBaselineError(label, "mean is not a number")
	}
	sd, err := strconv.ParseFloat(row[ColumnStdDev], 64)
	if err != nil {
		return key, validation.Baseline{}, core.NewBaselineError(label, "std_dev is not a number")
	}
	if sd <= 0 {
		return key, validation.Baseline{}, core.NewBaselineError(label, "std_dev must be positive")
	}
	return key, validation.Baseline{Mean: mean, StdDev: sd}, nil
}

func hasHeader(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}
