package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"studygate/domain/core"
	"studygate/domain/observation"
	"studygate/domain/validation"
	"studygate/internal"
	"studygate/internal/errors"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(DefaultSheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "baselines.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestBaselineReaderXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Category", "Event_Kind", "Mean", "Std_Dev"},
		{"payday", "interaction", 4000, 1500.5},
		{"title", "cognitive", 14000, 4200},
	})

	got, err := NewBaselineReader(path, "", internal.NewNopLogger()).Read()
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, validation.Baseline{Mean: 4000, StdDev: 1500.5},
		got[validation.BaselineKey{Category: observation.CategoryPayday, Kind: observation.KindInteraction}])
	assert.Equal(t, validation.Baseline{Mean: 14000, StdDev: 4200},
		got[validation.BaselineKey{Category: observation.CategoryTitle, Kind: observation.KindCognitive}])
}

func TestBaselineReaderCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baselines.csv")
	body := "category,event_kind,mean,std_dev\npersonal,behavioral,9000,2500\n,,,\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	got, err := NewBaselineReader(path, "", internal.NewNopLogger()).Read()
	require.NoError(t, err)
	assert.Len(t, got, 1, "blank rows are skipped")
}

func TestBaselineReaderRejects(t *testing.T) {
	tests := []struct {
		name string
		rows [][]interface{}
		want error
	}{
		{
			name: "unknown category",
			rows: [][]interface{}{{"category", "event_kind", "mean", "std_dev"}, {"mortgage", "interaction", 1, 1}},
			want: core.ErrUnknownCategory,
		},
		{
			name: "unknown kind",
			rows: [][]interface{}{{"category", "event_kind", "mean", "std_dev"}, {"payday", "dream", 1, 1}},
			want: core.ErrUnknownEventKind,
		},
		{
			name: "non-positive std dev",
			rows: [][]interface{}{{"category", "event_kind", "mean", "std_dev"}, {"payday", "interaction", 1, 0}},
			want: core.ErrInvalidBaseline,
		},
		{
			name: "duplicate pair",
			rows: [][]interface{}{
				{"category", "event_kind", "mean", "std_dev"},
				{"payday", "interaction", 1, 1},
				{"payday", "interaction", 2, 1},
			},
			want: core.ErrInvalidBaseline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBaselineReader(writeWorkbook(t, tt.rows), "", nil).Read()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, errors.CodeBaselineInvalid, errors.GetCode(err))
		})
	}
}

func TestBaselineReaderMissingColumn(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{{"category", "event_kind", "mean"}, {"payday", "interaction", 1}})
	_, err := NewBaselineReader(path, "", nil).Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "std_dev")
}

func TestBaselineReaderMissingFile(t *testing.T) {
	_, err := NewBaselineReader(filepath.Join(t.TempDir(), "nope.xlsx"), "", nil).Read()
	require.Error(t, err)
	assert.Equal(t, errors.CodeBaselineInvalid, errors.GetCode(err))
}
