package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"studygate/domain/validation"
	"studygate/internal/errors"
	"studygate/ports"
)

// BaselineSource is a baseline table that can enumerate its keys
type BaselineSource interface {
	ports.BaselineProvider
	Keys() []validation.BaselineKey
}

// WriteBaselines saves every baseline of src to an xlsx workbook in the
// layout BaselineReader accepts, so it can be edited and read back.
func WriteBaselines(path, sheet string, src BaselineSource) error {
	if sheet == "" {
		sheet = DefaultSheet
	}
	f := excelize.NewFile()
	defer f.Close()

	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return errors.Wrapf(err, "rename sheet to %s", sheet)
		}
	}

	header := []interface{}{ColumnCategory, ColumnEventKind, ColumnMean, ColumnStdDev}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "write header")
	}
	for i, key := range src.Keys() {
		b, ok := src.Lookup(key.Category, key.Kind)
		if !ok {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "locate row")
		}
		row := []interface{}{string(key.Category), string(key.Kind), b.Mean, b.StdDev}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrap(err, fmt.Sprintf("write %s/%s", key.Category, key.Kind))
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}
