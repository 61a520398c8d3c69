package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetVialPlan    = "Vial Plan"
	sheetSynthesis   = "Synthesis Plan"
	sheetAutosampler = "Autosampler"
)

// WriteWorkbook writes the vial plan, synthesis plan and autosampler program
// as sheets of one xlsx workbook.
func WriteWorkbook(w io.Writer, r Report, p AutosamplerParams) error {
	synth, err := r.synthesisRows()
	if err != nil {
		return err
	}
	program, err := r.autosamplerRows(p)
	if err != nil {
		return err
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", sheetVialPlan); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := fillSheet(f, sheetVialPlan, vialPlanHeader, r.vialPlanRows()); err != nil {
		return err
	}
	for _, s := range []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{sheetSynthesis, synthesisHeader, synth},
		{sheetAutosampler, autosamplerHeader, program},
	} {
		if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("add sheet %s: %w", s.name, err)
		}
		if err := fillSheet(f, s.name, s.header, s.rows); err != nil {
			return err
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func fillSheet(f *excelize.File, sheet string, header []string, rows [][]string) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("sheet %s row %d: %w", sheet, n, err)
	}
	return nil
}
