package table

import (
	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads a sheet from an Excel workbook. An empty sheet name selects
// the first sheet. The first row is the header; empty cells become null.
func ReadXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open workbook %s", path)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, eris.Errorf("workbook %s has no sheets", path)
		}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, eris.Wrapf(err, "read sheet %q", sheet)
	}
	if len(rows) == 0 {
		return New(), nil
	}

	t := New(rows[0]...)
	for _, r := range rows[1:] {
		row := make([]any, len(r))
		for i, cell := range r {
			if cell != "" {
				row[i] = cell
			}
		}
		t.AppendRow(row...)
	}
	return t, nil
}

// WriteXLSX writes the table to a single-sheet workbook at path.
func WriteXLSX(path string, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return eris.Wrap(err, "create header style")
	}

	for i, name := range t.columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return eris.Wrap(err, "header cell")
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return eris.Wrapf(err, "write header %q", name)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return eris.Wrap(err, "style header")
		}
	}

	for r, row := range t.rows {
		for i, v := range row {
			if IsNull(v) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return eris.Wrap(err, "data cell")
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return eris.Wrapf(err, "write row %d", r)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return eris.Wrapf(err, "save workbook %s", path)
	}
	return nil
}
