package xlsx

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetai/internal/tabular"
	"github.com/klytics/sheetai/internal/target"
)

// WriteFile creates a new .xlsx file from the given workbook data.
func WriteFile(wb *Workbook, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range wb.Sheets {
		sheetName := sheet.Name
		if sheetName == "" {
			sheetName = fmt.Sprintf("Sheet%d", i+1)
		}

		if i == 0 {
			// Rename default sheet
			defaultSheet := f.GetSheetName(0)
			if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
				return fmt.Errorf("could not rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheetName); err != nil {
				return fmt.Errorf("could not create sheet %q: %w", sheetName, err)
			}
		}

		for rowIdx, row := range sheet.Rows {
			cellName, err := excelize.CoordinatesToCellName(1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("invalid cell coordinates: %w", err)
			}
			values := make([]interface{}, len(row))
			for j, cell := range row {
				values[j] = cellValue(cell)
			}
			if err := f.SetSheetRow(sheetName, cellName, &values); err != nil {
				return fmt.Errorf("could not write row %d: %w", rowIdx+1, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}

	return nil
}

// Apply writes out at t and returns the sheet-qualified address written.
// Existing cells are overwritten; a missing target sheet is an error unless
// t.Create is set. A created sheet whose name is taken gets a _2, _3... suffix.
func (b *Book) Apply(t target.Target, out tabular.Output) (string, error) {
	if t.Sheet == "" {
		t.Sheet = b.ActiveSheet()
	}

	if t.Create {
		name := t.Sheet
		for n := 2; b.hasSheet(name); n++ {
			name = fmt.Sprintf("%s_%d", t.Sheet, n)
		}
		t.Sheet = name
		if _, err := b.f.NewSheet(t.Sheet); err != nil {
			return "", fmt.Errorf("could not create sheet %q: %w", t.Sheet, err)
		}
	} else if !b.hasSheet(t.Sheet) {
		return "", fmt.Errorf("sheet %q not found — available sheets: %v", t.Sheet, b.SheetNames())
	}

	col, row, err := excelize.CellNameToCoordinates(t.Anchor)
	if err != nil {
		return "", &target.AddressError{Address: t.Anchor, Reason: err.Error()}
	}

	if !out.IsTable() {
		if err := b.f.SetCellValue(t.Sheet, t.Anchor, cellValue(out.Text)); err != nil {
			return "", fmt.Errorf("could not set cell %s: %w", t.Anchor, err)
		}
		return t.Address(), nil
	}

	for i, r := range out.Rows {
		cell, err := excelize.CoordinatesToCellName(col, row+i)
		if err != nil {
			return "", fmt.Errorf("answer does not fit below %s: %w", t.Anchor, err)
		}
		values := make([]interface{}, len(r))
		for j, v := range r {
			values[j] = cellValue(v)
		}
		if err := b.f.SetSheetRow(t.Sheet, cell, &values); err != nil {
			return "", fmt.Errorf("could not write row at %s: %w", cell, err)
		}
	}

	return t.Address(), nil
}

// cellValue converts a decoded answer cell into something excelize stores the
// way a user typing it would see it: plain decimal strings become numbers,
// nested values become JSON text.
func cellValue(v any) interface{} {
	switch val := v.(type) {
	case nil, bool, float64, int:
		return val
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil && strconv.FormatFloat(f, 'f', -1, 64) == val {
			return f
		}
		return val
	default:
		return tabular.CellString(val)
	}
}
