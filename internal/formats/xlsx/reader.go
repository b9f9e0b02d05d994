// Package xlsx reads input blocks from .xlsx workbooks and writes normalized
// answers back into them.
package xlsx

import (
	"bytes"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetai/internal/tabular"
)

// Sheet represents a single worksheet's data.
type Sheet struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// Workbook is a snapshot of every sheet in a file.
type Workbook struct {
	Sheets []Sheet `json:"sheets"`
}

// ReadFile reads an .xlsx file and returns its structured data.
func ReadFile(path string) (*Workbook, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s — check that the path is correct", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s — is this a valid .xlsx file? %w", path, err)
	}
	defer f.Close()

	return readWorkbook(f)
}

// ReadBytes reads an .xlsx file from a byte slice and returns its structured data.
func ReadBytes(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not read Excel data: %w", err)
	}
	defer f.Close()

	return readWorkbook(f)
}

func readWorkbook(f *excelize.File) (*Workbook, error) {
	wb := &Workbook{}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("could not read sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: rows})
	}

	return wb, nil
}

// GetSheet returns a specific sheet by name.
func (wb *Workbook) GetSheet(name string) (*Sheet, error) {
	for i := range wb.Sheets {
		if wb.Sheets[i].Name == name {
			return &wb.Sheets[i], nil
		}
	}

	available := make([]string, len(wb.Sheets))
	for i, s := range wb.Sheets {
		available[i] = s.Name
	}
	return nil, fmt.Errorf("sheet %q not found — available sheets: %v", name, available)
}

// ToCSV converts a sheet's data to CSV, one line per row.
func (s *Sheet) ToCSV() string {
	if len(s.Rows) == 0 {
		return ""
	}
	return tabular.FormatCSV(anyRows(s.Rows)) + "\n"
}

// RowCount returns the number of rows with at least one non-empty cell.
func (s *Sheet) RowCount() int {
	count := 0
	for _, row := range s.Rows {
		for _, cell := range row {
			if cell != "" {
				count++
				break
			}
		}
	}
	return count
}

func anyRows(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		r := make([]any, len(row))
		for j, cell := range row {
			r[j] = cell
		}
		out[i] = r
	}
	return out
}
