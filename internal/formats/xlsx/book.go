package xlsx

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetai/internal/target"
)

// Book is an open workbook that blocks are read from and answers written to.
// A Book is not safe for concurrent use.
type Book struct {
	path string
	f    *excelize.File
}

// Block is a rectangular range of cell values with its sheet-qualified address.
type Block struct {
	Address string     `json:"address"`
	Values  [][]string `json:"values"`
}

// Table is a named table defined in a worksheet.
type Table struct {
	Name  string `json:"name"`
	Sheet string `json:"sheet"`
	Range string `json:"range"`
}

// Open opens an existing workbook.
func Open(path string) (*Book, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s — check that the path is correct", path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s — is this a valid .xlsx file? %w", path, err)
	}
	return &Book{path: path, f: f}, nil
}

// New creates an empty in-memory workbook with a single "Sheet1".
func New() *Book {
	return &Book{f: excelize.NewFile()}
}

// Path returns the file the book was opened from, or "" for in-memory books.
func (b *Book) Path() string {
	return b.path
}

// Close releases the workbook.
func (b *Book) Close() error {
	return b.f.Close()
}

// Save writes the workbook back to the file it was opened from.
func (b *Book) Save() error {
	if b.path == "" {
		return fmt.Errorf("workbook has no path — use SaveAs")
	}
	return b.SaveAs(b.path)
}

// SaveAs writes the workbook to path.
func (b *Book) SaveAs(path string) error {
	if err := b.f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}
	b.path = path
	return nil
}

// ActiveSheet returns the name of the sheet that is active in the workbook.
func (b *Book) ActiveSheet() string {
	return b.f.GetSheetName(b.f.GetActiveSheetIndex())
}

// SheetNames lists the sheets in workbook order.
func (b *Book) SheetNames() []string {
	return b.f.GetSheetList()
}

func (b *Book) hasSheet(name string) bool {
	idx, err := b.f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// Tables lists the named tables across all sheets.
func (b *Book) Tables() ([]Table, error) {
	var tables []Table
	for _, sheet := range b.f.GetSheetList() {
		defs, err := b.f.GetTables(sheet)
		if err != nil {
			return nil, fmt.Errorf("could not list tables in %q: %w", sheet, err)
		}
		for _, d := range defs {
			tables = append(tables, Table{Name: d.Name, Sheet: sheet, Range: d.Range})
		}
	}
	return tables, nil
}

// ReadRange reads the cells of an address. Sheet-less addresses refer to the
// active sheet.
func (b *Book) ReadRange(addr string) (Block, error) {
	sheet, ref, qualified := target.SplitAddress(addr)
	if !qualified {
		sheet = b.ActiveSheet()
	}
	if sheet == "" || ref == "" {
		return Block{}, &target.AddressError{Address: addr, Reason: "empty sheet or range"}
	}
	if !b.hasSheet(sheet) {
		return Block{}, fmt.Errorf("sheet %q not found — available sheets: %v", sheet, b.SheetNames())
	}

	rect, err := target.ParseRange(ref)
	if err != nil {
		return Block{}, err
	}
	return b.readRect(sheet, rect)
}

// ReadTable reads the data body of a named table, excluding its header row.
func (b *Book) ReadTable(name string) (Block, error) {
	tables, err := b.Tables()
	if err != nil {
		return Block{}, err
	}

	for _, t := range tables {
		if !strings.EqualFold(t.Name, name) {
			continue
		}
		rect, err := target.ParseRange(t.Range)
		if err != nil {
			return Block{}, fmt.Errorf("table %q has an unreadable range: %w", t.Name, err)
		}
		if rect.Rows() < 2 {
			return Block{}, fmt.Errorf("table %q has no data rows", t.Name)
		}
		rect.Row1++
		return b.readRect(t.Sheet, rect)
	}

	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return Block{}, fmt.Errorf("table %q not found — available tables: %v", name, names)
}

// ReadSheet reads the used range of a sheet, padded to a rectangle. An empty
// name means the active sheet.
func (b *Book) ReadSheet(name string) (Block, error) {
	if name == "" {
		name = b.ActiveSheet()
	}
	if !b.hasSheet(name) {
		return Block{}, fmt.Errorf("sheet %q not found — available sheets: %v", name, b.SheetNames())
	}

	rows, err := b.f.GetRows(name)
	if err != nil {
		return Block{}, fmt.Errorf("could not read sheet %q: %w", name, err)
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	if len(rows) == 0 || width == 0 {
		return Block{Address: target.JoinAddress(name, "A1"), Values: [][]string{}}, nil
	}

	values := make([][]string, len(rows))
	for i, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		values[i] = padded
	}

	rect := target.Rect{Col1: 1, Row1: 1, Col2: width, Row2: len(rows)}
	return Block{Address: target.JoinAddress(name, rect.Ref()), Values: values}, nil
}

func (b *Book) readRect(sheet string, rect target.Rect) (Block, error) {
	values := make([][]string, 0, rect.Rows())
	for row := rect.Row1; row <= rect.Row2; row++ {
		cells := make([]string, 0, rect.Cols())
		for col := rect.Col1; col <= rect.Col2; col++ {
			name, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return Block{}, fmt.Errorf("invalid cell coordinates: %w", err)
			}
			v, err := b.f.GetCellValue(sheet, name)
			if err != nil {
				return Block{}, fmt.Errorf("could not read %s!%s: %w", sheet, name, err)
			}
			cells = append(cells, v)
		}
		values = append(values, cells)
	}
	return Block{Address: target.JoinAddress(sheet, rect.Ref()), Values: values}, nil
}
