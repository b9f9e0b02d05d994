// Package tabular decides whether a model's free-text answer is a table or a
// single text value and normalizes it for write-back into a worksheet.
package tabular

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind tags an Output as tabular or scalar.
type Kind string

const (
	// KindScalar is a single text value written into one cell.
	KindScalar Kind = "scalar"
	// KindTable is a block of rows of columns.
	KindTable Kind = "table"
)

// Output is the normalized form of a model answer.
type Output struct {
	Kind Kind    `json:"kind"`
	Rows [][]any `json:"rows,omitempty"`
	Text string  `json:"text,omitempty"`
}

// Extent is the number of rows and columns an Output occupies.
type Extent struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Scalar wraps text as a scalar Output.
func Scalar(text string) Output {
	return Output{Kind: KindScalar, Text: text}
}

// Table wraps rows as a tabular Output.
func Table(rows [][]any) Output {
	return Output{Kind: KindTable, Rows: rows}
}

// IsTable reports whether the output is tabular.
func (o Output) IsTable() bool {
	return o.Kind == KindTable
}

// Extent returns the block size of the output. Tables report the widest row so
// ragged rows are fully covered; both dimensions are at least 1.
func (o Output) Extent() Extent {
	if !o.IsTable() {
		return Extent{Rows: 1, Cols: 1}
	}
	ext := Extent{Rows: len(o.Rows), Cols: 0}
	for _, row := range o.Rows {
		if len(row) > ext.Cols {
			ext.Cols = len(row)
		}
	}
	if ext.Rows < 1 {
		ext.Rows = 1
	}
	if ext.Cols < 1 {
		ext.Cols = 1
	}
	return ext
}

// StringRows returns the output as rows of display strings. A scalar becomes a
// single 1x1 row.
func (o Output) StringRows() [][]string {
	if !o.IsTable() {
		return [][]string{{o.Text}}
	}
	rows := make([][]string, len(o.Rows))
	for i, row := range o.Rows {
		out := make([]string, len(row))
		for j, cell := range row {
			out[j] = CellString(cell)
		}
		rows[i] = out
	}
	return rows
}

// CellString renders a decoded cell value the way a spreadsheet would show it.
// Nested arrays and objects are rendered as compact JSON.
func CellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case json.Number:
		return val.String()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
