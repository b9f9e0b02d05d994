// Package output provides formatting utilities for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Format represents an output format.
type Format int

const (
	// FormatText is the human table view.
	FormatText Format = iota
	// FormatJSON is JSON output.
	FormatJSON
	// FormatCSV is comma-separated rows.
	FormatCSV
)

// maxColumnWidth caps a column in the table view; longer cells end in "~".
const maxColumnWidth = 40

// Writer handles formatted output to a destination.
type Writer struct {
	dest   io.Writer
	format Format
}

// NewWriter creates a new output writer with the given format.
func NewWriter(format Format) *Writer {
	return &Writer{
		dest:   os.Stdout,
		format: format,
	}
}

// To redirects the writer.
func (w *Writer) To(dest io.Writer) *Writer {
	w.dest = dest
	return w
}

// Format returns the writer's format.
func (w *Writer) Format() Format {
	return w.format
}

// WriteJSON encodes a value as pretty-printed JSON.
func (w *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(w.dest)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteText writes plain text.
func (w *Writer) WriteText(s string) error {
	_, err := fmt.Fprint(w.dest, s)
	return err
}

// WriteLn writes a line of text.
func (w *Writer) WriteLn(s string) error {
	_, err := fmt.Fprintln(w.dest, s)
	return err
}

// WriteTable prints rows as an aligned grid. The first row is the header.
func (w *Writer) WriteTable(title string, rows [][]string) {
	headerStyle := color.New(color.Bold, color.FgCyan)
	dim := color.New(color.FgHiBlack)

	if title != "" {
		headerStyle.Fprintf(w.dest, "%s\n", title)
	}
	if len(rows) == 0 {
		dim.Fprintln(w.dest, "  (empty)")
		return
	}

	widths := columnWidths(rows)
	w.writeRow(rows[0], widths, color.New(color.Bold))

	dim.Fprint(w.dest, "  ")
	for j, width := range widths {
		if j > 0 {
			dim.Fprint(w.dest, "+-")
		}
		dim.Fprint(w.dest, strings.Repeat("-", width+1))
	}
	dim.Fprintln(w.dest)

	for _, row := range rows[1:] {
		w.writeRow(row, widths, nil)
	}
	dim.Fprintf(w.dest, "  (%d rows)\n", len(rows)-1)
}

func columnWidths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for j, cell := range row {
			for len(widths) <= j {
				widths = append(widths, 0)
			}
			if n := len([]rune(cell)); n > widths[j] {
				widths[j] = n
			}
		}
	}
	for i := range widths {
		widths[i] = min(max(widths[i], 3), maxColumnWidth)
	}
	return widths
}

func (w *Writer) writeRow(row []string, widths []int, style *color.Color) {
	var b strings.Builder
	b.WriteString("  ")
	for j, width := range widths {
		if j > 0 {
			b.WriteString("| ")
		}
		cell := ""
		if j < len(row) {
			cell = row[j]
		}
		r := []rune(cell)
		if len(r) > width {
			r = append(r[:width-1], '~')
		}
		b.WriteString(string(r))
		b.WriteString(strings.Repeat(" ", width-len(r)+1))
	}
	if style != nil {
		style.Fprintln(w.dest, b.String())
		return
	}
	fmt.Fprintln(w.dest, b.String())
}

// WriteError writes an error message to stderr.
func WriteError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
