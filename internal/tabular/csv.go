package tabular

import "strings"

// ParseLine splits one CSV line into trimmed fields. Double quotes toggle
// quoting, a doubled quote inside a quoted field is a literal quote, and the
// last field is always emitted even when empty. Quoted fields cannot span lines.
func ParseLine(line string) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))

	return fields
}

// FormatCSV renders rows as CSV text, quoting fields that contain commas,
// quotes or line breaks. Rows are separated by a bare newline.
func FormatCSV(rows [][]any) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			s := CellString(cell)
			if needsQuoting(s) {
				b.WriteByte('"')
				b.WriteString(strings.ReplaceAll(s, `"`, `""`))
				b.WriteByte('"')
			} else {
				b.WriteString(s)
			}
		}
	}
	return b.String()
}

func needsQuoting(s string) bool {
	return strings.ContainsAny(s, ",\"\r\n")
}
