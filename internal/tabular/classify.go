package tabular

import (
	"bytes"
	"encoding/json"
	"strings"
)

// parser tries one interpretation of a trimmed answer and reports whether it applied.
type parser func(text string) ([][]any, bool)

// parsers are tried in order; the first one that applies wins.
var parsers = []parser{
	jsonRows,
	jsonRecords,
	csvLines,
}

// Classify turns a raw model answer into a table or a scalar.
//
// JSON arrays of arrays are used verbatim, JSON arrays of objects become a header
// row plus one row per object, multi-line text is read as CSV, and anything else
// is returned as trimmed scalar text. Malformed JSON is never an error.
func Classify(text string) Output {
	text = strings.TrimSpace(text)
	if text == "" {
		return Scalar("")
	}

	for _, p := range parsers {
		if rows, ok := p(text); ok {
			return Table(rows)
		}
	}

	return Scalar(text)
}

// jsonArray parses text as a top-level JSON array and returns its elements
// along with the leading byte of the first one.
func jsonArray(text string) ([]json.RawMessage, byte, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, 0, false
	}
	if len(items) == 0 {
		return nil, 0, false
	}
	first := bytes.TrimSpace(items[0])
	if len(first) == 0 {
		return nil, 0, false
	}
	return items, first[0], true
}

// jsonRows accepts an array whose first element is itself an array. Empty
// rows become one empty cell; an array of only empty rows is rejected.
func jsonRows(text string) ([][]any, bool) {
	items, lead, ok := jsonArray(text)
	if !ok || lead != '[' {
		return nil, false
	}

	rows := make([][]any, 0, len(items))
	cells := false
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '[' {
			var row []any
			if err := json.Unmarshal(item, &row); err != nil {
				return nil, false
			}
			if len(row) == 0 {
				row = []any{nil}
			} else {
				cells = true
			}
			rows = append(rows, row)
			continue
		}
		// Not an array: keep the value as a one-cell row.
		var v any
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, false
		}
		rows = append(rows, []any{v})
		cells = true
	}
	if !cells {
		return nil, false
	}
	return rows, true
}

// jsonRecords accepts an array whose first element is an object. The header
// comes from the first object's keys in document order.
func jsonRecords(text string) ([][]any, bool) {
	items, lead, ok := jsonArray(text)
	if !ok || lead != '{' {
		return nil, false
	}

	keys, _, ok := decodeObject(items[0])
	if !ok || len(keys) == 0 {
		return nil, false
	}

	header := make([]any, len(keys))
	for i, k := range keys {
		header[i] = k
	}
	rows := [][]any{header}

	for _, item := range items {
		_, values, _ := decodeObject(item)
		row := make([]any, len(keys))
		for i, k := range keys {
			row[i] = values[k]
		}
		rows = append(rows, row)
	}
	return rows, true
}

// decodeObject decodes a JSON object keeping key order. Duplicate keys keep
// their first position and last value.
func decodeObject(raw json.RawMessage) ([]string, map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, false
	}
	if d, isDelim := tok.(json.Delim); !isDelim || d != '{' {
		return nil, nil, false
	}

	var keys []string
	values := make(map[string]any)
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, nil, false
		}
		key, isKey := kt.(string)
		if !isKey {
			return nil, nil, false
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, false
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = v
	}
	return keys, values, true
}

// csvLines reads multi-line text as one CSV row per line. An all-blank split is
// rejected.
func csvLines(text string) ([][]any, bool) {
	if !strings.Contains(text, "\n") {
		return nil, false
	}

	lines := strings.Split(text, "\n")
	rows := make([][]any, 0, len(lines))
	accepted := false
	for _, line := range lines {
		fields := ParseLine(strings.TrimSuffix(line, "\r"))
		if len(fields) > 1 || (len(fields) == 1 && fields[0] != "") {
			accepted = true
		}
		row := make([]any, len(fields))
		for i, f := range fields {
			row[i] = f
		}
		rows = append(rows, row)
	}
	if !accepted {
		return nil, false
	}
	return rows, true
}
