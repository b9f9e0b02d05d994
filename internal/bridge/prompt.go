package bridge

import (
	"encoding/json"
	"fmt"
)

// DefaultMaxRows is the number of rows forwarded to the model when no limit
// is configured.
const DefaultMaxRows = 200

// SystemPrompt steers the model toward output the classifier can reshape.
const SystemPrompt = "You are an expert spreadsheet assistant. Input is a JSON array-of-arrays (rows). " +
	"The user prompt follows. If the user asks for a table, **output only CSV** (no explanation). " +
	"If user asks for JSON, output only JSON (array-of-arrays or array-of-objects). " +
	"Otherwise return plain text."

// Sample returns at most max leading rows of values. A nil input yields an
// empty, non-nil slice so it encodes as [].
func Sample(values [][]any, max int) [][]any {
	if values == nil {
		return [][]any{}
	}
	if max > 0 && len(values) > max {
		return values[:max]
	}
	return values
}

// UserMessage renders the sampled table and the instruction into the text
// sent as the user turn.
func UserMessage(prompt string, sample [][]any) (string, error) {
	data, err := json.Marshal(sample)
	if err != nil {
		return "", fmt.Errorf("could not encode table sample: %w", err)
	}
	return fmt.Sprintf("Table sample (first %d rows):\n%s\n\nUser request:\n%s", len(sample), data, prompt), nil
}

// StringValues widens a block of cell text into the generic row shape.
func StringValues(values [][]string) [][]any {
	out := make([][]any, len(values))
	for i, row := range values {
		r := make([]any, len(row))
		for j, v := range row {
			r[j] = v
		}
		out[i] = r
	}
	return out
}
