package tabular

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func benchRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{fmt.Sprintf("Region %d", i), i * 10, fmt.Sprintf("note, %d", i)}
	}
	return rows
}

func BenchmarkClassifyCSV(b *testing.B) {
	text := FormatCSV(benchRows(200))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Classify(text)
	}
}

func BenchmarkClassifyJSONRows(b *testing.B) {
	data, err := json.Marshal(benchRows(200))
	if err != nil {
		b.Fatal(err)
	}
	text := string(data)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Classify(text)
	}
}

func BenchmarkClassifyJSONRecords(b *testing.B) {
	records := make([]map[string]any, 200)
	for i := range records {
		records[i] = map[string]any{"region": fmt.Sprintf("R%d", i), "total": i}
	}
	data, err := json.Marshal(records)
	if err != nil {
		b.Fatal(err)
	}
	text := string(data)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Classify(text)
	}
}

func BenchmarkClassifyScalar(b *testing.B) {
	text := strings.Repeat("North grew fastest this quarter. ", 20)
	for i := 0; i < b.N; i++ {
		_ = Classify(text)
	}
}

func BenchmarkParseLine(b *testing.B) {
	line := `North,"1,200",ok,"said ""hi""",,end`
	for i := 0; i < b.N; i++ {
		_ = ParseLine(line)
	}
}
