package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTable(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	w := NewWriter(FormatText).To(&buf)

	w.WriteTable("Sheet: Data", [][]string{
		{"Region", "Q1"},
		{"North", "10"},
		{"South"},
	})

	out := buf.String()
	assert.Contains(t, out, "Sheet: Data")
	assert.Contains(t, out, "Region | Q1")
	assert.Contains(t, out, "(2 rows)")
}

func TestWriteTableTruncatesWideCells(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	NewWriter(FormatText).To(&buf).WriteTable("", [][]string{{strings.Repeat("x", 60)}})

	assert.Contains(t, buf.String(), strings.Repeat("x", maxColumnWidth-1)+"~")
	assert.NotContains(t, buf.String(), strings.Repeat("x", maxColumnWidth))
}

func TestWriteTableEmpty(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	NewWriter(FormatText).To(&buf).WriteTable("Sheet: Blank", nil)
	assert.Contains(t, buf.String(), "(empty)")
}

func TestJSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FprintJSON(&buf, "classify", map[string]string{"kind": "table"}))

	var got JSONResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.True(t, got.OK)
	assert.Equal(t, "classify", got.Command)
	assert.NotEmpty(t, got.Version)
}

func TestJSONErrorEnvelope(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FprintJSONError(&buf, "ask", errors.New("boom"), ExitSystemError))

	var got JSONResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.False(t, got.OK)
	assert.Equal(t, "boom", got.Error)
	assert.Equal(t, ExitSystemError, got.Code)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitUserError, ExitCode(errors.New("bad flag")))

	wrapped := fmt.Errorf("ask: %w", SystemError(errors.New("timeout")))
	assert.Equal(t, ExitSystemError, ExitCode(wrapped))
	assert.EqualError(t, wrapped, "ask: timeout")
	assert.Nil(t, SystemError(nil))
}
