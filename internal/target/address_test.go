package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		in        string
		sheet     string
		ref       string
		qualified bool
	}{
		{"Sheet1!A1:C10", "Sheet1", "A1:C10", true},
		{"A1:C10", "", "A1:C10", false},
		{"'My Sheet'!B2", "My Sheet", "B2", true},
		{"'Bob''s'!B2", "Bob's", "B2", true},
		{" Data ! D4 ", "Data", "D4", true},
		{"!A1", "", "A1", true},
	}

	for _, tt := range tests {
		sheet, ref, qualified := SplitAddress(tt.in)
		assert.Equal(t, tt.sheet, sheet, tt.in)
		assert.Equal(t, tt.ref, ref, tt.in)
		assert.Equal(t, tt.qualified, qualified, tt.in)
	}
}

func TestJoinAddress(t *testing.T) {
	assert.Equal(t, "Sheet1!A1", JoinAddress("Sheet1", "A1"))
	assert.Equal(t, "'My Sheet'!A1:B2", JoinAddress("My Sheet", "A1:B2"))
	assert.Equal(t, "'Bob''s'!C3", JoinAddress("Bob's", "C3"))
	assert.Equal(t, "'2024'!A1", JoinAddress("2024", "A1"))
	assert.Equal(t, "A1", JoinAddress("", "A1"))
}

func TestJoinSplitRoundTrip(t *testing.T) {
	for _, name := range []string{"Sheet1", "My Sheet", "Bob's", "AI_Result_1", "Ünïcode"} {
		sheet, ref, ok := SplitAddress(JoinAddress(name, "C3:D4"))
		require.True(t, ok)
		assert.Equal(t, name, sheet)
		assert.Equal(t, "C3:D4", ref)
	}
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("$B$2:C10")
	require.NoError(t, err)
	assert.Equal(t, Rect{Col1: 2, Row1: 2, Col2: 3, Row2: 10}, r)
	assert.Equal(t, 9, r.Rows())
	assert.Equal(t, 2, r.Cols())
	assert.Equal(t, "B2", r.TopLeft())
	assert.Equal(t, "B2:C10", r.Ref())

	single, err := ParseRange("AA7")
	require.NoError(t, err)
	assert.Equal(t, "AA7", single.Ref())

	_, err = ParseRange("")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ParseRange("A:A")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
