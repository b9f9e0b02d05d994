package target

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidAddress is returned for addresses whose sheet or range component is
// empty or whose range is not an A1 reference.
var ErrInvalidAddress = errors.New("invalid address")

// AddressError describes why an address was rejected.
type AddressError struct {
	Address string
	Reason  string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Address, e.Reason)
}

func (e *AddressError) Unwrap() error {
	return ErrInvalidAddress
}

func invalid(addr, reason string) error {
	return &AddressError{Address: addr, Reason: reason}
}

// Rect is an inclusive block of cells in 1-based column/row coordinates.
type Rect struct {
	Col1, Row1 int
	Col2, Row2 int
}

// TopLeft returns the A1 name of the block's first cell.
func (r Rect) TopLeft() string {
	name, _ := excelize.CoordinatesToCellName(r.Col1, r.Row1)
	return name
}

// Ref renders the block as "A1" or "A1:C3".
func (r Rect) Ref() string {
	start := r.TopLeft()
	if r.Col1 == r.Col2 && r.Row1 == r.Row2 {
		return start
	}
	end, _ := excelize.CoordinatesToCellName(r.Col2, r.Row2)
	return start + ":" + end
}

// Rows is the number of rows the block spans.
func (r Rect) Rows() int { return r.Row2 - r.Row1 + 1 }

// Cols is the number of columns the block spans.
func (r Rect) Cols() int { return r.Col2 - r.Col1 + 1 }

// SplitAddress splits "Sheet1!A1:C3" into its sheet and range parts. Quoted
// sheet names ('My Sheet') are unquoted. qualified is false when the address
// carries no sheet separator, in which case ref is the whole address.
func SplitAddress(addr string) (sheet, ref string, qualified bool) {
	addr = strings.TrimSpace(addr)
	i := strings.LastIndex(addr, "!")
	if i < 0 {
		return "", addr, false
	}
	return unquoteSheet(strings.TrimSpace(addr[:i])), strings.TrimSpace(addr[i+1:]), true
}

// JoinAddress builds a sheet-qualified address, quoting the sheet name when
// Excel would.
func JoinAddress(sheet, ref string) string {
	if sheet == "" {
		return ref
	}
	return quoteSheet(sheet) + "!" + ref
}

// ParseRange parses an A1 reference such as "B2", "$B$2" or "B2:C3".
func ParseRange(ref string) (Rect, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(ref), "$", "")
	if clean == "" {
		return Rect{}, invalid(ref, "empty range")
	}

	parts := strings.Split(clean, ":")
	if len(parts) > 2 {
		return Rect{}, invalid(ref, "too many range separators")
	}

	col1, row1, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return Rect{}, invalid(ref, err.Error())
	}
	col2, row2 := col1, row1
	if len(parts) == 2 {
		col2, row2, err = excelize.CellNameToCoordinates(parts[1])
		if err != nil {
			return Rect{}, invalid(ref, err.Error())
		}
	}

	r := Rect{Col1: min(col1, col2), Row1: min(row1, row2), Col2: max(col1, col2), Row2: max(row1, row2)}
	return r, nil
}

func unquoteSheet(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

func quoteSheet(s string) string {
	plain := s != ""
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && (unicode.IsDigit(r) || r == '.')) {
			continue
		}
		plain = false
		break
	}
	if plain {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
