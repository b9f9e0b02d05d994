// Package target works out where in a workbook a normalized answer is written.
// It never looks at the workbook itself: whatever is at the target is
// overwritten without checks.
package target

import (
	"errors"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetai/internal/tabular"
)

// DestinationKind selects how the destination address is interpreted.
type DestinationKind int

const (
	// None writes to A1 of the active sheet.
	None DestinationKind = iota
	// NewSheet writes to A1 of a freshly created sheet.
	NewSheet
	// Explicit writes at a user-supplied address.
	Explicit
	// Overwrite writes over the range the input was read from.
	Overwrite
)

func (k DestinationKind) String() string {
	switch k {
	case NewSheet:
		return "new-sheet"
	case Explicit:
		return "explicit"
	case Overwrite:
		return "overwrite"
	default:
		return "none"
	}
}

// Destination is where the caller asked for output to go.
type Destination struct {
	Kind    DestinationKind
	Address string
}

// ToNewSheet targets a new sheet.
func ToNewSheet() Destination { return Destination{Kind: NewSheet} }

// ToRange targets an explicit address, sheet-qualified or not.
func ToRange(addr string) Destination { return Destination{Kind: Explicit, Address: addr} }

// ToOriginal targets the address the input data was read from.
func ToOriginal(addr string) Destination { return Destination{Kind: Overwrite, Address: addr} }

// FromOptions derives a destination from the usual user choices: the new-sheet
// switch wins, then a non-empty paste range, then the original read address.
func FromOptions(newSheet bool, pasteRange, original string) Destination {
	switch {
	case newSheet:
		return ToNewSheet()
	case strings.TrimSpace(pasteRange) != "":
		return ToRange(strings.TrimSpace(pasteRange))
	case strings.TrimSpace(original) != "":
		return ToOriginal(strings.TrimSpace(original))
	default:
		return Destination{}
	}
}

// Env carries the workbook state the resolver needs but must not look up itself.
type Env struct {
	// ActiveSheet is the sheet used for sheet-less addresses. Empty leaves the
	// choice to the writer.
	ActiveSheet string
	// NewSheetName is the unique name used when a new sheet is requested.
	NewSheetName string
}

// Target is a concrete write location.
type Target struct {
	Sheet  string         `json:"sheet"`
	Anchor string         `json:"anchor"`
	Extent tabular.Extent `json:"extent"`
	Create bool           `json:"create,omitempty"`
}

// Region returns the block of exactly Extent.Rows x Extent.Cols cells starting
// at the anchor, or the bare anchor for single-cell writes.
func (t Target) Region() string {
	if t.Extent.Rows <= 1 && t.Extent.Cols <= 1 {
		return t.Anchor
	}
	col, row, err := excelize.CellNameToCoordinates(t.Anchor)
	if err != nil {
		return t.Anchor
	}
	r := Rect{Col1: col, Row1: row, Col2: col + max(t.Extent.Cols, 1) - 1, Row2: row + max(t.Extent.Rows, 1) - 1}
	return r.Ref()
}

// Address is the sheet-qualified region.
func (t Target) Address() string {
	return JoinAddress(t.Sheet, t.Region())
}

// Resolve computes the sheet and anchor cell for writing a block of the given
// extent to dest.
func Resolve(dest Destination, ext tabular.Extent, env Env) (Target, error) {
	switch dest.Kind {
	case NewSheet:
		return Target{Sheet: env.NewSheetName, Anchor: "A1", Extent: ext, Create: true}, nil

	case Explicit:
		if strings.TrimSpace(dest.Address) == "" {
			return Target{}, invalid(dest.Address, "empty range")
		}
		return resolveAddress(dest.Address, ext, env)

	case Overwrite:
		if _, _, qualified := SplitAddress(dest.Address); qualified {
			return resolveAddress(dest.Address, ext, env)
		}
		return Target{Sheet: env.ActiveSheet, Anchor: "A1", Extent: ext}, nil

	default:
		return Target{Sheet: env.ActiveSheet, Anchor: "A1", Extent: ext}, nil
	}
}

func resolveAddress(addr string, ext tabular.Extent, env Env) (Target, error) {
	sheet, ref, qualified := SplitAddress(addr)
	if qualified && sheet == "" {
		return Target{}, invalid(addr, "empty sheet name")
	}
	if ref == "" {
		return Target{}, invalid(addr, "empty range")
	}
	if !qualified {
		sheet = env.ActiveSheet
	}

	rect, err := ParseRange(ref)
	if err != nil {
		var ae *AddressError
		if errors.As(err, &ae) {
			return Target{}, invalid(addr, ae.Reason)
		}
		return Target{}, err
	}

	return Target{Sheet: sheet, Anchor: rect.TopLeft(), Extent: ext}, nil
}
