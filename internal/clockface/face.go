// Package clockface groups four digit cells into an HH:MM flip clock and
// drives their cascading animation.
package clockface

import (
	"fmt"

	"flipclock/internal/digit"
	"flipclock/internal/model"
)

// Position indexes a cell, most significant first.
type Position int

const (
	HourTens Position = iota
	HourOnes
	MinuteTens
	MinuteOnes

	NumCells
)

// cascade is the evaluation order of Tick: least significant first.
var cascade = [NumCells]Position{MinuteOnes, MinuteTens, HourOnes, HourTens}

func (p Position) String() string {
	switch p {
	case HourTens:
		return "hour_tens"
	case HourOnes:
		return "hour_ones"
	case MinuteTens:
		return "minute_tens"
	case MinuteOnes:
		return "minute_ones"
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// Face is the four-digit clock. It is not safe for concurrent use; the
// owner serialises calls.
type Face struct {
	cells     [NumCells]*digit.Cell
	format    DisplayFormat
	animating bool

	// formatPending is set between SetDisplayFormat and the SetTime that
	// re-targets the cells into the new index domain.
	formatPending bool
}

// New returns a settled face showing index 0 in every cell.
func New(format DisplayFormat) (*Face, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("clockface: invalid display format %d", int(format))
	}
	f := &Face{format: format}
	f.cells[HourTens] = digit.NewCell(format.HourTens())
	f.cells[HourOnes] = digit.NewCell(digit.Ones)
	f.cells[MinuteTens] = digit.NewCell(digit.MinuteTens)
	f.cells[MinuteOnes] = digit.NewCell(digit.Ones)
	return f, nil
}

// SetTime targets hours:minutes. Hours are normalised for the active format
// and minutes wrapped to 0..59. The animate flag is forwarded to every cell
// and becomes the face's animating state.
func (f *Face) SetTime(hours, minutes int, animate bool) {
	hours = f.format.NormalizeHour(hours)
	minutes %= 60
	if minutes < 0 {
		minutes += 60
	}

	f.cells[HourTens].SetTarget(hours/10, animate)
	f.cells[HourOnes].SetTarget(hours%10, animate)
	f.cells[MinuteTens].SetTarget(minutes/10, animate)
	f.cells[MinuteOnes].SetTarget(minutes%10, animate)

	f.animating = animate
	f.formatPending = false
}

// SetDisplayFormat swaps the tens-hour alphabet. Indices are left alone, so
// the caller must follow up with SetTime before the next Tick or FrameKeys;
// those panic until it does.
func (f *Face) SetDisplayFormat(format DisplayFormat) error {
	if !format.Valid() {
		return fmt.Errorf("clockface: invalid display format %d", int(format))
	}
	f.cells[HourTens].SetAlphabet(format.HourTens())
	f.format = format
	f.formatPending = true
	return nil
}

// Tick advances the animation by one frame and reports whether anything
// changed.
//
// Cells are evaluated from least to most significant and evaluation stops at
// the first cell that advances, so only one cell moves per tick: ones-minute
// completes its whole flip before tens-minute starts, and so on. Once a full
// pass finds every cell settled the face stops animating.
func (f *Face) Tick() bool {
	f.mustBeApplied()
	if !f.animating {
		return false
	}
	for _, pos := range cascade {
		if f.cells[pos].Advance() {
			return true
		}
	}
	f.animating = false
	return false
}

// IsAnimating reports whether a cascade is still in progress.
func (f *Face) IsAnimating() bool {
	return f.animating
}

// Format returns the active display format.
func (f *Face) Format() DisplayFormat {
	return f.format
}

// FrameKeys returns the frame each cell should show, most significant first.
func (f *Face) FrameKeys() [NumCells]model.FrameKey {
	f.mustBeApplied()
	var keys [NumCells]model.FrameKey
	for i, c := range f.cells {
		keys[i] = c.FrameKey()
	}
	return keys
}

// Digits returns the characters currently at rest, e.g. "1259" or "x905".
func (f *Face) Digits() string {
	f.mustBeApplied()
	out := make([]rune, 0, NumCells)
	for _, c := range f.cells {
		out = append(out, c.Char())
	}
	return string(out)
}

// Cell exposes a cell for inspection.
func (f *Face) Cell(pos Position) *digit.Cell {
	return f.cells[pos]
}

func (f *Face) mustBeApplied() {
	if f.formatPending {
		panic(fmt.Sprintf("clockface: display format changed to %s without SetTime", f.format))
	}
}
