// Package digit implements a single flipping digit cell: an ordered,
// wrap-around alphabet plus the current/target position and the flip step
// counter that drives the animation.
package digit

import (
	"fmt"

	"flipclock/internal/model"
)

// MaxStep is the number of Advance calls a flip takes. Steps 1..MaxStep-1
// show intermediate frames; reaching MaxStep commits the new character.
const MaxStep = 4

// Blank is the filesystem-safe stand-in for an empty leading digit.
const Blank = 'x'

// Alphabet is the ordered set of characters a cell may display.
// Indexing wraps around.
type Alphabet string

// Fixed alphabets used by the clock face.
const (
	Ones           Alphabet = "0123456789"
	MinuteTens     Alphabet = "012345"
	HourTens24     Alphabet = "012"
	HourTens12     Alphabet = "01"
	HourTens12Lead Alphabet = "x1"
)

// Len returns the number of symbols.
func (a Alphabet) Len() int {
	return len([]rune(a))
}

// At returns the symbol at i mod Len.
func (a Alphabet) At(i int) rune {
	r := []rune(a)
	return r[wrap(i, len(r))]
}

// Pairs returns every adjacent wrap-around pair, e.g. "012" → 01, 12, 20.
func (a Alphabet) Pairs() [][2]rune {
	r := []rune(a)
	if len(r) < 2 {
		return nil
	}
	out := make([][2]rune, 0, len(r))
	for i := range r {
		out = append(out, [2]rune{r[i], r[(i+1)%len(r)]})
	}
	return out
}

// wrap maps v into [0, n).
func wrap(v, n int) int {
	m := v % n
	if m < 0 {
		m += n
	}
	return m
}

// Cell is one flipping digit.
type Cell struct {
	alphabet Alphabet
	current  int
	target   int
	step     int
}

// NewCell returns a settled cell at index 0. It panics on an empty alphabet.
func NewCell(a Alphabet) *Cell {
	if a.Len() == 0 {
		panic("digit: empty alphabet")
	}
	return &Cell{alphabet: a}
}

// SetTarget points the cell at value mod len(alphabet).
//
// Without animation the cell jumps straight to the target. With animation
// the current character is kept and the step counter is reset, arming the
// cell for subsequent Advance calls.
func (c *Cell) SetTarget(value int, animate bool) {
	c.target = wrap(value, c.alphabet.Len())
	if !animate {
		c.current = c.target
	}
	c.step = 0
}

// Advance moves a pending flip forward by one step and reports whether a
// redraw happened. A settled cell is left untouched and returns false.
func (c *Cell) Advance() bool {
	if c.current == c.target {
		return false
	}
	c.step++
	if c.step >= MaxStep {
		c.current = c.target
		c.step = 0
	}
	return true
}

// FrameKey names the frame to show for the cell's present state. A cell at
// step 0 shows its current character at rest, whether or not it is armed.
func (c *Cell) FrameKey() model.FrameKey {
	c.mustBeConsistent()
	from := c.alphabet.At(c.current)
	if c.step == 0 {
		return model.Settled(from)
	}
	return model.FrameKey{From: from, To: c.alphabet.At(c.target), Step: c.step}
}

// SetAlphabet swaps the symbol set without touching the indices. Callers
// must re-target the cell before reading it if the length changed.
func (c *Cell) SetAlphabet(a Alphabet) {
	if a.Len() == 0 {
		panic("digit: empty alphabet")
	}
	c.alphabet = a
}

// Consistent reports whether both indices fall inside the alphabet.
func (c *Cell) Consistent() bool {
	n := c.alphabet.Len()
	return c.current >= 0 && c.current < n && c.target >= 0 && c.target < n
}

func (c *Cell) mustBeConsistent() {
	if !c.Consistent() {
		panic(fmt.Sprintf("digit: indices current=%d target=%d outside alphabet %q",
			c.current, c.target, string(c.alphabet)))
	}
}

func (c *Cell) Alphabet() Alphabet { return c.alphabet }
func (c *Cell) Current() int       { return c.current }
func (c *Cell) Target() int        { return c.target }
func (c *Cell) Step() int          { return c.step }

// Settled reports whether no flip is pending.
func (c *Cell) Settled() bool { return c.current == c.target }

// Char returns the character currently shown at rest.
func (c *Cell) Char() rune {
	c.mustBeConsistent()
	return c.alphabet.At(c.current)
}

func (c *Cell) String() string {
	return fmt.Sprintf("digit{%q cur=%d target=%d step=%d}", string(c.alphabet), c.current, c.target, c.step)
}
