// Package glyph rasterizes flip-clock cards and the static decorations
// around them. Text goes through freetype; shapes through draw2d.
package glyph

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// sizingText is the widest string the screen has to hold.
const sizingText = "12:34"

var ErrNoFit = errors.New("glyph: no font size fits the screen")

// Layout is the result of fitting the clock onto a screen.
type Layout struct {
	FontSize    float64
	DigitWidth  int
	DigitHeight int
}

// LoadFont parses a TrueType file. An empty path selects the embedded Go
// Regular face.
func LoadFont(path string) (*truetype.Font, error) {
	return loadFont(path, goregular.TTF)
}

// LoadLogoFont is LoadFont with Go Bold as the fallback.
func LoadLogoFont(path string) (*truetype.Font, error) {
	return loadFont(path, gobold.TTF)
}

func loadFont(path string, fallback []byte) (*truetype.Font, error) {
	data := fallback
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("glyph: read font: %w", err)
		}
		data = b
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("glyph: parse font %q: %w", path, err)
	}
	return f, nil
}

// NewFace returns a face of the given pixel size.
func NewFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// ComputeLayout finds the largest font size, stepping down by 2 from the
// usable height, at which "12:34" fits inside the padded screen, and sizes a
// single digit card from the bounding box of "0". Odd card dimensions are
// rounded up so the card splits evenly at the fold.
func ComputeLayout(f *truetype.Font, screenW, screenH, padLR, padTB int) (Layout, error) {
	maxW := screenW - 2*padLR
	maxH := screenH - 2*padTB
	if maxW <= 0 || maxH <= 0 {
		return Layout{}, fmt.Errorf("%w: usable area %dx%d", ErrNoFit, maxW, maxH)
	}

	var face font.Face
	size := maxH
	for ; size > 0; size -= 2 {
		face = NewFace(f, float64(size))
		b, _ := font.BoundString(face, sizingText)
		if (b.Max.X-b.Min.X).Ceil() < maxW && (b.Max.Y-b.Min.Y).Ceil() < maxH {
			break
		}
	}
	if size <= 0 {
		return Layout{}, ErrNoFit
	}

	b, _ := font.BoundString(face, "0")
	w := b.Max.X.Ceil()
	h := (face.Metrics().Ascent + b.Max.Y).Ceil()

	return Layout{
		FontSize:    float64(size),
		DigitWidth:  w + w&1,
		DigitHeight: h + h&1,
	}, nil
}
