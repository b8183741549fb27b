package glyph

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// namedColors covers the names used by the default configuration.
var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"dimgray": "#696969",
	"gray":    "#808080",
	"orange":  "#ffa500",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
}

// ParseColor accepts "#rrggbb", "#rgb" or one of a few CSS names.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[s]; ok {
		s = hex
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("glyph: bad color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}, nil
}

// MustParseColor is ParseColor for compile-time constants.
func MustParseColor(s string) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
