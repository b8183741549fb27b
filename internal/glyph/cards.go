package glyph

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/gift"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"flipclock/internal/digit"
)

var ErrNoGlyph = errors.New("glyph: character not in font")

// Style holds the colours and geometry shared by every generated image.
type Style struct {
	ScreenBG  color.RGBA
	DigitBG   color.RGBA
	DigitFG   color.RGBA
	Separator color.RGBA
	ButtonFG  color.RGBA
	LogoFG    color.RGBA

	Radius    int // card corner radius
	FoldWidth int // thickness of the fold line across the card middle
	ButtonPad int
}

// DefaultStyle mirrors the LilyGo T-Display look: white digits on dim grey
// cards over a black screen.
func DefaultStyle() Style {
	return Style{
		ScreenBG:  MustParseColor("black"),
		DigitBG:   MustParseColor("#696969"),
		DigitFG:   MustParseColor("white"),
		Separator: MustParseColor("black"),
		ButtonFG:  MustParseColor("orange"),
		LogoFG:    MustParseColor("#404040"),
		Radius:    10,
		FoldWidth: 4,
		ButtonPad: 8,
	}
}

// Cards renders digit cards of a fixed size, plus the colon, button and
// logo images sized to match them.
type Cards struct {
	face  font.Face
	size  image.Point
	style Style

	logoFace font.Face
	logoText string
}

// NewCards returns a renderer for width×height cards.
func NewCards(face font.Face, width, height int, style Style) *Cards {
	return &Cards{face: face, size: image.Pt(width, height), style: style}
}

// SetLogo configures the text and face used by Logo.
func (c *Cards) SetLogo(face font.Face, text string) {
	c.logoFace = face
	c.logoText = text
}

// Size returns the card dimensions.
func (c *Cards) Size() image.Point { return c.size }

// Rasterize draws ch on a rounded card with a fold line across the middle.
// digit.Blank yields an empty card.
func (c *Cards) Rasterize(ch rune) (*image.RGBA, error) {
	if ch != digit.Blank {
		if _, ok := c.face.GlyphAdvance(ch); !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoGlyph, ch)
		}
	}

	w, h := c.size.X, c.size.Y
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), c.style.ScreenBG)

	gc := draw2dimg.NewGraphicContext(img)
	gc.SetFillColor(c.style.DigitBG)
	r := float64(2 * c.style.Radius)
	draw2dkit.RoundedRectangle(gc, 0, 0, float64(w), float64(h), r, r)
	gc.Fill()

	mid := h / 2
	if ch != digit.Blank {
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(c.style.DigitFG),
			Face: c.face,
			Dot:  fixed.Point26_6{X: 0, Y: middleBaseline(c.face, mid)},
		}
		d.DrawString(string(ch))
	}

	fw := c.style.FoldWidth
	if fw > 0 {
		top := mid - fw/2
		fill(img, image.Rect(0, top, w, top+fw), c.style.Separator)
	}
	return img, nil
}

// Colon returns the separator between hours and minutes. The unlit colon is
// an empty strip; the lit one has two dots a quarter of the height from the
// top and bottom.
func (c *Cards) Colon(lit bool) (*image.RGBA, error) {
	adv, ok := c.face.GlyphAdvance(':')
	if !ok {
		return nil, fmt.Errorf("%w: ':'", ErrNoGlyph)
	}
	w, h := adv.Floor(), c.size.Y
	if w <= 0 {
		return nil, fmt.Errorf("glyph: colon has no width")
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), c.style.ScreenBG)
	if !lit {
		return img, nil
	}

	gc := draw2dimg.NewGraphicContext(img)
	gc.SetFillColor(c.style.DigitFG)
	dotR := float64(w / 4)
	cx := float64(w / 2)
	upper := h / 4
	draw2dkit.Circle(gc, cx, float64(upper), dotR)
	gc.Fill()
	gc.BeginPath()
	draw2dkit.Circle(gc, cx, float64(h-upper), dotR)
	gc.Fill()
	return img, nil
}

// Button draws one of the two round case buttons shown beside the digits.
// Each is half a card high so the pair stacks next to a card.
func (c *Cards) Button(top bool) (*image.RGBA, error) {
	w, h := c.size.X/2, c.size.Y/2
	pad := c.style.ButtonPad
	bw := w - 2*pad
	if bw <= 0 || h <= 0 {
		return nil, fmt.Errorf("glyph: card %v too small for buttons", c.size)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), c.style.ScreenBG)

	y0 := pad
	if !top {
		y0 = h - pad - bw
	}
	half := float64(bw) / 2
	gc := draw2dimg.NewGraphicContext(img)
	gc.SetFillColor(c.style.ButtonFG)
	draw2dkit.Ellipse(gc, float64(pad)+half, float64(y0)+half, half, half)
	gc.Fill()
	return img, nil
}

// Logo renders the logo text horizontally on a card-high strip and turns
// it a quarter counter-clockwise so it reads bottom-to-top.
func (c *Cards) Logo() (*image.RGBA, error) {
	if c.logoFace == nil || c.logoText == "" {
		return nil, errors.New("glyph: logo not configured")
	}
	w, h := c.size.Y, c.size.X/2
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), c.style.ScreenBG)

	adv := font.MeasureString(c.logoFace, c.logoText)
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c.style.LogoFG),
		Face: c.logoFace,
		Dot: fixed.Point26_6{
			X: (fixed.I(w) - adv) / 2,
			Y: middleBaseline(c.logoFace, h/2),
		},
	}
	d.DrawString(c.logoText)

	g := gift.New(gift.Rotate90())
	g.SetParallelization(false)
	out := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(out, img)
	return out, nil
}

// middleBaseline returns the baseline that centres the face's ascent and
// descent on row mid.
func middleBaseline(face font.Face, mid int) fixed.Int26_6 {
	m := face.Metrics()
	return fixed.I(mid) + (m.Ascent-m.Descent)/2
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}
