package glyph

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipclock/internal/digit"
)

func testCards(t *testing.T) (*Cards, Layout) {
	t.Helper()
	f, err := LoadFont("")
	require.NoError(t, err)

	layout, err := ComputeLayout(f, 320, 170, 20, 20)
	require.NoError(t, err)

	return NewCards(NewFace(f, layout.FontSize), layout.DigitWidth, layout.DigitHeight, DefaultStyle()), layout
}

func TestComputeLayout(t *testing.T) {
	_, layout := testCards(t)

	assert.Greater(t, layout.FontSize, 0.0)
	assert.LessOrEqual(t, layout.FontSize, 130.0)
	assert.Zero(t, layout.DigitWidth%2)
	assert.Zero(t, layout.DigitHeight%2)
	assert.Less(t, layout.DigitWidth*4, 320)
}

func TestComputeLayoutRejectsTinyScreen(t *testing.T) {
	f, err := LoadFont("")
	require.NoError(t, err)

	_, err = ComputeLayout(f, 30, 30, 20, 20)
	assert.ErrorIs(t, err, ErrNoFit)
}

func TestLoadFontMissingFile(t *testing.T) {
	_, err := LoadFont("/nonexistent/font.ttf")
	assert.Error(t, err)
}

func TestRasterizeCard(t *testing.T) {
	cards, layout := testCards(t)

	img, err := cards.Rasterize('8')
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, layout.DigitWidth, layout.DigitHeight), img.Bounds())

	style := DefaultStyle()
	mid := layout.DigitHeight / 2
	assert.Equal(t, style.Separator, img.RGBAAt(layout.DigitWidth/2, mid), "fold line crosses the middle")
	assert.Equal(t, style.ScreenBG, img.RGBAAt(0, 0), "rounded corner shows the screen")
	assert.True(t, hasColor(img, style.DigitFG), "glyph pixels drawn")
}

func TestRasterizeBlankHasNoGlyph(t *testing.T) {
	cards, _ := testCards(t)

	img, err := cards.Rasterize(digit.Blank)
	require.NoError(t, err)
	assert.False(t, hasColor(img, DefaultStyle().DigitFG))
}

func TestRasterizeIsDeterministic(t *testing.T) {
	cards, _ := testCards(t)

	a, err := cards.Rasterize('5')
	require.NoError(t, err)
	b, err := cards.Rasterize('5')
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestColon(t *testing.T) {
	cards, layout := testCards(t)

	off, err := cards.Colon(false)
	require.NoError(t, err)
	on, err := cards.Colon(true)
	require.NoError(t, err)

	assert.Equal(t, off.Bounds(), on.Bounds())
	assert.Equal(t, layout.DigitHeight, on.Bounds().Dy())
	assert.False(t, hasColor(off, DefaultStyle().DigitFG))

	w := on.Bounds().Dx()
	assert.Equal(t, DefaultStyle().DigitFG, on.RGBAAt(w/2, layout.DigitHeight/4))
	assert.Equal(t, DefaultStyle().DigitFG, on.RGBAAt(w/2, layout.DigitHeight-layout.DigitHeight/4))
}

func TestButtonsAndLogo(t *testing.T) {
	cards, layout := testCards(t)

	top, err := cards.Button(true)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, layout.DigitWidth/2, layout.DigitHeight/2), top.Bounds())
	assert.True(t, hasColor(top, DefaultStyle().ButtonFG))

	_, err = cards.Logo()
	assert.Error(t, err, "logo needs a face")

	lf, err := LoadLogoFont("")
	require.NoError(t, err)
	cards.SetLogo(NewFace(lf, float64(layout.DigitWidth/2-4)), "LILYGO")
	logo, err := cards.Logo()
	require.NoError(t, err)
	assert.Equal(t, layout.DigitWidth/2, logo.Bounds().Dx(), "rotated strip is half a card wide")
	assert.Equal(t, layout.DigitHeight, logo.Bounds().Dy())
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#696969")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x69, G: 0x69, B: 0x69, A: 0xFF}, c)

	c, err = ParseColor("White")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, c)

	_, err = ParseColor("not-a-colour")
	assert.Error(t, err)
}

func hasColor(img *image.RGBA, c color.RGBA) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) == c {
				return true
			}
		}
	}
	return false
}
