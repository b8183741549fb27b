package flip

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.RGBA{R: 0xFF, A: 0xFF}
	blue  = color.RGBA{B: 0xFF, A: 0xFF}
	black = color.RGBA{A: 0xFF}
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// striped returns an image whose rows differ, so resampling has something
// to work on.
func striped(w, h int, seed uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(y*7) + seed, G: uint8(x * 5), B: seed, A: 0xFF})
		}
	}
	return img
}

func rowIs(img *image.RGBA, y int, c color.RGBA) bool {
	for x := 0; x < img.Bounds().Dx(); x++ {
		if img.RGBAAt(x, y) != c {
			return false
		}
	}
	return true
}

func TestSynthesizeComposition(t *testing.T) {
	const w, h = 8, 16
	s := Synthesizer{Divider: black}
	frames, err := s.Synthesize(solid(w, h, red), solid(w, h, blue))
	require.NoError(t, err)

	// Frame 0: initial untouched.
	for y := 0; y < h; y++ {
		require.True(t, rowIs(frames[0], y, red), "frame 0 row %d", y)
	}

	// Frame 2: final on top, initial below.
	for y := 0; y < h; y++ {
		want := red
		if y < h/2 {
			want = blue
		}
		require.True(t, rowIs(frames[2], y, want), "frame 2 row %d", y)
	}

	// Frame 1: falling initial flap in H/4..H/2, divider at H/4.
	for y := 0; y < h; y++ {
		var want color.RGBA
		switch {
		case y == h/4:
			want = black
		case y < h/4:
			want = blue
		default:
			want = red
		}
		require.True(t, rowIs(frames[1], y, want), "frame 1 row %d", y)
	}

	// Frame 3: final bottom half squashed into H/2..3H/4, divider at 3H/4.
	for y := 0; y < h; y++ {
		var want color.RGBA
		switch {
		case y == 3*h/4:
			want = black
		case y < 3*h/4:
			want = blue
		default:
			want = red
		}
		require.True(t, rowIs(frames[3], y, want), "frame 3 row %d", y)
	}
}

func TestSynthesizeDividerInset(t *testing.T) {
	const w, h = 20, 8
	s := Synthesizer{Divider: black, Inset: 3}
	frames, err := s.Synthesize(solid(w, h, red), solid(w, h, red))
	require.NoError(t, err)

	assert.Equal(t, red, frames[1].RGBAAt(2, h/4))
	assert.Equal(t, black, frames[1].RGBAAt(3, h/4))
	assert.Equal(t, black, frames[1].RGBAAt(w-4, h/4))
	assert.Equal(t, red, frames[1].RGBAAt(w-3, h/4))
}

func TestSynthesizeIsPure(t *testing.T) {
	s := Synthesizer{Divider: black, Inset: 2}
	one, two := striped(12, 20, 10), striped(12, 20, 90)

	a, err := s.Synthesize(one, two)
	require.NoError(t, err)
	b, err := s.Synthesize(one, two)
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, a[i].Pix, b[i].Pix, "frame %d", i)
	}
}

func TestSynthesizeDoesNotModifyInputs(t *testing.T) {
	one, two := striped(6, 12, 1), striped(6, 12, 2)
	oneCopy := append([]uint8(nil), one.Pix...)
	twoCopy := append([]uint8(nil), two.Pix...)

	_, err := Synthesizer{}.Synthesize(one, two)
	require.NoError(t, err)
	assert.Equal(t, oneCopy, one.Pix)
	assert.Equal(t, twoCopy, two.Pix)
}

func TestSynthesizeOffsetBounds(t *testing.T) {
	big := solid(30, 30, red)
	sub := big.SubImage(image.Rect(5, 5, 15, 25))

	frames, err := Synthesizer{Divider: black}.Synthesize(sub, solid(10, 20, blue))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 20), frames[0].Bounds())
	assert.True(t, rowIs(frames[0], 0, red))
}

func TestSynthesizeSizeMismatch(t *testing.T) {
	_, err := Synthesizer{}.Synthesize(solid(4, 4, red), solid(4, 5, red))
	assert.Error(t, err)
}
