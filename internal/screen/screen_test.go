package screen

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipclock/internal/clockface"
	"flipclock/internal/runner"
)

type mapSource map[string]*image.RGBA

func (m mapSource) Image(name string) (*image.RGBA, error) {
	if img, ok := m[name]; ok {
		return img, nil
	}
	return nil, errors.New("missing " + name)
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

var (
	black = color.RGBA{A: 0xFF}
	grey  = color.RGBA{R: 0x69, G: 0x69, B: 0x69, A: 0xFF}
	white = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	red   = color.RGBA{R: 0xFF, A: 0xFF}
)

func fullSource() mapSource {
	return mapSource{
		"000":           solid(4, 8, grey),
		"110":           solid(4, 8, grey),
		"220":           solid(4, 8, white),
		"330":           solid(4, 8, grey),
		"341":           solid(4, 8, red),
		"colon0":        solid(2, 8, black),
		"colon1":        solid(2, 8, white),
		"logo":          solid(4, 8, red),
		"top_button":    solid(2, 4, red),
		"bottom_button": solid(2, 4, red),
	}
}

func state(frames [4]string, colon bool) runner.State {
	return runner.State{Frames: frames, Colon: colon}
}

func TestNewLayoutCentresRow(t *testing.T) {
	l := NewLayout(image.Pt(40, 20), Sizes{
		Digit:  image.Pt(4, 8),
		Colon:  image.Pt(2, 8),
		Logo:   image.Pt(4, 8),
		Button: image.Pt(2, 4),
	})

	assert.Equal(t, image.Rect(3, 6, 7, 14), l.Logo)
	assert.Equal(t, image.Rect(15, 6, 19, 14), l.Digits[clockface.HourTens])
	assert.Equal(t, image.Rect(19, 6, 23, 14), l.Digits[clockface.HourOnes])
	assert.Equal(t, image.Rect(24, 6, 26, 14), l.Colon)
	assert.Equal(t, image.Rect(27, 6, 31, 14), l.Digits[clockface.MinuteTens])
	assert.Equal(t, image.Rect(31, 6, 35, 14), l.Digits[clockface.MinuteOnes])
	assert.Equal(t, image.Rect(35, 6, 37, 10), l.TopButton)
	assert.Equal(t, image.Rect(35, 10, 37, 14), l.BottomButton)
}

func TestNewLayoutWithoutDecorations(t *testing.T) {
	l := NewLayout(image.Pt(20, 8), Sizes{Digit: image.Pt(4, 8), Colon: image.Pt(2, 8)})
	assert.True(t, l.Logo.Empty())
	assert.True(t, l.TopButton.Empty())
	assert.Equal(t, image.Rect(0, 0, 4, 8), l.Digits[clockface.HourTens])
	assert.Equal(t, image.Rect(16, 0, 20, 8), l.Digits[clockface.MinuteOnes])
}

func TestNewRequiresDigitAndColon(t *testing.T) {
	_, err := New(mapSource{}, image.Pt(40, 20), black)
	assert.Error(t, err)

	_, err = New(mapSource{"000": solid(4, 8, grey)}, image.Pt(40, 20), black)
	assert.Error(t, err)

	s, err := New(mapSource{"000": solid(4, 8, grey), "colon1": solid(2, 8, white)}, image.Pt(40, 20), black)
	require.NoError(t, err)
	assert.Empty(t, s.Static())
}

func TestChanges(t *testing.T) {
	s, err := New(fullSource(), image.Pt(40, 20), black)
	require.NoError(t, err)

	first := state([4]string{"110", "220", "330", "330"}, false)
	all := s.Changes(nil, first)
	assert.Len(t, all, 3+4+1)

	next := state([4]string{"110", "220", "330", "341"}, true)
	diff := s.Changes(&first, next)
	require.Len(t, diff, 2)
	assert.Equal(t, Region{Name: "341", Rect: s.Layout().Digits[clockface.MinuteOnes]}, diff[0])
	assert.Equal(t, "colon1", diff[1].Name)

	assert.Empty(t, s.Changes(&next, next))
}

func TestCompose(t *testing.T) {
	s, err := New(fullSource(), image.Pt(40, 20), black)
	require.NoError(t, err)

	img, err := s.Compose(state([4]string{"110", "220", "330", "341"}, true))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 20), img.Bounds())

	assert.Equal(t, black, img.RGBAAt(0, 0))
	assert.Equal(t, red, img.RGBAAt(4, 10))   // logo
	assert.Equal(t, grey, img.RGBAAt(16, 10)) // hour tens
	assert.Equal(t, white, img.RGBAAt(20, 10))
	assert.Equal(t, white, img.RGBAAt(25, 10)) // lit colon
	assert.Equal(t, black, img.RGBAAt(23, 10)) // colon pad
	assert.Equal(t, red, img.RGBAAt(32, 10))   // flipping minute ones
	assert.Equal(t, red, img.RGBAAt(36, 7))    // top button

	_, err = s.Compose(state([4]string{"110", "220", "330", "999"}, true))
	assert.Error(t, err)
}
