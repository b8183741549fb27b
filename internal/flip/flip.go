// Package flip synthesizes the intermediate frames of a split-flap card
// turning from one character to the next.
package flip

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/gift"
)

// Frames is one transition: index i is the image for step i. The settled
// image of the destination character is not included; it is frame 0 of the
// next transition.
type Frames [4]*image.RGBA

// Synthesizer builds Frames from two rendered cards.
type Synthesizer struct {
	// Divider is the colour of the one-pixel edge drawn under a moving flap.
	Divider color.RGBA
	// Inset keeps the divider clear of the card's rounded corners.
	Inset int
}

// Synthesize returns the four frames of the initial → final flip.
//
//	0: initial
//	1: frame 2 with the initial top half squashed into H/4..H/2 (falling flap)
//	2: top half of final over bottom half of initial (flap fully open)
//	3: frame 2 with the final bottom half squashed into H/2..3H/4
//
// The result depends only on the inputs.
func (s Synthesizer) Synthesize(initial, final image.Image) (Frames, error) {
	ib, fb := initial.Bounds(), final.Bounds()
	if ib.Size() != fb.Size() {
		return Frames{}, fmt.Errorf("flip: size mismatch %v vs %v", ib.Size(), fb.Size())
	}
	w, h := ib.Dx(), ib.Dy()
	if w == 0 || h == 0 {
		return Frames{}, fmt.Errorf("flip: empty image %v", ib.Size())
	}
	half, quarter := h/2, h/4

	var out Frames
	out[0] = clone(initial)

	out[2] = clone(initial)
	draw.Draw(out[2], image.Rect(0, 0, w, half), final, fb.Min, draw.Src)

	out[1] = clone(out[2])
	out[3] = clone(out[2])
	if quarter == 0 {
		return out, nil
	}

	topOfInitial := squash(initial, image.Rect(ib.Min.X, ib.Min.Y, ib.Max.X, ib.Min.Y+half), w, quarter)
	draw.Draw(out[1], image.Rect(0, quarter, w, 2*quarter), topOfInitial, image.Point{}, draw.Src)
	s.divider(out[1], quarter)

	bottomOfFinal := squash(final, image.Rect(fb.Min.X, fb.Min.Y+half, fb.Max.X, fb.Max.Y), w, quarter)
	draw.Draw(out[3], image.Rect(0, half, w, half+quarter), bottomOfFinal, image.Point{}, draw.Src)
	s.divider(out[3], (3*h)/4)

	return out, nil
}

func (s Synthesizer) divider(img *image.RGBA, y int) {
	w := img.Bounds().Dx()
	x0, x1 := s.Inset, w-s.Inset
	if x0 >= x1 {
		x0, x1 = 0, w
	}
	draw.Draw(img, image.Rect(x0, y, x1, y+1), &image.Uniform{C: s.Divider}, image.Point{}, draw.Src)
}

// squash resamples region r of src to w×h.
func squash(src image.Image, r image.Rectangle, w, h int) *image.RGBA {
	region := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(region, region.Bounds(), src, r.Min, draw.Src)

	g := gift.New(gift.Resize(w, h, gift.CubicResampling))
	// Sequential filtering keeps the output bit-for-bit reproducible.
	g.SetParallelization(false)
	dst := image.NewRGBA(g.Bounds(region.Bounds()))
	g.Draw(dst, region)
	return dst
}

// clone copies src into a fresh RGBA with a zero origin.
func clone(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
