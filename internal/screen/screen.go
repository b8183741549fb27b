// Package screen places the clock images on a display and composes full
// frames from pre-generated assets.
package screen

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"flipclock/internal/clockface"
	"flipclock/internal/model"
	"flipclock/internal/runner"
)

// Gaps around the logo and colon, in pixels.
const (
	logoPadLeft  = 1
	logoPadRight = 8
	colonPad     = 1
)

// Source looks up an asset image by name, e.g. "340" or "colon1".
type Source interface {
	Image(name string) (*image.RGBA, error)
}

// Layout is the position of every element on the screen. Empty rectangles
// are elements that are not shown.
type Layout struct {
	Size         image.Point
	Logo         image.Rectangle
	Digits       [clockface.NumCells]image.Rectangle
	Colon        image.Rectangle
	TopButton    image.Rectangle
	BottomButton image.Rectangle
}

// Sizes are the dimensions of the images to lay out. Zero Logo or Button
// leaves that element out.
type Sizes struct {
	Digit  image.Point
	Colon  image.Point
	Logo   image.Point
	Button image.Point
}

// NewLayout centres one row on the screen, left to right: logo, the two hour
// digits, colon, the two minute digits and the stacked buttons.
func NewLayout(screen image.Point, s Sizes) Layout {
	width := 4*s.Digit.X + s.Colon.X + 2*colonPad
	if s.Logo != (image.Point{}) {
		width += logoPadLeft + s.Logo.X + logoPadRight
	}
	width += s.Button.X

	x := max((screen.X-width)/2, 0)
	y := max((screen.Y-s.Digit.Y)/2, 0)
	row := func(w, h int) image.Rectangle {
		r := image.Rect(x, y+(s.Digit.Y-h)/2, x+w, y+(s.Digit.Y-h)/2+h)
		x += w
		return r
	}

	l := Layout{Size: screen}
	if s.Logo != (image.Point{}) {
		x += logoPadLeft
		l.Logo = row(s.Logo.X, s.Logo.Y)
		x += logoPadRight
	}
	l.Digits[clockface.HourTens] = row(s.Digit.X, s.Digit.Y)
	l.Digits[clockface.HourOnes] = row(s.Digit.X, s.Digit.Y)
	x += colonPad
	l.Colon = row(s.Colon.X, s.Colon.Y)
	x += colonPad
	l.Digits[clockface.MinuteTens] = row(s.Digit.X, s.Digit.Y)
	l.Digits[clockface.MinuteOnes] = row(s.Digit.X, s.Digit.Y)
	if s.Button != (image.Point{}) {
		l.TopButton = image.Rect(x, y, x+s.Button.X, y+s.Button.Y)
		l.BottomButton = image.Rect(x, y+s.Digit.Y-s.Button.Y, x+s.Button.X, y+s.Digit.Y)
	}
	return l
}

// Region is one image to draw at one place.
type Region struct {
	Name string
	Rect image.Rectangle
}

// Screen composes clock states from a Source.
type Screen struct {
	src    Source
	layout Layout
	bg     color.RGBA
}

// New measures the assets in src and lays them out on a size screen. The
// logo and buttons are optional; digit and colon frames are not.
func New(src Source, size image.Point, bg color.RGBA) (*Screen, error) {
	var s Sizes
	digitImg, err := src.Image(model.Settled('0').Name())
	if err != nil {
		return nil, fmt.Errorf("screen: digit frame: %w", err)
	}
	s.Digit = digitImg.Bounds().Size()

	colonImg, err := src.Image(model.ColonOn)
	if err != nil {
		return nil, fmt.Errorf("screen: colon frame: %w", err)
	}
	s.Colon = colonImg.Bounds().Size()

	if img, err := src.Image(model.Logo); err == nil {
		s.Logo = img.Bounds().Size()
	}
	if img, err := src.Image(model.TopButton); err == nil {
		s.Button = img.Bounds().Size()
	}

	return &Screen{src: src, layout: NewLayout(size, s), bg: bg}, nil
}

func (s *Screen) Layout() Layout { return s.layout }

func (s *Screen) Background() color.RGBA { return s.bg }

// Static lists the images that never change.
func (s *Screen) Static() []Region {
	var out []Region
	if !s.layout.Logo.Empty() {
		out = append(out, Region{Name: model.Logo, Rect: s.layout.Logo})
	}
	if !s.layout.TopButton.Empty() {
		out = append(out,
			Region{Name: model.TopButton, Rect: s.layout.TopButton},
			Region{Name: model.BottomButton, Rect: s.layout.BottomButton},
		)
	}
	return out
}

// Dynamic lists the digit and colon images of st.
func (s *Screen) Dynamic(st runner.State) []Region {
	out := make([]Region, 0, clockface.NumCells+1)
	for i, name := range st.Frames {
		out = append(out, Region{Name: name, Rect: s.layout.Digits[i]})
	}
	return append(out, Region{Name: st.ColonName(), Rect: s.layout.Colon})
}

// Changes lists the regions that differ between prev and next. A nil prev
// means nothing is on screen yet.
func (s *Screen) Changes(prev *runner.State, next runner.State) []Region {
	if prev == nil {
		return append(s.Static(), s.Dynamic(next)...)
	}
	var out []Region
	for i := range next.Frames {
		if next.Frames[i] != prev.Frames[i] {
			out = append(out, Region{Name: next.Frames[i], Rect: s.layout.Digits[i]})
		}
	}
	if next.Colon != prev.Colon {
		out = append(out, Region{Name: next.ColonName(), Rect: s.layout.Colon})
	}
	return out
}

// Compose draws the whole screen for st.
func (s *Screen) Compose(st runner.State) (*image.RGBA, error) {
	dst := image.NewRGBA(image.Rectangle{Max: s.layout.Size})
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: s.bg}, image.Point{}, draw.Src)
	for _, r := range append(s.Static(), s.Dynamic(st)...) {
		img, err := s.src.Image(r.Name)
		if err != nil {
			return nil, fmt.Errorf("screen: %s: %w", r.Name, err)
		}
		draw.Draw(dst, r.Rect, img, img.Bounds().Min, draw.Src)
	}
	return dst, nil
}

// Image returns the asset for r.
func (s *Screen) Image(r Region) (*image.RGBA, error) {
	return s.src.Image(r.Name)
}
