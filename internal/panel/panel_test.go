package panel

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"

	"flipclock/internal/runner"
	"flipclock/internal/screen"
)

type op struct {
	dc   gpio.Level
	data []byte
}

// bus records every SPI transfer with the DC level at the time.
type bus struct {
	dc   gpio.Level
	ops  []op
	fail error
}

func (b *bus) Tx(w, _ []byte) error {
	if b.fail != nil {
		return b.fail
	}
	b.ops = append(b.ops, op{dc: b.dc, data: append([]byte(nil), w...)})
	return nil
}

type dcPin struct{ b *bus }

func (p dcPin) Out(l gpio.Level) error {
	p.b.dc = l
	return nil
}

type levelPin struct{ levels []gpio.Level }

func (p *levelPin) Out(l gpio.Level) error {
	p.levels = append(p.levels, l)
	return nil
}

func newTestDisplay(opts Options) (*Display, *bus, *[]time.Duration) {
	b := &bus{}
	d := NewDisplay(b, dcPin{b}, opts)
	var slept []time.Duration
	d.sleep = func(t time.Duration) { slept = append(slept, t) }
	return d, b, &slept
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

var red = color.RGBA{R: 0xFF, A: 0xFF}

func TestInitSequence(t *testing.T) {
	rst, bl := &levelPin{}, &levelPin{}
	d, b, slept := newTestDisplay(Options{Width: 240, Height: 135, Reset: rst, Light: bl})
	require.NoError(t, d.Init())

	assert.Equal(t, []gpio.Level{gpio.High, gpio.Low, gpio.High}, rst.levels)
	assert.Equal(t, []gpio.Level{gpio.High}, bl.levels)
	assert.Equal(t, []op{
		{gpio.Low, []byte{cmdSWRESET}},
		{gpio.Low, []byte{cmdSLPOUT}},
		{gpio.Low, []byte{cmdCOLMOD}},
		{gpio.High, []byte{colmod16}},
		{gpio.Low, []byte{cmdMADCTL}},
		{gpio.High, []byte{madctlLandscape}},
		{gpio.Low, []byte{cmdINVON}},
		{gpio.Low, []byte{cmdNORON}},
		{gpio.Low, []byte{cmdDISPON}},
	}, b.ops)
	assert.Contains(t, *slept, 150*time.Millisecond)
}

func TestInitReportsBusError(t *testing.T) {
	d, b, _ := newTestDisplay(Options{Width: 10, Height: 10})
	b.fail = errors.New("spi gone")
	err := d.Init()
	assert.ErrorIs(t, err, b.fail)
}

func TestBlitSetsWindowAndChunksPixels(t *testing.T) {
	d, b, _ := newTestDisplay(Options{Width: 10, Height: 5, OffsetX: 40, OffsetY: 53, MaxTx: 8})
	require.NoError(t, d.Blit(image.Rect(2, 1, 5, 3), solid(3, 2, red)))

	require.Len(t, b.ops, 7)
	assert.Equal(t, op{gpio.Low, []byte{cmdCASET}}, b.ops[0])
	assert.Equal(t, op{gpio.High, []byte{0, 42, 0, 44}}, b.ops[1])
	assert.Equal(t, op{gpio.Low, []byte{cmdRASET}}, b.ops[2])
	assert.Equal(t, op{gpio.High, []byte{0, 54, 0, 55}}, b.ops[3])
	assert.Equal(t, op{gpio.Low, []byte{cmdRAMWR}}, b.ops[4])

	// 6 pixels, 12 bytes, sent as 8 + 4; RGB565 big-endian.
	assert.Equal(t, gpio.High, b.ops[5].dc)
	assert.Len(t, b.ops[5].data, 8)
	assert.Len(t, b.ops[6].data, 4)
	assert.Equal(t, []byte{0xF8, 0x00}, b.ops[6].data[:2])
}

func TestBlitClipsToScreen(t *testing.T) {
	d, b, _ := newTestDisplay(Options{Width: 10, Height: 5})
	require.NoError(t, d.Blit(image.Rect(9, 4, 11, 6), solid(2, 2, red)))
	assert.Equal(t, []byte{0, 9, 0, 9}, b.ops[1].data)
	assert.Equal(t, []byte{0, 4, 0, 4}, b.ops[3].data)
	assert.Equal(t, []byte{0xF8, 0x00}, b.ops[5].data)

	b.ops = nil
	require.NoError(t, d.Blit(image.Rect(20, 20, 22, 22), solid(2, 2, red)))
	assert.Empty(t, b.ops)
}

func TestFill(t *testing.T) {
	d, b, _ := newTestDisplay(Options{Width: 10, Height: 5, MaxTx: 8})
	require.NoError(t, d.Fill(color.RGBA{R: 0x69, G: 0x69, B: 0x69, A: 0xFF}))

	data := b.ops[5:]
	// Five rows of 20 bytes, each as 8 + 8 + 4.
	require.Len(t, data, 15)
	assert.Equal(t, []byte{0x6B, 0x4D}, data[0].data[:2])
}

func TestSleep(t *testing.T) {
	bl := &levelPin{}
	d, b, _ := newTestDisplay(Options{Width: 10, Height: 5, Light: bl})
	require.NoError(t, d.Sleep())
	assert.Equal(t, []gpio.Level{gpio.Low}, bl.levels)
	assert.Equal(t, []op{{gpio.Low, []byte{cmdDISPOFF}}, {gpio.Low, []byte{cmdSLPIN}}}, b.ops)
}

type mapSource map[string]*image.RGBA

func (m mapSource) Image(name string) (*image.RGBA, error) {
	if img, ok := m[name]; ok {
		return img, nil
	}
	return nil, errors.New("missing " + name)
}

type blit struct {
	rect image.Rectangle
	img  image.Image
}

type fakeBlitter struct {
	fills []color.RGBA
	blits []blit
	fail  error
}

func (f *fakeBlitter) Fill(c color.RGBA) error {
	f.fills = append(f.fills, c)
	return nil
}

func (f *fakeBlitter) Blit(r image.Rectangle, img image.Image) error {
	if f.fail != nil {
		return f.fail
	}
	f.blits = append(f.blits, blit{r, img})
	return nil
}

func testScreen(t *testing.T) (*screen.Screen, mapSource) {
	t.Helper()
	src := mapSource{
		"000":    solid(4, 8, red),
		"110":    solid(4, 8, red),
		"120":    solid(4, 8, red),
		"121":    solid(4, 8, red),
		"colon0": solid(2, 8, red),
		"colon1": solid(2, 8, red),
	}
	s, err := screen.New(src, image.Pt(40, 20), color.RGBA{A: 0xFF})
	require.NoError(t, err)
	return s, src
}

func TestSinkDrawsOnlyChanges(t *testing.T) {
	s, src := testScreen(t)
	dev := &fakeBlitter{}
	sink := NewSink(s, dev)

	st := runner.State{Frames: [4]string{"000", "110", "000", "110"}}
	require.NoError(t, sink.Update(st))
	assert.Len(t, dev.fills, 1)
	assert.Len(t, dev.blits, 5)

	dev.blits = nil
	st.Frames[3] = "121"
	require.NoError(t, sink.Update(st))
	require.Len(t, dev.blits, 1)
	assert.Equal(t, s.Layout().Digits[3], dev.blits[0].rect)
	assert.Same(t, src["121"], dev.blits[0].img)

	dev.blits = nil
	require.NoError(t, sink.Update(st))
	assert.Empty(t, dev.blits)
	assert.Len(t, dev.fills, 1)
}

func TestSinkRedrawsAfterFailure(t *testing.T) {
	s, _ := testScreen(t)
	dev := &fakeBlitter{}
	sink := NewSink(s, dev)

	st := runner.State{Frames: [4]string{"000", "110", "000", "110"}}
	require.NoError(t, sink.Update(st))

	st.Frames[3] = "999"
	assert.Error(t, sink.Update(st))

	st.Frames[3] = "110"
	dev.blits = nil
	require.NoError(t, sink.Update(st))
	assert.Len(t, dev.fills, 2)
	assert.Len(t, dev.blits, 5)
	assert.Equal(t, "panel", sink.Name())
}
