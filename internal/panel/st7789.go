// Package panel drives an ST7789 TFT over SPI and keeps it in step with the
// clock, redrawing only the cells that changed.
package panel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3/gpio"

	"flipclock/internal/convert"
)

// ST7789 commands used by the driver.
const (
	cmdSWRESET = 0x01
	cmdSLPOUT  = 0x11
	cmdNORON   = 0x13
	cmdINVON   = 0x21
	cmdDISPOFF = 0x28
	cmdDISPON  = 0x29
	cmdCASET   = 0x2A
	cmdRASET   = 0x2B
	cmdRAMWR   = 0x2C
	cmdMADCTL  = 0x36
	cmdCOLMOD  = 0x3A
	cmdSLPIN   = 0x10
)

// MADCTL: row/column exchange plus column mirror gives landscape with the
// connector on the left.
const madctlLandscape = 0x60

// colmod16 selects 16 bits per pixel (RGB565) on both interfaces.
const colmod16 = 0x55

// defaultMaxTx is what spidev accepts per transfer unless told otherwise.
const defaultMaxTx = 4096

var ErrUnavailable = errors.New("panel: SPI panel not available on this platform")

// Conn is the part of spi.Conn the driver needs.
type Conn interface {
	Tx(w, r []byte) error
}

// Pin is the part of gpio.PinOut the driver needs.
type Pin interface {
	Out(l gpio.Level) error
}

// Display is an ST7789 controller. It is not safe for concurrent use.
type Display struct {
	conn  Conn
	dc    Pin
	rst   Pin // optional
	bl    Pin // optional
	maxTx int

	width, height    int
	offsetX, offsetY int

	sleep func(time.Duration)
}

// Options describes the visible window and wiring extras.
type Options struct {
	Width, Height    int
	OffsetX, OffsetY int
	// MaxTx caps a single SPI transfer; 0 means 4096 bytes.
	MaxTx int
	Reset Pin
	Light Pin
}

// NewDisplay wraps an already connected SPI conn and DC pin.
func NewDisplay(conn Conn, dc Pin, opts Options) *Display {
	if opts.MaxTx <= 0 {
		opts.MaxTx = defaultMaxTx
	}
	return &Display{
		conn:    conn,
		dc:      dc,
		rst:     opts.Reset,
		bl:      opts.Light,
		maxTx:   opts.MaxTx,
		width:   opts.Width,
		height:  opts.Height,
		offsetX: opts.OffsetX,
		offsetY: opts.OffsetY,
		sleep:   time.Sleep,
	}
}

// Bounds is the visible area.
func (d *Display) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.width, d.height)
}

// Init resets the controller and puts it in landscape RGB565 mode with the
// backlight on.
func (d *Display) Init() error {
	if d.rst != nil {
		for _, step := range []struct {
			l gpio.Level
			t time.Duration
		}{{gpio.High, 10 * time.Millisecond}, {gpio.Low, 10 * time.Millisecond}, {gpio.High, 120 * time.Millisecond}} {
			if err := d.rst.Out(step.l); err != nil {
				return fmt.Errorf("panel: reset: %w", err)
			}
			d.sleep(step.t)
		}
	}

	seq := []struct {
		cmd   byte
		data  []byte
		delay time.Duration
	}{
		{cmdSWRESET, nil, 150 * time.Millisecond},
		{cmdSLPOUT, nil, 120 * time.Millisecond},
		{cmdCOLMOD, []byte{colmod16}, 10 * time.Millisecond},
		{cmdMADCTL, []byte{madctlLandscape}, 0},
		{cmdINVON, nil, 10 * time.Millisecond},
		{cmdNORON, nil, 10 * time.Millisecond},
		{cmdDISPON, nil, 10 * time.Millisecond},
	}
	for _, s := range seq {
		if err := d.command(s.cmd, s.data...); err != nil {
			return fmt.Errorf("panel: init 0x%02X: %w", s.cmd, err)
		}
		if s.delay > 0 {
			d.sleep(s.delay)
		}
	}

	if d.bl != nil {
		if err := d.bl.Out(gpio.High); err != nil {
			return fmt.Errorf("panel: backlight: %w", err)
		}
	}
	return nil
}

// Fill paints the whole visible area one colour.
func (d *Display) Fill(c color.RGBA) error {
	r := d.Bounds()
	px := convert.Pack565(c.R, c.G, c.B)
	row := make([]byte, 2*r.Dx())
	for i := 0; i < len(row); i += 2 {
		row[i], row[i+1] = byte(px>>8), byte(px)
	}
	if err := d.window(r); err != nil {
		return err
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for y := 0; y < r.Dy(); y++ {
		if err := d.write(row); err != nil {
			return fmt.Errorf("panel: fill: %w", err)
		}
	}
	return nil
}

// Blit copies img into r. The image is clipped to the visible area.
func (d *Display) Blit(r image.Rectangle, img image.Image) error {
	clip := r.Intersect(d.Bounds())
	if clip.Empty() {
		return nil
	}
	src := img.Bounds().Min.Add(clip.Min.Sub(r.Min))
	sub := image.NewRGBA(image.Rectangle{Max: clip.Size()})
	draw.Draw(sub, sub.Bounds(), img, src, draw.Src)

	if err := d.window(clip); err != nil {
		return err
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	if err := d.write(convert.Pixels(sub)); err != nil {
		return fmt.Errorf("panel: blit %v: %w", clip, err)
	}
	return nil
}

// Sleep turns the display off and puts the controller to sleep.
func (d *Display) Sleep() error {
	if d.bl != nil {
		_ = d.bl.Out(gpio.Low)
	}
	if err := d.command(cmdDISPOFF); err != nil {
		return err
	}
	return d.command(cmdSLPIN)
}

// window sets the column and row address range and starts a RAM write.
func (d *Display) window(r image.Rectangle) error {
	x0, x1 := uint16(r.Min.X+d.offsetX), uint16(r.Max.X-1+d.offsetX)
	y0, y1 := uint16(r.Min.Y+d.offsetY), uint16(r.Max.Y-1+d.offsetY)
	if err := d.command(cmdCASET, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.command(cmdRASET, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	return d.command(cmdRAMWR)
}

// command sends cmd with DC low and its parameters with DC high.
func (d *Display) command(cmd byte, data ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.conn.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	return d.write(data)
}

// write sends p in chunks no larger than maxTx.
func (d *Display) write(p []byte) error {
	for len(p) > 0 {
		n := min(len(p), d.maxTx)
		if err := d.conn.Tx(p[:n], nil); err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
