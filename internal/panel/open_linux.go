//go:build linux

package panel

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"flipclock/internal/config"
)

// Device is an opened panel together with the SPI port it owns.
type Device struct {
	*Display
	port spi.PortCloser
}

// Open initializes periph.io, opens the configured SPI port and GPIO pins
// and returns an initialized display.
func Open(cfg config.PanelConfig) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("panel: periph host init failed: %w", err)
	}

	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("panel: failed to open SPI port %q: %w", cfg.SPIPort, err)
	}

	c, err := port.Connect(physic.Frequency(cfg.SpeedHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("panel: failed to connect SPI: %w", err)
	}

	outPin := func(name string, required bool) (gpio.PinOut, error) {
		if name == "" {
			if required {
				return nil, fmt.Errorf("panel: required gpio not configured")
			}
			return nil, nil
		}
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("panel: gpio %s not found", name)
		}
		if err := p.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("panel: gpio %s Out failed: %w", name, err)
		}
		return p, nil
	}

	dc, err := outPin(cfg.DCPin, true)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	rst, err := outPin(cfg.RSTPin, false)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	bl, err := outPin(cfg.BLPin, false)
	if err != nil {
		_ = port.Close()
		return nil, err
	}

	opts := Options{
		Width:   cfg.Width,
		Height:  cfg.Height,
		OffsetX: cfg.OffsetX,
		OffsetY: cfg.OffsetY,
	}
	if l, ok := c.(conn.Limits); ok {
		opts.MaxTx = l.MaxTxSize()
	}
	// A nil gpio.PinOut must stay a nil Pin.
	if rst != nil {
		opts.Reset = rst
	}
	if bl != nil {
		opts.Light = bl
	}

	d := NewDisplay(c, dc, opts)
	if err := d.Init(); err != nil {
		_ = port.Close()
		return nil, err
	}
	return &Device{Display: d, port: port}, nil
}

// Close blanks the panel and releases the SPI port.
func (d *Device) Close() error {
	sleepErr := d.Sleep()
	if err := d.port.Close(); err != nil {
		return err
	}
	return sleepErr
}
