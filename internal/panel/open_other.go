//go:build !linux

package panel

import "flipclock/internal/config"

// Device is never available off linux.
type Device struct {
	*Display
}

// Open always fails on this platform.
func Open(config.PanelConfig) (*Device, error) {
	return nil, ErrUnavailable
}

func (d *Device) Close() error { return nil }
