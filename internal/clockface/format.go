package clockface

import (
	"fmt"
	"strings"

	"flipclock/internal/digit"
)

// DisplayFormat selects how hours are shown.
type DisplayFormat int

const (
	Format24Hour DisplayFormat = iota
	Format12Hour
	// Format12HourBlank is 12-hour with a blank instead of a leading zero.
	Format12HourBlank

	numFormats
)

type formatInfo struct {
	name     string
	label    string
	hourTens digit.Alphabet
}

var formats = [numFormats]formatInfo{
	Format24Hour:      {name: "24h", label: "24-hour", hourTens: digit.HourTens24},
	Format12Hour:      {name: "12h", label: "12-hour", hourTens: digit.HourTens12},
	Format12HourBlank: {name: "12h-blank", label: "12-hour leading blank", hourTens: digit.HourTens12Lead},
}

// Formats lists every supported format in cycling order.
func Formats() []DisplayFormat {
	return []DisplayFormat{Format24Hour, Format12Hour, Format12HourBlank}
}

// Valid reports whether f is one of the known formats.
func (f DisplayFormat) Valid() bool {
	return f >= 0 && f < numFormats
}

// HourTens returns the alphabet of the tens-hour cell.
func (f DisplayFormat) HourTens() digit.Alphabet {
	return formats[f].hourTens
}

// Label is a human-readable description.
func (f DisplayFormat) Label() string {
	if !f.Valid() {
		return "unknown"
	}
	return formats[f].label
}

func (f DisplayFormat) String() string {
	if !f.Valid() {
		return fmt.Sprintf("DisplayFormat(%d)", int(f))
	}
	return formats[f].name
}

// Next returns the following format, wrapping around.
func (f DisplayFormat) Next() DisplayFormat {
	return (f + 1) % numFormats
}

// NormalizeHour maps any hour onto the range shown by f: 0..23 for 24-hour,
// 1..12 for the 12-hour variants.
func (f DisplayFormat) NormalizeHour(h int) int {
	h %= 24
	if h < 0 {
		h += 24
	}
	if f == Format24Hour {
		return h
	}
	if h > 12 {
		h -= 12
	} else if h == 0 {
		h = 12
	}
	return h
}

// ParseDisplayFormat accepts "24h", "12h" or "12h-blank" (case-insensitive).
func ParseDisplayFormat(s string) (DisplayFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, fi := range formats {
		if fi.name == s {
			return DisplayFormat(i), nil
		}
	}
	return 0, fmt.Errorf("clockface: unknown display format %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f DisplayFormat) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("clockface: invalid display format %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *DisplayFormat) UnmarshalText(b []byte) error {
	v, err := ParseDisplayFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
