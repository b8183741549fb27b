package assets

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"flipclock/internal/convert"
)

// Format is an output encoding for generated frames.
type Format string

const (
	FormatRGB565 Format = "rgb565"
	FormatPNG    Format = "png"
	FormatBMP    Format = "bmp"
	FormatJPEG   Format = "jpg"
)

// ParseFormat accepts rgb565, png, bmp, jpg or jpeg.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rgb565", "r565":
		return FormatRGB565, nil
	case "png":
		return FormatPNG, nil
	case "bmp":
		return FormatBMP, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("assets: unknown output format %q", s)
}

// Ext is the file extension, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// Path returns <dir>/<name>.<ext>.
func (f Format) Path(dir, name string) string {
	return filepath.Join(dir, name+"."+f.Ext())
}

// Save writes img to path in this format.
func (f Format) Save(path string, img image.Image) error {
	if f == FormatRGB565 {
		return convert.WriteFile(path, img)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)

	switch f {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	default:
		err = fmt.Errorf("assets: unknown output format %q", string(f))
	}
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
