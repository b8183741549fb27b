package convert

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
)

// RGB565 asset file layout (all integers big-endian):
//
//	0x00  "R565" magic
//	0x04  int32 width
//	0x08  int32 height
//	0x0C  int32 reserved (0)
//	0x10  width*height uint16 pixels, row-major, top-to-bottom
//
// Big-endian pixels can be streamed to the panel controller without
// swapping, even though the host MCU is little-endian.
const (
	Magic      = "R565"
	HeaderSize = 16

	// MaxDimension bounds the width and height accepted by the decoder.
	MaxDimension = 4096
)

var (
	ErrBadMagic  = errors.New("convert: not an R565 file")
	ErrBadSize   = errors.New("convert: invalid image dimensions")
	ErrTruncated = errors.New("convert: truncated pixel data")
)

// Pack565 truncates 8-bit channels to 5/6/5 bits.
func Pack565(r, g, b uint8) uint16 {
	return uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b&0xF8)>>3
}

// Unpack565 expands a packed pixel back to 8-bit channels, replicating the
// high bits into the vacated low bits.
func Unpack565(v uint16) (r, g, b uint8) {
	r5 := uint8(v >> 11 & 0x1F)
	g6 := uint8(v >> 5 & 0x3F)
	b5 := uint8(v & 0x1F)
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

// EncodedSize returns the file size for a w×h image.
func EncodedSize(w, h int) int {
	return HeaderSize + 2*w*h
}

// Encode serialises img into the RGB565 asset format.
func Encode(img image.Image) []byte {
	var buf bytes.Buffer
	b := img.Bounds()
	buf.Grow(EncodedSize(b.Dx(), b.Dy()))
	// bytes.Buffer writes never fail.
	_ = EncodeTo(&buf, img)
	return buf.Bytes()
}

// EncodeTo writes img to w in the RGB565 asset format. Only errors from w
// are returned.
func EncodeTo(w io.Writer, img image.Image) error {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	var hdr [HeaderSize]byte
	copy(hdr[0:4], Magic)
	binary.BigEndian.PutUint32(hdr[4:8], uint32(int32(width)))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(int32(height)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	row := make([]byte, 2*width)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		packRow(row, img, y)
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// packRow fills dst with the packed pixels of row y. Alpha is dropped from
// the non-premultiplied colour, whatever the concrete image type.
func packRow(dst []byte, img image.Image, y int) {
	b := img.Bounds()

	// Fast path for the buffers produced by the frame synthesizer: opaque
	// Pix bytes are already non-premultiplied.
	if rgba, ok := img.(*image.RGBA); ok {
		off := rgba.PixOffset(b.Min.X, y)
		for px := 0; px < b.Dx(); px++ {
			i := off + px*4
			r, g, bl := rgba.Pix[i+0], rgba.Pix[i+1], rgba.Pix[i+2]
			if a := rgba.Pix[i+3]; a != 0xFF {
				c := color.NRGBAModel.Convert(color.RGBA{R: r, G: g, B: bl, A: a}).(color.NRGBA)
				r, g, bl = c.R, c.G, c.B
			}
			binary.BigEndian.PutUint16(dst[px*2:], Pack565(r, g, bl))
		}
		return
	}

	for px := 0; px < b.Dx(); px++ {
		c := color.NRGBAModel.Convert(img.At(b.Min.X+px, y)).(color.NRGBA)
		binary.BigEndian.PutUint16(dst[px*2:], Pack565(c.R, c.G, c.B))
	}
}

// WriteFile encodes img to path.
func WriteFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := EncodeTo(w, img); err != nil {
		f.Close()
		return fmt.Errorf("convert: write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("convert: write %s: %w", path, err)
	}
	return f.Close()
}

// DecodeConfig reads only the header.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return image.Config{}, ErrBadMagic
		}
		return image.Config{}, err
	}
	if string(hdr[0:4]) != Magic {
		return image.Config{}, ErrBadMagic
	}
	w := int32(binary.BigEndian.Uint32(hdr[4:8]))
	h := int32(binary.BigEndian.Uint32(hdr[8:12]))
	if w <= 0 || h <= 0 || w > MaxDimension || h > MaxDimension {
		return image.Config{}, fmt.Errorf("%w: %dx%d", ErrBadSize, w, h)
	}
	return image.Config{ColorModel: color.RGBAModel, Width: int(w), Height: int(h)}, nil
}

// Decode reads an RGB565 asset back into an opaque RGBA image.
func Decode(r io.Reader) (*image.RGBA, error) {
	cfg, err := DecodeConfig(r)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	row := make([]byte, 2*cfg.Width)
	for y := 0; y < cfg.Height; y++ {
		if _, err := io.ReadFull(r, row); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: row %d of %d", ErrTruncated, y, cfg.Height)
			}
			return nil, err
		}
		off := img.PixOffset(0, y)
		for x := 0; x < cfg.Width; x++ {
			rr, gg, bb := Unpack565(binary.BigEndian.Uint16(row[x*2:]))
			i := off + x*4
			img.Pix[i+0] = rr
			img.Pix[i+1] = gg
			img.Pix[i+2] = bb
			img.Pix[i+3] = 0xFF
		}
	}
	return img, nil
}

// ReadFile decodes the asset at path.
func ReadFile(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("convert: read %s: %w", path, err)
	}
	return img, nil
}

// Pixels returns the raw big-endian pixel stream of img without the header,
// as sent to the panel's frame memory.
func Pixels(img image.Image) []byte {
	b := img.Bounds()
	out := make([]byte, 2*b.Dx()*b.Dy())
	stride := 2 * b.Dx()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := (y - b.Min.Y) * stride
		packRow(out[off:off+stride], img, y)
	}
	return out
}

func init() {
	image.RegisterFormat("r565", Magic, func(r io.Reader) (image.Image, error) {
		return Decode(r)
	}, DecodeConfig)
}
