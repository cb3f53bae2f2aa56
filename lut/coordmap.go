// Package lut encodes per-pixel sampling coordinates into a fixed-point
// coordinate map that a fragment shader can decode.
//
// Each pixel stores two 16-bit values, x then y, little-endian:
//
//	[x_lo, x_hi, y_lo, y_hi]
//
// which is exactly the byte layout of an RGBA8 texel. A shader reading the
// texel as normalized channels reconstructs x = g + r/255 and y = a + b/255.
package lut

import (
	"errors"
	"fmt"
	"math"
)

// BytesPerPixel is the size of one packed coordinate pair.
const BytesPerPixel = 4

// MaxValue is the fixed-point value of the normalized coordinate 1.0.
const MaxValue = math.MaxUint16

// Errors returned by map construction and filling.
var (
	// ErrInvalidSize is returned for non-positive map dimensions.
	ErrInvalidSize = errors.New("lut: invalid size")

	// ErrSizeMismatch is returned when two maps or a map and a mapper
	// disagree on dimensions.
	ErrSizeMismatch = errors.New("lut: size mismatch")
)

// CoordinateMap is a width x height grid of packed source coordinates.
// The backing slice is allocated once by New and only ever overwritten.
type CoordinateMap struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates a zeroed coordinate map.
func New(width, height int) (*CoordinateMap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &CoordinateMap{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*BytesPerPixel),
	}, nil
}

// Stride returns the number of bytes per row.
func (m *CoordinateMap) Stride() int {
	return m.Width * BytesPerPixel
}

// Bytes returns the packed pixel data, row-major.
func (m *CoordinateMap) Bytes() []byte {
	return m.Pix
}

// offset returns the byte offset of pixel (x, y).
func (m *CoordinateMap) offset(x, y int) int {
	return (y*m.Width + x) * BytesPerPixel
}

// Set packs the normalized coordinate (sx, sy) at pixel (x, y).
func (m *CoordinateMap) Set(x, y int, sx, sy float64) {
	Pack(m.Pix[m.offset(x, y):], sx, sy)
}

// At returns the fixed-point pair stored at pixel (x, y).
func (m *CoordinateMap) At(x, y int) (ux, uy uint16) {
	i := m.offset(x, y)
	p := m.Pix[i : i+BytesPerPixel : i+BytesPerPixel]
	return uint16(p[0]) | uint16(p[1])<<8, uint16(p[2]) | uint16(p[3])<<8
}

// Normalized returns the coordinate at pixel (x, y) decoded the way the
// remap shader decodes it.
func (m *CoordinateMap) Normalized(x, y int) (sx, sy float64) {
	return Unpack(m.Pix[m.offset(x, y):])
}

// Quantize converts a normalized coordinate to fixed point, clamping to
// [0, 1] first. NaN quantizes to 0.
func Quantize(v float64) uint16 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 1:
		return MaxValue
	}
	return uint16(math.Round(v * MaxValue))
}

// Pack writes the fixed-point pair for (sx, sy) into dst[0:4].
func Pack(dst []byte, sx, sy float64) {
	ux, uy := Quantize(sx), Quantize(sy)
	dst = dst[:BytesPerPixel:BytesPerPixel]
	dst[0] = byte(ux)
	dst[1] = byte(ux >> 8)
	dst[2] = byte(uy)
	dst[3] = byte(uy >> 8)
}

// Unpack decodes src[0:4] as the remap shader does: each channel is read
// as c/255 and the coordinate is hi + lo/255.
func Unpack(src []byte) (sx, sy float64) {
	src = src[:BytesPerPixel:BytesPerPixel]
	sx = decodeAxis(src[0], src[1])
	sy = decodeAxis(src[2], src[3])
	return sx, sy
}

func decodeAxis(lo, hi byte) float64 {
	return float64(hi)/255 + float64(lo)/(255*255)
}
