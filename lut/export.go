package lut

import (
	"fmt"
	"image"
	"io"

	"golang.org/x/image/tiff"
)

// Image wraps the map as an NRGBA image whose channels are the packed
// bytes. The image shares memory with m.
func (m *CoordinateMap) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    m.Pix,
		Stride: m.Stride(),
		Rect:   image.Rect(0, 0, m.Width, m.Height),
	}
}

// WriteTIFF writes the map as an uncompressed 8-bit RGBA TIFF. The file
// preserves the packed bytes exactly.
func WriteTIFF(w io.Writer, m *CoordinateMap) error {
	if err := tiff.Encode(w, m.Image(), &tiff.Options{Compression: tiff.Uncompressed}); err != nil {
		return fmt.Errorf("lut: encode tiff: %w", err)
	}
	return nil
}

// ReadTIFF decodes a map written by WriteTIFF.
func ReadTIFF(r io.Reader) (*CoordinateMap, error) {
	img, err := tiff.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("lut: decode tiff: %w", err)
	}
	b := img.Bounds()
	m, err := New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		return nil, fmt.Errorf("lut: tiff is %T, want 8-bit RGBA", img)
	}
	for y := 0; y < m.Height; y++ {
		row := y * nrgba.Stride
		copy(m.Pix[y*m.Stride():], nrgba.Pix[row:row+m.Stride()])
	}
	return m, nil
}
