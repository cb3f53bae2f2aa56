package lut

import (
	"fmt"
	"sync"

	"github.com/gogpu/dewarp/camera"
	"github.com/gogpu/dewarp/internal/parallel"
)

// rowPool is shared by every Fill call in the process.
var rowPool = sync.OnceValue(func() *parallel.WorkerPool {
	return parallel.NewWorkerPool(0)
})

// CoordinateFunc returns the normalized source coordinate for output
// pixel (x, y).
type CoordinateFunc func(x, y int) (sx, sy float64)

// Encode allocates a map and fills it from fn.
func Encode(width, height int, fn CoordinateFunc) (*CoordinateMap, error) {
	m, err := New(width, height)
	if err != nil {
		return nil, err
	}
	m.Fill(fn)
	return m, nil
}

// Fill overwrites every pixel of m. Rows are filled in parallel bands, so
// fn must be safe for concurrent calls.
func (m *CoordinateMap) Fill(fn CoordinateFunc) {
	stride := m.Stride()
	parallel.Rows(rowPool(), m.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			i := y * stride
			for x := 0; x < m.Width; x++ {
				sx, sy := fn(x, y)
				Pack(m.Pix[i:], sx, sy)
				i += BytesPerPixel
			}
		}
	})
}

// EncodeModel overwrites m with the sampling coordinates of model, zoom
// and clamping included.
func (m *CoordinateMap) EncodeModel(model camera.Model) error {
	mp, err := camera.NewMapper(model, m.Width, m.Height)
	if err != nil {
		return fmt.Errorf("lut: encode %s: %w", kindOf(model), err)
	}
	m.Fill(mp.Source)
	return nil
}

func kindOf(model camera.Model) string {
	if model == nil {
		return "nil model"
	}
	return model.Kind().String()
}

// Diff counts the pixels whose packed coordinates differ between a and b.
func Diff(a, b *CoordinateMap) (int, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return 0, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, a.Width, a.Height, b.Width, b.Height)
	}
	n := 0
	for i := 0; i < len(a.Pix); i += BytesPerPixel {
		if a.Pix[i] != b.Pix[i] || a.Pix[i+1] != b.Pix[i+1] ||
			a.Pix[i+2] != b.Pix[i+2] || a.Pix[i+3] != b.Pix[i+3] {
			n++
		}
	}
	return n, nil
}

// CopyFrom overwrites m with the content of src without reallocating.
func (m *CoordinateMap) CopyFrom(src *CoordinateMap) error {
	if m.Width != src.Width || m.Height != src.Height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, m.Width, m.Height, src.Width, src.Height)
	}
	copy(m.Pix, src.Pix)
	return nil
}
