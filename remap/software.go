package remap

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/dewarp/lut"
	"github.com/gogpu/dewarp/video"
)

// Software is the CPU reference stage. It follows the shader math:
// linear filtering with clamp-to-edge addressing for the video planes and
// surface A, exact texel reads for the coordinate map.
type Software struct {
	width, height int

	// coords holds the decoded map as (x, y) pairs in texture space.
	coords []float32

	a, b      *image.RGBA
	processed bool
	closed    bool
}

var _ Stage = (*Software)(nil)

// NewSoftware returns a CPU stage for w×h video.
func NewSoftware(w, h int) (*Software, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: surface %dx%d", ErrSizeMismatch, w, h)
	}
	rect := image.Rect(0, 0, w, h)
	return &Software{
		width:  w,
		height: h,
		a:      image.NewRGBA(rect),
		b:      image.NewRGBA(rect),
	}, nil
}

// Size implements Stage.
func (s *Software) Size() (int, int) { return s.width, s.height }

// UploadLUT decodes m the way the remap shader does.
func (s *Software) UploadLUT(m *lut.CoordinateMap) error {
	if s.closed {
		return ErrClosed
	}
	if m == nil || m.Width != s.width || m.Height != s.height {
		return fmt.Errorf("%w: map does not match %dx%d surfaces", ErrSizeMismatch, s.width, s.height)
	}
	if s.coords == nil {
		s.coords = make([]float32, 2*s.width*s.height)
	}
	for i := 0; i < s.width*s.height; i++ {
		x, y := lut.Unpack(m.Pix[i*lut.BytesPerPixel:])
		s.coords[2*i] = float32(x)
		s.coords[2*i+1] = float32(y)
	}
	return nil
}

// Process implements Stage.
func (s *Software) Process(f *video.Frame) error {
	if s.closed {
		return ErrClosed
	}
	if s.coords == nil {
		return ErrNoLUT
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Width != s.width || f.Height != s.height {
		return fmt.Errorf("%w: frame %dx%d, surfaces %dx%d", ErrSizeMismatch, f.Width, f.Height, s.width, s.height)
	}
	s.convert(f)
	s.remap()
	s.processed = true
	return nil
}

// convert is the color conversion pass into surface A.
func (s *Software) convert(f *video.Frame) {
	cw, ch := f.ChromaSize()
	w, h := s.width, s.height
	for y := 0; y < h; y++ {
		v := (float64(y) + 0.5) / float64(h)
		row := s.a.Pix[y*s.a.Stride:]
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			// Luma is sampled at texel centers and needs no filtering.
			yy := float64(f.YAt(x, y)) / 255
			cu := samplePlane(f.U, f.UVStride, cw, ch, u, v)
			cv := samplePlane(f.V, f.UVStride, cw, ch, u, v)
			r, g, b := video.ToRGB(yy, cu, cv)
			px := row[4*x : 4*x+4 : 4*x+4]
			px[0] = unorm8(r)
			px[1] = unorm8(g)
			px[2] = unorm8(b)
			px[3] = 0xFF
		}
	}
}

// remap is the remap pass from surface A into surface B.
func (s *Software) remap() {
	w, h := s.width, s.height
	for y := 0; y < h; y++ {
		row := s.b.Pix[y*s.b.Stride:]
		for x := 0; x < w; x++ {
			i := 2 * (y*w + x)
			sampleRGBA(s.a, float64(s.coords[i]), float64(s.coords[i+1]), row[4*x:4*x+4:4*x+4])
		}
	}
}

// ReadSurfaces implements Stage.
func (s *Software) ReadSurfaces(converted, dewarped *image.RGBA) error {
	if s.closed {
		return ErrClosed
	}
	if !s.processed {
		return ErrNotProcessed
	}
	for _, pair := range [2][2]*image.RGBA{{converted, s.a}, {dewarped, s.b}} {
		dst, src := pair[0], pair[1]
		if dst == nil {
			continue
		}
		if dst.Rect.Dx() != s.width || dst.Rect.Dy() != s.height {
			return fmt.Errorf("%w: image %v, surfaces %dx%d", ErrSizeMismatch, dst.Rect, s.width, s.height)
		}
		for y := 0; y < s.height; y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+4*s.width], src.Pix[y*src.Stride:])
		}
	}
	return nil
}

// Close implements Stage.
func (s *Software) Close() error {
	s.closed = true
	s.coords = nil
	return nil
}

// samplePlane samples an 8-bit plane of w×h texels at normalized (u, v)
// with bilinear filtering and clamp-to-edge addressing.
func samplePlane(p []byte, stride, w, h int, u, v float64) float64 {
	x0, x1, fx := texels(u, w)
	y0, y1, fy := texels(v, h)
	r0, r1 := p[y0*stride:], p[y1*stride:]
	top := lerp(float64(r0[x0]), float64(r0[x1]), fx)
	bot := lerp(float64(r1[x0]), float64(r1[x1]), fx)
	return lerp(top, bot, fy) / 255
}

// sampleRGBA samples img at normalized (u, v) into dst.
func sampleRGBA(img *image.RGBA, u, v float64, dst []byte) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	x0, x1, fx := texels(u, w)
	y0, y1, fy := texels(v, h)
	p00 := img.Pix[y0*img.Stride+4*x0:]
	p10 := img.Pix[y0*img.Stride+4*x1:]
	p01 := img.Pix[y1*img.Stride+4*x0:]
	p11 := img.Pix[y1*img.Stride+4*x1:]
	for c := 0; c < 4; c++ {
		top := lerp(float64(p00[c]), float64(p10[c]), fx)
		bot := lerp(float64(p01[c]), float64(p11[c]), fx)
		dst[c] = byte(math.Round(lerp(top, bot, fy)))
	}
}

// texels returns the two texel indices and blend weight for linear
// filtering at normalized coordinate t across n texels.
func texels(t float64, n int) (i0, i1 int, f float64) {
	pos := t*float64(n) - 0.5
	fl := math.Floor(pos)
	f = pos - fl
	i0 = clampIndex(int(fl), n)
	i1 = clampIndex(int(fl)+1, n)
	return i0, i1, f
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func unorm8(v float64) byte { return byte(math.Round(v * 255)) }
