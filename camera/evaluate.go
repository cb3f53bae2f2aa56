package camera

import (
	"fmt"
	"math"
)

// Mapper evaluates one model over a fixed resolution. The camera matrix
// and its inverse are computed once so that per-pixel evaluation does no
// allocation.
type Mapper struct {
	model  Model
	width  float64
	height float64
	zoom   float64
	in     Intrinsics
	inv    [9]float64
}

// NewMapper validates m and prepares it for a width x height image.
func NewMapper(m Model, width, height int) (*Mapper, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidResolution, width, height)
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	mp := &Mapper{
		model:  m,
		width:  float64(width),
		height: float64(height),
		zoom:   ZoomOf(m),
	}
	switch v := m.(type) {
	case Undistort:
		mp.in = NewIntrinsics(v.FocalLength, width, height)
	case Fisheye:
		mp.in = NewIntrinsics(v.FocalLength, width, height)
	case Omnidir:
		mp.in = NewIntrinsics(v.FocalLength, width, height)
	default:
		return mp, nil
	}
	inv, err := rectifyInverse(mp.in.Matrix(), identity3())
	if err != nil {
		return nil, err
	}
	mp.inv = inv
	return mp, nil
}

// Model returns the model the mapper was built from.
func (mp *Mapper) Model() Model { return mp.model }

// Size returns the resolution the mapper was built for.
func (mp *Mapper) Size() (width, height int) {
	return int(mp.width), int(mp.height)
}

// Map returns the normalized source coordinate of output pixel (x, y)
// before zoom. Values may fall outside [0, 1] and are NaN when the model
// has no finite image for the pixel.
func (mp *Mapper) Map(x, y int) (sx, sy float64) {
	fx, fy := float64(x), float64(y)
	if _, ok := mp.model.(Linear); ok {
		return fx / mp.width, fy / mp.height
	}

	inv := &mp.inv
	rx := inv[0]*fx + inv[1]*fy + inv[2]
	ry := inv[3]*fx + inv[4]*fy + inv[5]
	rw := inv[6]*fx + inv[7]*fy + inv[8]

	var u, v float64
	switch m := mp.model.(type) {
	case Undistort:
		u, v = mp.undistort(m, rx/rw, ry/rw)
	case Fisheye:
		u, v = mp.fisheye(m, rx/rw, ry/rw)
	case Omnidir:
		u, v = mp.omnidir(m, rx, ry, rw)
	}
	sx, sy = u/mp.width, v/mp.height
	if !finite(sx) || !finite(sy) {
		return math.NaN(), math.NaN()
	}
	return sx, sy
}

// Source returns the final sampling coordinate for output pixel (x, y):
// the mapped coordinate with zoom applied and clamped to [0, 1].
func (mp *Mapper) Source(x, y int) (sx, sy float64) {
	sx, sy = mp.Map(x, y)
	if _, ok := mp.model.(Linear); ok {
		return clamp01(sx), clamp01(sy)
	}
	return ApplyZoom(sx, mp.zoom), ApplyZoom(sy, mp.zoom)
}

// undistort applies radial and tangential distortion to a ray on the
// normalized plane and projects it to pixels.
func (mp *Mapper) undistort(m Undistort, x, y float64) (u, v float64) {
	k1, k2, k3 := m.Radial[0], m.Radial[1], m.Radial[2]
	p1, p2 := m.Tangential[0], m.Tangential[1]

	x2, y2 := x*x, y*y
	r2 := x2 + y2
	xy2 := 2 * x * y
	kr := 1 + ((k3*r2+k2)*r2+k1)*r2

	xd := x*kr + p1*xy2 + p2*(r2+2*x2)
	yd := y*kr + p1*(r2+2*y2) + p2*xy2
	return mp.in.Project(xd, yd)
}

// fisheye applies the equidistant angle polynomial.
func (mp *Mapper) fisheye(m Fisheye, x, y float64) (u, v float64) {
	r := math.Sqrt(x*x + y*y)
	theta := math.Atan(r)
	t2 := theta * theta
	t4 := t2 * t2
	t6 := t4 * t2
	t8 := t4 * t4
	thetaD := theta * (1 + m.K[0]*t2 + m.K[1]*t4 + m.K[2]*t6 + m.K[3]*t8)

	scale := 1.0
	if r != 0 {
		scale = thetaD / r
	}
	return mp.in.Project(x*scale, y*scale)
}

// omnidir lifts the ray onto the unit sphere, reprojects it through the
// mirror offset xi and applies radial and tangential distortion.
func (mp *Mapper) omnidir(m Omnidir, rx, ry, rw float64) (u, v float64) {
	r := math.Sqrt(rx*rx + ry*ry + rw*rw)
	xs, ys, zs := rx/r, ry/r, rw/r

	xu := xs / (zs + m.Xi)
	yu := ys / (zs + m.Xi)

	k1, k2 := m.K[0], m.K[1]
	p1, p2 := m.P[0], m.P[1]
	r2 := xu*xu + yu*yu
	r4 := r2 * r2
	radial := 1 + k1*r2 + k2*r4

	xd := radial*xu + 2*p1*xu*yu + p2*(r2+2*xu*xu)
	yd := radial*yu + p1*(r2+2*yu*yu) + 2*p2*xu*yu
	return mp.in.Project(xd, yd)
}

// Evaluate maps output pixel (x, y) of a width x height image to its
// normalized source coordinate under m, before zoom.
func Evaluate(m Model, x, y, width, height int) (sx, sy float64, err error) {
	mp, err := NewMapper(m, width, height)
	if err != nil {
		return 0, 0, err
	}
	sx, sy = mp.Map(x, y)
	return sx, sy, nil
}

// ApplyZoom recenters v around 0.5 by zoom and clamps the result to
// [0, 1]. NaN maps to 0.
func ApplyZoom(v, zoom float64) float64 {
	if zoom == 1 {
		return clamp01(v)
	}
	return clamp01((v-0.5)*zoom + 0.5)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
