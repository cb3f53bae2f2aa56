package camera

import "math"

const (
	inverseMaxIterations = 20
	inverseTolerance     = 1e-10
)

// UndistortPoint maps a distorted source pixel (u, v) of a width x height
// image back to the output pixel that samples it, inverting the
// Brown-Conrady model by fixed-point iteration. The second result reports
// whether the iteration converged.
func UndistortPoint(m Undistort, u, v float64, width, height int) (x, y float64, ok bool) {
	in := NewIntrinsics(m.FocalLength, width, height)
	x0, y0 := in.Normalize(u, v)

	k1, k2, k3 := m.Radial[0], m.Radial[1], m.Radial[2]
	p1, p2 := m.Tangential[0], m.Tangential[1]

	xu, yu := x0, y0
	for i := 0; i < inverseMaxIterations; i++ {
		r2 := xu*xu + yu*yu
		icdist := 1 / (1 + ((k3*r2+k2)*r2+k1)*r2)
		dx := 2*p1*xu*yu + p2*(r2+2*xu*xu)
		dy := p1*(r2+2*yu*yu) + 2*p2*xu*yu

		nx := (x0 - dx) * icdist
		ny := (y0 - dy) * icdist
		if !finite(nx) || !finite(ny) {
			return math.NaN(), math.NaN(), false
		}
		done := math.Abs(nx-xu) < inverseTolerance && math.Abs(ny-yu) < inverseTolerance
		xu, yu = nx, ny
		if done {
			ox, oy := in.Project(xu, yu)
			return ox, oy, true
		}
	}
	ox, oy := in.Project(xu, yu)
	return ox, oy, false
}
