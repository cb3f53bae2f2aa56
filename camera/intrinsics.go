package camera

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Intrinsics is the pinhole camera matrix used by every distortion model:
// a single focal length for both axes and the principal point at the
// image center.
type Intrinsics struct {
	FocalLength float64
	CX, CY      float64
}

// NewIntrinsics centers the principal point on a width x height image.
func NewIntrinsics(focal float64, width, height int) Intrinsics {
	return Intrinsics{
		FocalLength: focal,
		CX:          float64(width) / 2,
		CY:          float64(height) / 2,
	}
}

// Matrix returns K as a 3x3 dense matrix.
func (in Intrinsics) Matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		in.FocalLength, 0, in.CX,
		0, in.FocalLength, in.CY,
		0, 0, 1,
	})
}

// Project maps a point on the normalized image plane to pixels.
func (in Intrinsics) Project(x, y float64) (u, v float64) {
	return in.FocalLength*x + in.CX, in.FocalLength*y + in.CY
}

// Normalize maps a pixel to the normalized image plane.
func (in Intrinsics) Normalize(u, v float64) (x, y float64) {
	return (u - in.CX) / in.FocalLength, (v - in.CY) / in.FocalLength
}

// rectifyInverse returns (P*R)^-1 in row-major order, where P is the new
// camera matrix of the rectified view and R the rectification rotation.
// The player always rectifies into the original camera (P = K, R = I).
func rectifyInverse(newK, rot mat.Matrix) ([9]float64, error) {
	var out [9]float64

	var pr mat.Dense
	pr.Mul(newK, rot)

	var inv mat.Dense
	if err := inv.Inverse(&pr); err != nil {
		return out, fmt.Errorf("%w: singular camera matrix: %w", ErrInvalidModel, err)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i*3+j] = inv.At(i, j)
		}
	}
	return out, nil
}

// identity3 is the rectification rotation used for every model.
func identity3() mat.Matrix {
	return mat.NewDiagDense(3, []float64{1, 1, 1})
}
