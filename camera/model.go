package camera

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Errors returned by model validation.
var (
	// ErrInvalidModel is returned when a model carries non-finite or
	// physically meaningless parameters.
	ErrInvalidModel = errors.New("camera: invalid model")

	// ErrInvalidResolution is returned when width or height is not positive.
	ErrInvalidResolution = errors.New("camera: invalid resolution")

	// ErrUnknownKind is returned by ParseKind for an unrecognized name.
	ErrUnknownKind = errors.New("camera: unknown model kind")
)

// Kind identifies the active variant of a Model.
type Kind int

const (
	// KindLinear is the identity mapping.
	KindLinear Kind = iota
	// KindUndistort is the pinhole model with radial and tangential distortion.
	KindUndistort
	// KindFisheye is the equidistant fisheye model.
	KindFisheye
	// KindOmnidir is the unified (catadioptric) omnidirectional model.
	KindOmnidir
)

// Kinds lists every model kind in selector order.
var Kinds = []Kind{KindLinear, KindUndistort, KindFisheye, KindOmnidir}

// String returns the short machine name of the kind.
func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindUndistort:
		return "undistort"
	case KindFisheye:
		return "fisheye"
	case KindOmnidir:
		return "omnidir"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Title returns the name shown in the mode selector.
func (k Kind) Title() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindUndistort:
		return "opencv undistort"
	case KindFisheye:
		return "opencv fisheye"
	case KindOmnidir:
		return "opencv omnidir"
	default:
		return k.String()
	}
}

// ParseKind converts a short name or a selector title into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return KindLinear, nil
	case "undistort", "opencv undistort", "pinhole":
		return KindUndistort, nil
	case "fisheye", "opencv fisheye":
		return KindFisheye, nil
	case "omnidir", "omnidirectional", "opencv omnidir":
		return KindOmnidir, nil
	}
	return KindLinear, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Model is a camera model. Exactly one of Linear, Undistort, Fisheye or
// Omnidir is active; the set is closed.
type Model interface {
	Kind() Kind
	model()
}

// Linear maps every output pixel to the same source pixel.
type Linear struct{}

// Undistort is a pinhole camera with Brown-Conrady distortion.
type Undistort struct {
	Zoom        float64
	FocalLength float64
	// Radial holds k1, k2, k3.
	Radial [3]float64
	// Tangential holds p1, p2.
	Tangential [2]float64
}

// Fisheye is an equidistant fisheye camera.
type Fisheye struct {
	Zoom        float64
	FocalLength float64
	// K holds the polynomial coefficients k1..k4 of the angle distortion.
	K [4]float64
}

// Omnidir is a unified projection camera on the unit sphere.
type Omnidir struct {
	Zoom        float64
	Xi          float64
	FocalLength float64
	// K holds the radial coefficients k1, k2.
	K [2]float64
	// P holds the tangential coefficients p1, p2.
	P [2]float64
}

func (Linear) Kind() Kind    { return KindLinear }
func (Undistort) Kind() Kind { return KindUndistort }
func (Fisheye) Kind() Kind   { return KindFisheye }
func (Omnidir) Kind() Kind   { return KindOmnidir }

func (Linear) model()    {}
func (Undistort) model() {}
func (Fisheye) model()   {}
func (Omnidir) model()   {}

// Coefficients returns the distortion vector in the order used by
// rectification routines: [k1, k2, p1, p2, k3].
func (u Undistort) Coefficients() [5]float64 {
	return [5]float64{u.Radial[0], u.Radial[1], u.Tangential[0], u.Tangential[1], u.Radial[2]}
}

// Coefficients returns [k1, k2, p1, p2].
func (o Omnidir) Coefficients() [4]float64 {
	return [4]float64{o.K[0], o.K[1], o.P[0], o.P[1]}
}

// ZoomOf returns the zoom factor of m. The linear model has no zoom and
// reports 1.
func ZoomOf(m Model) float64 {
	switch v := m.(type) {
	case Undistort:
		return v.Zoom
	case Fisheye:
		return v.Zoom
	case Omnidir:
		return v.Zoom
	default:
		return 1
	}
}

// Validate reports whether m can be evaluated.
func Validate(m Model) error {
	switch v := m.(type) {
	case nil:
		return fmt.Errorf("%w: nil model", ErrInvalidModel)
	case Linear:
		return nil
	case Undistort:
		return checkValues(v.Kind(), v.Zoom, v.FocalLength, append(v.Radial[:], v.Tangential[:]...))
	case Fisheye:
		return checkValues(v.Kind(), v.Zoom, v.FocalLength, v.K[:])
	case Omnidir:
		if !finite(v.Xi) {
			return fmt.Errorf("%w: %s xi is not finite", ErrInvalidModel, v.Kind())
		}
		return checkValues(v.Kind(), v.Zoom, v.FocalLength, append(v.K[:], v.P[:]...))
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidModel, m)
	}
}

func checkValues(k Kind, zoom, focal float64, coeffs []float64) error {
	if !finite(zoom) || zoom <= 0 {
		return fmt.Errorf("%w: %s zoom %v", ErrInvalidModel, k, zoom)
	}
	if !finite(focal) || focal <= 0 {
		return fmt.Errorf("%w: %s focal length %v", ErrInvalidModel, k, focal)
	}
	for i, c := range coeffs {
		if !finite(c) {
			return fmt.Errorf("%w: %s coefficient %d is not finite", ErrInvalidModel, k, i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
