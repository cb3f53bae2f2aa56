package control

import (
	"fmt"
	"math"

	"github.com/gogpu/dewarp/camera"
)

// ParamSpec describes one editable parameter: its default, the range the
// editor clamps to, and the drag step.
type ParamSpec struct {
	// Name identifies the parameter within its mode (e.g. "k1").
	Name string
	// Label is the editor label (e.g. "fisheye_k1").
	Label   string
	Default float64
	Min     float64
	Max     float64
	Step    float64
	// Format is the printf verb used to show the value.
	Format string
}

// Clamp limits v to the spec's range.
func (s ParamSpec) Clamp(v float64) float64 {
	return math.Max(s.Min, math.Min(s.Max, v))
}

// String describes the spec's label, range and step.
func (s ParamSpec) String() string {
	return fmt.Sprintf("%s [%g, %g] step %g", s.Label, s.Min, s.Max, s.Step)
}

// Parameter names shared by the models.
const (
	ParamZoom        = "zoom"
	ParamFocalLength = "focal_length"
	ParamXi          = "xi"
)

func spec(prefix, name string, def, lo, hi, step float64, format string) ParamSpec {
	return ParamSpec{
		Name:    name,
		Label:   prefix + "_" + name,
		Default: def,
		Min:     lo,
		Max:     hi,
		Step:    step,
		Format:  format,
	}
}

var undistortSpecs = []ParamSpec{
	spec("distort", ParamZoom, 1.0, 0.5, 1.5, 0.01, "%.3f"),
	spec("distort", ParamFocalLength, 1700, 500, 3000, 1.0, "%.3f"),
	spec("distort", "tangential_1", 0, -0.01, 0.01, 0.00001, "%.4f"),
	spec("distort", "tangential_2", 0, -0.01, 0.01, 0.00001, "%.4f"),
	spec("distort", "radial_1", -0.2, -1, 1, 0.001, "%.3f"),
	spec("distort", "radial_2", 0.04, -0.5, 0.5, 0.001, "%.3f"),
	spec("distort", "radial_3", 0, -0.5, 0.5, 0.001, "%.3f"),
}

var fisheyeSpecs = []ParamSpec{
	spec("fisheye", ParamZoom, 1.0, 0.5, 1.5, 0.01, "%.3f"),
	spec("fisheye", ParamFocalLength, 1700, 500, 3000, 1.0, "%.3f"),
	spec("fisheye", "k1", 0, -1, 1, 0.001, "%.3f"),
	spec("fisheye", "k2", 0, -1, 1, 0.001, "%.3f"),
	spec("fisheye", "k3", 0, -1, 1, 0.001, "%.3f"),
	spec("fisheye", "k4", 0, -1, 1, 0.001, "%.3f"),
}

var omnidirSpecs = []ParamSpec{
	spec("omnidirectional", ParamZoom, 1.0, 0.5, 4.0, 0.01, "%.3f"),
	spec("omnidirectional", ParamXi, 1.2, 0.5, 1.5, 0.01, "%.3f"),
	spec("omnidirectional", ParamFocalLength, 1700, 500, 3000, 1.0, "%.3f"),
	spec("omnidirectional", "k1", 0, -4.5, 4.5, 0.001, "%.3f"),
	spec("omnidirectional", "k2", 0, -4.5, 4.5, 0.001, "%.3f"),
	spec("omnidirectional", "p1", 0, -0.5, 0.5, 0.001, "%.3f"),
	spec("omnidirectional", "p2", 0, -0.05, 0.05, 0.0001, "%.4f"),
}

// Specs returns the parameter table of kind in editor order. The linear
// model has no parameters. The returned slice must not be modified.
func Specs(kind camera.Kind) []ParamSpec {
	switch kind {
	case camera.KindUndistort:
		return undistortSpecs
	case camera.KindFisheye:
		return fisheyeSpecs
	case camera.KindOmnidir:
		return omnidirSpecs
	default:
		return nil
	}
}

// Lookup finds a parameter of kind by name or label.
func Lookup(kind camera.Kind, name string) (ParamSpec, int, bool) {
	for i, s := range Specs(kind) {
		if s.Name == name || s.Label == name {
			return s, i, true
		}
	}
	return ParamSpec{}, -1, false
}

// Defaults returns the default values of kind in editor order.
func Defaults(kind camera.Kind) []float64 {
	specs := Specs(kind)
	values := make([]float64, len(specs))
	for i, s := range specs {
		values[i] = s.Default
	}
	return values
}

// buildModel converts editor values, ordered as Specs(kind), into a model.
func buildModel(kind camera.Kind, v []float64) camera.Model {
	switch kind {
	case camera.KindUndistort:
		return camera.Undistort{
			Zoom:        v[0],
			FocalLength: v[1],
			Tangential:  [2]float64{v[2], v[3]},
			Radial:      [3]float64{v[4], v[5], v[6]},
		}
	case camera.KindFisheye:
		return camera.Fisheye{
			Zoom:        v[0],
			FocalLength: v[1],
			K:           [4]float64{v[2], v[3], v[4], v[5]},
		}
	case camera.KindOmnidir:
		return camera.Omnidir{
			Zoom:        v[0],
			Xi:          v[1],
			FocalLength: v[2],
			K:           [2]float64{v[3], v[4]},
			P:           [2]float64{v[5], v[6]},
		}
	default:
		return camera.Linear{}
	}
}
