// Package profile measures how a camera model moves pixels radially and
// plots the result.
//
// A profile walks from the image center toward an edge or a corner and
// records, per output pixel, the distance of its sampling point from the
// center. An identity map yields a straight line of slope one; barrel
// correction bends it above that line.
package profile

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gogpu/dewarp/camera"
)

// ErrNoSamples is returned when a profile would be empty.
var ErrNoSamples = errors.New("profile: no samples")

// Direction selects the ray a profile walks.
type Direction int

const (
	// Horizontal walks from the center to the right edge.
	Horizontal Direction = iota
	// Diagonal walks from the center to the bottom right corner.
	Diagonal
)

func (d Direction) String() string {
	if d == Diagonal {
		return "diagonal"
	}
	return "horizontal"
}

// Sample is one point of a profile, both radii in pixels.
type Sample struct {
	Radius       float64
	SourceRadius float64
}

// Series is a named profile.
type Series struct {
	Name    string
	Samples []Sample
}

// Radial samples model along dir for a width x height image using at
// most n points.
func Radial(model camera.Model, width, height, n int, dir Direction) (Series, error) {
	mp, err := camera.NewMapper(model, width, height)
	if err != nil {
		return Series{}, err
	}
	cx, cy := width/2, height/2
	steps := width - 1 - cx
	if dir == Diagonal {
		steps = min(steps, height-1-cy)
	}
	if steps <= 0 || n <= 0 {
		return Series{}, ErrNoSamples
	}
	n = min(n, steps+1)

	s := Series{Name: fmt.Sprintf("%s %s", model.Kind().Title(), dir)}
	s.Samples = make([]Sample, 0, n)
	for i := range n {
		d := 0
		if n > 1 {
			d = int(math.Round(float64(i*steps) / float64(n-1)))
		}
		x, y := cx+d, cy
		if dir == Diagonal {
			y = cy + d
		}
		sx, sy := mp.Source(x, y)
		s.Samples = append(s.Samples, Sample{
			Radius:       math.Hypot(float64(x-cx), float64(y-cy)),
			SourceRadius: math.Hypot(sx*float64(width)-float64(cx), sy*float64(height)-float64(cy)),
		})
	}
	return s, nil
}

// MaxDisplacement returns the largest |SourceRadius - Radius| of s.
func (s Series) MaxDisplacement() float64 {
	var m float64
	for _, p := range s.Samples {
		m = max(m, math.Abs(p.SourceRadius-p.Radius))
	}
	return m
}

var palette = []color.Color{
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
}

// Plot draws the series against an identity reference line.
func Plot(title string, series ...Series) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, ErrNoSamples
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Output radius (px)"
	p.Y.Label.Text = "Source radius (px)"

	var maxR float64
	for i, s := range series {
		if len(s.Samples) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoSamples, s.Name)
		}
		pts := make(plotter.XYs, len(s.Samples))
		for j, smp := range s.Samples {
			pts[j] = plotter.XY{X: smp.Radius, Y: smp.SourceRadius}
			maxR = max(maxR, smp.Radius)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}

	ref, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: maxR, Y: maxR}})
	if err != nil {
		return nil, err
	}
	ref.Color = color.Gray{Y: 0x99}
	ref.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(ref)
	p.Legend.Add("identity", ref)

	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.XOffs = 10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePNG renders the plot of series as a PNG image.
func WritePNG(w io.Writer, title string, series ...Series) error {
	p, err := Plot(title, series...)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("profile: write png: %w", err)
	}
	return nil
}
