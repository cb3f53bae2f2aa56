// Package preview composes the converted and dewarped surfaces side by
// side and writes snapshots.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// Default panel size. Two panels make the 1600x600 player window.
const (
	PanelWidth  = 800
	PanelHeight = 600
)

// ErrEmpty is returned when there is nothing to compose.
var ErrEmpty = errors.New("preview: no surfaces")

// Composer scales two surfaces into adjacent panels of a reusable canvas.
type Composer struct {
	panel  image.Point
	scaler draw.Scaler
	canvas *image.RGBA
}

// NewComposer returns a composer with panelW by panelH panels. Zero values
// select the defaults.
func NewComposer(panelW, panelH int) *Composer {
	if panelW <= 0 {
		panelW = PanelWidth
	}
	if panelH <= 0 {
		panelH = PanelHeight
	}
	return &Composer{
		panel:  image.Pt(panelW, panelH),
		scaler: draw.ApproxBiLinear,
		canvas: image.NewRGBA(image.Rect(0, 0, 2*panelW, panelH)),
	}
}

// Size returns the canvas size.
func (c *Composer) Size() (int, int) { return 2 * c.panel.X, c.panel.Y }

// Compose draws left into the left panel and right into the right panel.
// A nil side is left black. The returned image is reused by the next call.
func (c *Composer) Compose(left, right image.Image) (*image.RGBA, error) {
	if left == nil && right == nil {
		return nil, ErrEmpty
	}
	draw.Draw(c.canvas, c.canvas.Bounds(), image.Black, image.Point{}, draw.Src)
	for i, src := range []image.Image{left, right} {
		if src == nil {
			continue
		}
		dst := image.Rect(i*c.panel.X, 0, (i+1)*c.panel.X, c.panel.Y)
		c.scaler.Scale(c.canvas, dst, src, src.Bounds(), draw.Src, nil)
	}
	return c.canvas, nil
}

// Compose is a one-shot side by side composition with default panels.
func Compose(left, right image.Image) (*image.RGBA, error) {
	return NewComposer(0, 0).Compose(left, right)
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("preview: %w", cerr)
		}
	}()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("preview: encode %s: %w", path, err)
	}
	return nil
}
