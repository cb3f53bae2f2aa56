// Package remap defines the two-pass remap stage and provides a CPU
// implementation of it.
//
// A stage owns two frame surfaces at video resolution. Process runs the
// color conversion pass (planar YUV into surface A) and the remap pass
// (surface A sampled through the coordinate map into surface B).
// ReadSurfaces copies both surfaces out for presentation.
package remap

import (
	"errors"
	"image"

	"github.com/gogpu/dewarp/lut"
	"github.com/gogpu/dewarp/video"
)

// Errors returned by stages.
var (
	ErrSizeMismatch = errors.New("remap: size mismatch")
	ErrNoLUT        = errors.New("remap: coordinate map not uploaded")
	ErrNotProcessed = errors.New("remap: no frame processed")
	ErrClosed       = errors.New("remap: stage closed")
)

// Stage converts decoded frames and remaps them through a coordinate map.
//
// Stages are used from a single goroutine. The coordinate map is retained
// across frames until the next UploadLUT.
type Stage interface {
	// Size returns the surface size, which equals the video size.
	Size() (width, height int)

	// UploadLUT replaces the coordinate map. The map must match Size.
	UploadLUT(m *lut.CoordinateMap) error

	// Process runs both passes for f.
	Process(f *video.Frame) error

	// ReadSurfaces copies surface A (converted) and surface B (dewarped)
	// into the given images. Either may be nil.
	ReadSurfaces(converted, dewarped *image.RGBA) error

	// Close releases the stage's resources.
	Close() error
}

// NewSurface allocates an image matching a stage's surfaces.
func NewSurface(s Stage) *image.RGBA {
	w, h := s.Size()
	return image.NewRGBA(image.Rect(0, 0, w, h))
}
