package video

import (
	"context"
	"errors"
	"io"
)

// Decoder yields decoded frames one at a time.
//
// Next returns ErrNoFrame when nothing is ready yet and ErrEndOfStream (or
// io.EOF) once the source is exhausted. Any other error is a decoding
// failure. The returned frame stays valid until the next call to Next.
type Decoder interface {
	// Size returns the frame size of the stream.
	Size() (width, height int)
	Next(ctx context.Context) (*Frame, error)
	Close() error
}

// IsEndOfStream reports whether err marks the end of a stream.
func IsEndOfStream(err error) bool {
	return errors.Is(err, ErrEndOfStream) || errors.Is(err, io.EOF)
}

// ToRGB converts one full-range YUV sample to RGB with the analog BT.601
// matrix used by the conversion shader. Results are clamped to [0, 1].
func ToRGB(y, u, v float64) (r, g, b float64) {
	u -= 0.5
	v -= 0.5
	r = y + 1.13983*v
	g = y - 0.39465*u - 0.58060*v
	b = y + 2.03211*u
	return clamp01(r), clamp01(g), clamp01(b)
}

// FromRGB is the inverse of ToRGB for in-gamut colors.
func FromRGB(r, g, b float64) (y, u, v float64) {
	y = 0.299*r + 0.587*g + 0.114*b
	u = (b-y)/2.03211 + 0.5
	v = (r-y)/1.13983 + 0.5
	return clamp01(y), clamp01(u), clamp01(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
