// Package video describes decoded planar YUV frames and the decoder
// contract the player pulls them from.
//
// A Frame borrows its plane buffers from the decoder. It is valid until the
// next call to Decoder.Next; consumers that keep pixels must copy them.
package video

import (
	"errors"
	"fmt"
	"time"
)

// Errors reported by decoders and frame validation.
var (
	// ErrNoFrame means no frame is ready yet. The caller skips the
	// iteration and asks again later.
	ErrNoFrame = errors.New("video: no frame ready")

	// ErrEndOfStream means the source is exhausted.
	ErrEndOfStream = errors.New("video: end of stream")

	// ErrDecode wraps failures reported by the decoding backend.
	ErrDecode = errors.New("video: decode failure")

	// ErrInvalidFrame is returned by Frame.Validate.
	ErrInvalidFrame = errors.New("video: invalid frame")

	// ErrUnsupportedSource is returned for a source a decoder cannot open.
	ErrUnsupportedSource = errors.New("video: unsupported source")
)

// Frame is an 8-bit planar 4:2:0 frame (I420): a full resolution luma
// plane followed by two chroma planes at half resolution on each axis.
type Frame struct {
	Width, Height int

	Y, U, V []byte

	// YStride and UVStride are row pitches in bytes. They may exceed the
	// visible width.
	YStride  int
	UVStride int

	// Index counts frames from the start of the stream.
	Index int
	// PTS is the presentation timestamp, zero when unknown.
	PTS time.Duration
}

// ChromaSize returns the chroma plane size for a luma plane of w×h.
// Odd sizes round up so the last luma column and row keep a chroma sample.
func ChromaSize(w, h int) (cw, ch int) {
	return (w + 1) / 2, (h + 1) / 2
}

// NewFrame allocates a tightly packed w×h frame.
func NewFrame(w, h int) (*Frame, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidFrame, w, h)
	}
	cw, ch := ChromaSize(w, h)
	buf := make([]byte, w*h+2*cw*ch)
	return &Frame{
		Width:    w,
		Height:   h,
		Y:        buf[: w*h : w*h],
		U:        buf[w*h : w*h+cw*ch : w*h+cw*ch],
		V:        buf[w*h+cw*ch:],
		YStride:  w,
		UVStride: cw,
	}, nil
}

// ChromaSize returns the size of the frame's U and V planes.
func (f *Frame) ChromaSize() (int, int) { return ChromaSize(f.Width, f.Height) }

// Validate checks that strides cover the visible width and every plane
// holds its rows.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrInvalidFrame)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	cw, ch := f.ChromaSize()
	if f.YStride < f.Width {
		return fmt.Errorf("%w: luma stride %d < width %d", ErrInvalidFrame, f.YStride, f.Width)
	}
	if f.UVStride < cw {
		return fmt.Errorf("%w: chroma stride %d < chroma width %d", ErrInvalidFrame, f.UVStride, cw)
	}
	if need := planeLen(f.YStride, f.Width, f.Height); len(f.Y) < need {
		return fmt.Errorf("%w: luma plane has %d bytes, need %d", ErrInvalidFrame, len(f.Y), need)
	}
	need := planeLen(f.UVStride, cw, ch)
	if len(f.U) < need || len(f.V) < need {
		return fmt.Errorf("%w: chroma planes have %d/%d bytes, need %d", ErrInvalidFrame, len(f.U), len(f.V), need)
	}
	return nil
}

// planeLen is the minimum buffer length for rows rows of width bytes at
// the given stride. The last row needs no padding.
func planeLen(stride, width, rows int) int {
	return stride*(rows-1) + width
}

// YAt returns the luma sample at (x, y).
func (f *Frame) YAt(x, y int) byte { return f.Y[y*f.YStride+x] }

// UAt returns the U sample at chroma coordinates (x, y).
func (f *Frame) UAt(x, y int) byte { return f.U[y*f.UVStride+x] }

// VAt returns the V sample at chroma coordinates (x, y).
func (f *Frame) VAt(x, y int) byte { return f.V[y*f.UVStride+x] }

// Clone returns a deep copy with tightly packed planes.
func (f *Frame) Clone() *Frame {
	out, err := NewFrame(f.Width, f.Height)
	if err != nil {
		return nil
	}
	out.Index, out.PTS = f.Index, f.PTS
	copyPlane(out.Y, out.YStride, f.Y, f.YStride, f.Width, f.Height)
	cw, ch := f.ChromaSize()
	copyPlane(out.U, out.UVStride, f.U, f.UVStride, cw, ch)
	copyPlane(out.V, out.UVStride, f.V, f.UVStride, cw, ch)
	return out
}

func copyPlane(dst []byte, dstStride int, src []byte, srcStride, w, h int) {
	for y := 0; y < h; y++ {
		copy(dst[y*dstStride:y*dstStride+w], src[y*srcStride:y*srcStride+w])
	}
}
