package gstreamer

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gogpu/dewarp/video"
)

// planeLayout describes where the planes of a packed I420 buffer live.
type planeLayout struct {
	yStride, uvStride int
	uOffset, vOffset  int
	size              int
}

func roundUp(v, n int) int { return (v + n - 1) / n * n }

// i420Layout reproduces the default GStreamer I420 video info layout:
// luma rows padded to 4 bytes, chroma rows to 4 bytes of the rounded-up
// half width, and planes placed back to back.
func i420Layout(w, h int) planeLayout {
	l := planeLayout{
		yStride:  roundUp(w, 4),
		uvStride: roundUp(roundUp(w, 2)/2, 4),
	}
	l.uOffset = l.yStride * roundUp(h, 2)
	l.vOffset = l.uOffset + l.uvStride*(roundUp(h, 2)/2)
	l.size = l.vOffset + l.uvStride*(roundUp(h, 2)/2)
	return l
}

// frame wraps data as a video.Frame without copying.
func (l planeLayout) frame(data []byte, w, h int) (*video.Frame, error) {
	if len(data) < l.size {
		return nil, fmt.Errorf("%w: buffer has %d bytes, I420 %dx%d needs %d",
			video.ErrDecode, len(data), w, h, l.size)
	}
	return &video.Frame{
		Width:    w,
		Height:   h,
		Y:        data[:l.uOffset],
		U:        data[l.uOffset:l.vOffset],
		V:        data[l.vOffset:l.size],
		YStride:  l.yStride,
		UVStride: l.uvStride,
	}, nil
}

// SourceURI turns a file path into a file:// URI and passes URIs through.
func SourceURI(source string) (string, error) {
	if source == "" {
		return "", fmt.Errorf("%w: empty source", video.ErrUnsupportedSource)
	}
	if u, err := url.Parse(source); err == nil && len(u.Scheme) > 1 && strings.Contains(source, "://") {
		return source, nil
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", fmt.Errorf("%w: %w", video.ErrUnsupportedSource, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

func isRTSP(uri string) bool {
	lower := strings.ToLower(uri)
	return strings.HasPrefix(lower, "rtsp://") || strings.HasPrefix(lower, "rtsps://") ||
		strings.HasPrefix(lower, "rtspt://")
}
