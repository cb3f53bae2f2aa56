package gstreamer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/dewarp/video"
)

func TestI420Layout(t *testing.T) {
	tests := []struct {
		w, h                    int
		yStride, uvStride, size int
		uOffset, vOffset        int
	}{
		// Aligned sizes pack tightly.
		{w: 8, h: 4, yStride: 8, uvStride: 4, uOffset: 32, vOffset: 40, size: 48},
		{w: 1920, h: 1080, yStride: 1920, uvStride: 960, uOffset: 2073600, vOffset: 2592000, size: 3110400},
		// Odd sizes pad rows and round the plane heights up.
		{w: 5, h: 3, yStride: 8, uvStride: 4, uOffset: 32, vOffset: 40, size: 48},
		{w: 642, h: 480, yStride: 644, uvStride: 324, uOffset: 309120, vOffset: 386880, size: 464640},
	}
	for _, tt := range tests {
		l := i420Layout(tt.w, tt.h)
		assert.Equal(t, tt.yStride, l.yStride, "%dx%d y stride", tt.w, tt.h)
		assert.Equal(t, tt.uvStride, l.uvStride, "%dx%d uv stride", tt.w, tt.h)
		assert.Equal(t, tt.uOffset, l.uOffset, "%dx%d u offset", tt.w, tt.h)
		assert.Equal(t, tt.vOffset, l.vOffset, "%dx%d v offset", tt.w, tt.h)
		assert.Equal(t, tt.size, l.size, "%dx%d size", tt.w, tt.h)
	}
}

func TestLayoutFrame(t *testing.T) {
	l := i420Layout(5, 3)
	data := make([]byte, l.size)
	data[l.uOffset] = 7
	data[l.vOffset+l.uvStride] = 9

	f, err := l.frame(data, 5, 3)
	require.NoError(t, err)
	require.NoError(t, f.Validate())
	assert.Equal(t, byte(7), f.UAt(0, 0))
	assert.Equal(t, byte(9), f.VAt(0, 1))

	_, err = l.frame(data[:20], 5, 3)
	assert.ErrorIs(t, err, video.ErrDecode)
}

func TestSourceURI(t *testing.T) {
	for _, uri := range []string{
		"rtsp://camera.local:554/stream1",
		"file:///data/clip.mp4",
		"https://example.com/a.mp4",
	} {
		got, err := SourceURI(uri)
		require.NoError(t, err)
		assert.Equal(t, uri, got)
	}

	got, err := SourceURI("clip.mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "file:///"), got)
	assert.True(t, strings.HasSuffix(got, "/clip.mp4"), got)

	_, err = SourceURI("")
	assert.ErrorIs(t, err, video.ErrUnsupportedSource)
}

func TestIsRTSP(t *testing.T) {
	assert.True(t, isRTSP("rtsp://host/s"))
	assert.True(t, isRTSP("RTSPS://host/s"))
	assert.False(t, isRTSP("file:///rtsp.mp4"))
}

func TestConfigDefaults(t *testing.T) {
	c := Config{QueueDepth: 9}.withDefaults()
	assert.Equal(t, ProtocolTCP, c.RTSPProtocols)
	assert.Equal(t, 5*time.Second, c.RTSPTimeout)
	assert.Equal(t, 9, c.QueueDepth)
	assert.NotNil(t, c.Logger)
}

func TestOpenMissingFile(t *testing.T) {
	if !Available() {
		t.Skip("gstreamer elements not installed")
	}
	cfg := DefaultConfig()
	cfg.OpenTimeout = 3 * time.Second
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), cfg)
	assert.ErrorIs(t, err, ErrPipeline)
}

// TestDecodeSample decodes the clip named by DEWARP_TEST_VIDEO when set.
func TestDecodeSample(t *testing.T) {
	path := os.Getenv("DEWARP_TEST_VIDEO")
	if path == "" {
		t.Skip("DEWARP_TEST_VIDEO not set")
	}
	if !Available() {
		t.Skip("gstreamer elements not installed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d, err := Open(ctx, path, DefaultConfig())
	require.NoError(t, err)
	defer d.Close()

	w, h := d.Size()
	require.Positive(t, w)
	require.Positive(t, h)

	frames := 0
	for frames < 5 {
		f, err := d.Next(ctx)
		if errors.Is(err, video.ErrNoFrame) {
			continue
		}
		if video.IsEndOfStream(err) {
			break
		}
		require.NoError(t, err)
		require.NoError(t, f.Validate())
		assert.Equal(t, frames, f.Index)
		frames++
	}
	assert.Positive(t, frames)
}
