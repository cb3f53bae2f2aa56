// Package source opens a video source by name: testcard:// URIs select
// the synthetic decoder, everything else goes through GStreamer.
package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gogpu/dewarp/video"
	"github.com/gogpu/dewarp/video/gstreamer"
)

// Open returns a decoder for name.
func Open(ctx context.Context, name string, log *slog.Logger) (video.Decoder, error) {
	if video.IsTestCard(name) {
		opts, err := video.ParseTestCard(name)
		if err != nil {
			return nil, err
		}
		return video.NewTestCard(opts)
	}
	if !gstreamer.Available() {
		return nil, fmt.Errorf("%w: GStreamer elements missing for %q", video.ErrUnsupportedSource, name)
	}
	cfg := gstreamer.DefaultConfig()
	cfg.Logger = log
	dec, err := gstreamer.Open(ctx, name, cfg)
	if err != nil {
		return nil, err
	}
	return dec, nil
}
