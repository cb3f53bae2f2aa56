package source

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/gogpu/dewarp/video"
)

func TestOpenTestCard(t *testing.T) {
	dec, err := Open(t.Context(), "testcard://64x32?frames=2", slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	if w, h := dec.Size(); w != 64 || h != 32 {
		t.Errorf("Size() = %dx%d", w, h)
	}
	for range 2 {
		if _, err := dec.Next(t.Context()); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := dec.Next(t.Context()); !video.IsEndOfStream(err) {
		t.Errorf("third frame: %v, want end of stream", err)
	}
}

func TestOpenBadTestCard(t *testing.T) {
	if _, err := Open(t.Context(), "testcard://wide", slog.Default()); !errors.Is(err, video.ErrUnsupportedSource) {
		t.Errorf("err = %v, want ErrUnsupportedSource", err)
	}
}
