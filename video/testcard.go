package video

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TestCardScheme is the URI scheme of the synthetic source.
const TestCardScheme = "testcard"

// TestCardOptions configures a TestCard.
type TestCardOptions struct {
	Width, Height int
	// Frames limits the stream length; 0 means endless.
	Frames int
	// Cell is the grid pitch in pixels. Defaults to Width/16.
	Cell int
	// FrameRate sets the PTS increment. Defaults to 30.
	FrameRate float64
}

// TestCard is a synthetic decoder producing a color bar backdrop with a
// square grid and a sweeping marker. Straight grid lines make lens
// correction easy to judge.
type TestCard struct {
	opts  TestCardOptions
	frame *Frame
	next  int
}

// NewTestCard returns a test card decoder.
func NewTestCard(opts TestCardOptions) (*TestCard, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: test card size %dx%d", ErrUnsupportedSource, opts.Width, opts.Height)
	}
	if opts.Cell <= 0 {
		opts.Cell = max(opts.Width/16, 4)
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = 30
	}
	f, err := NewFrame(opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}
	return &TestCard{opts: opts, frame: f}, nil
}

// ParseTestCard parses "testcard://WxH[?frames=N&cell=C]".
func ParseTestCard(uri string) (TestCardOptions, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return TestCardOptions{}, fmt.Errorf("%w: %w", ErrUnsupportedSource, err)
	}
	if u.Scheme != TestCardScheme {
		return TestCardOptions{}, fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
	}
	w, h, ok := strings.Cut(strings.ToLower(u.Host), "x")
	if !ok {
		return TestCardOptions{}, fmt.Errorf("%w: test card size %q", ErrUnsupportedSource, u.Host)
	}
	var opts TestCardOptions
	if opts.Width, err = strconv.Atoi(w); err != nil {
		return TestCardOptions{}, fmt.Errorf("%w: width %q", ErrUnsupportedSource, w)
	}
	if opts.Height, err = strconv.Atoi(h); err != nil {
		return TestCardOptions{}, fmt.Errorf("%w: height %q", ErrUnsupportedSource, h)
	}
	q := u.Query()
	for key, dst := range map[string]*int{"frames": &opts.Frames, "cell": &opts.Cell} {
		if s := q.Get(key); s != "" {
			if *dst, err = strconv.Atoi(s); err != nil {
				return TestCardOptions{}, fmt.Errorf("%w: %s %q", ErrUnsupportedSource, key, s)
			}
		}
	}
	return opts, nil
}

// IsTestCard reports whether source names the synthetic decoder.
func IsTestCard(source string) bool {
	return strings.HasPrefix(source, TestCardScheme+"://")
}

// Size implements Decoder.
func (t *TestCard) Size() (int, int) { return t.opts.Width, t.opts.Height }

// Next renders the next frame into the decoder's buffer.
func (t *TestCard) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.opts.Frames > 0 && t.next >= t.opts.Frames {
		return nil, ErrEndOfStream
	}
	t.render(t.next)
	t.frame.Index = t.next
	t.frame.PTS = time.Duration(float64(t.next) / t.opts.FrameRate * float64(time.Second))
	t.next++
	return t.frame, nil
}

// Close implements Decoder.
func (t *TestCard) Close() error { return nil }

var bars = [...][3]float64{
	{0.75, 0.75, 0.75},
	{0.75, 0.75, 0},
	{0, 0.75, 0.75},
	{0, 0.75, 0},
	{0.75, 0, 0.75},
	{0.75, 0, 0},
	{0, 0, 0.75},
}

// Pixel returns the RGB color of the card at (x, y) for frame n.
func (t *TestCard) Pixel(n, x, y int) (r, g, b float64) {
	w, h, cell := t.opts.Width, t.opts.Height, t.opts.Cell

	// Sweeping marker column.
	if x == (n*4)%w {
		return 1, 1, 1
	}
	if x%cell == 0 || y%cell == 0 || x == w-1 || y == h-1 {
		return 0.05, 0.05, 0.05
	}
	c := bars[x*len(bars)/w]
	return c[0], c[1], c[2]
}

func (t *TestCard) render(n int) {
	f := t.frame
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := t.Pixel(n, x, y)
			yy, _, _ := FromRGB(r, g, b)
			f.Y[y*f.YStride+x] = to8(yy)
		}
	}
	cw, ch := f.ChromaSize()
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			// Chroma is taken from the top-left luma sample of each 2×2 block.
			r, g, b := t.Pixel(n, min(2*x, f.Width-1), min(2*y, f.Height-1))
			_, u, v := FromRGB(r, g, b)
			f.U[y*f.UVStride+x] = to8(u)
			f.V[y*f.UVStride+x] = to8(v)
		}
	}
}

func to8(v float64) byte {
	return byte(clamp01(v)*255 + 0.5)
}
