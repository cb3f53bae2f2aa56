package preview

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestComposeSideBySide(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	c := NewComposer(40, 30)
	img, err := c.Compose(solid(64, 48, red), solid(64, 48, blue))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(image.Rect(0, 0, 80, 30), img.Bounds()); diff != "" {
		t.Fatalf("bounds (-want +got):\n%s", diff)
	}
	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"left top", 0, 0, red},
		{"left edge", 39, 15, red},
		{"right edge", 40, 15, blue},
		{"right bottom", 79, 29, blue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
				t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestComposeNilSideIsBlack(t *testing.T) {
	c := NewComposer(10, 10)
	img, err := c.Compose(nil, solid(5, 5, color.RGBA{G: 255, A: 255}))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(2, 2); got != (color.RGBA{A: 255}) {
		t.Errorf("left panel = %v, want opaque black", got)
	}
	if _, err := c.Compose(nil, nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Compose(nil, nil) = %v, want ErrEmpty", err)
	}
}

func TestDefaultSize(t *testing.T) {
	w, h := NewComposer(0, 0).Size()
	if w != 1600 || h != 600 {
		t.Errorf("Size() = %dx%d, want 1600x600", w, h)
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.png")
	src := solid(3, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	if err := SavePNG(path, src); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := img.At(1, 1).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("decoded pixel = (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
	if err := SavePNG(filepath.Join(t.TempDir(), "missing", "x.png"), src); err == nil {
		t.Error("SavePNG into a missing directory succeeded")
	}
}
