//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"image"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/dewarp/camera"
	"github.com/gogpu/dewarp/lut"
	"github.com/gogpu/dewarp/remap"
	"github.com/gogpu/dewarp/video"
)

func TestShaderSources(t *testing.T) {
	for _, s := range shaderSources() {
		if s.source == "" {
			t.Fatalf("%s shader source is empty", s.label)
		}
		for _, want := range append([]string{"vs_main", "fs_main", "@vertex", "@fragment"}, s.bindings...) {
			if !strings.Contains(s.source, want) {
				t.Errorf("%s shader missing %q", s.label, want)
			}
		}
	}
	if YUVShaderSource() != yuvShaderSource || RemapShaderSource() != remapShaderSource {
		t.Error("exported sources differ from embedded sources")
	}
}

func TestValidateShaders(t *testing.T) {
	if err := validateShaders(); err != nil {
		t.Fatalf("validateShaders: %v", err)
	}
}

func TestBindingCountsMatchShaders(t *testing.T) {
	layouts := map[string]int{"yuv": len(yuvLayoutEntries()), "remap": len(remapLayoutEntries())}
	for _, s := range shaderSources() {
		if got := layouts[s.label]; got != len(s.bindings) {
			t.Errorf("%s layout has %d entries, shader declares %d bindings", s.label, got, len(s.bindings))
		}
		if n := strings.Count(s.source, "@binding("); n != len(s.bindings) {
			t.Errorf("%s source has %d @binding, want %d", s.label, n, len(s.bindings))
		}
	}
}

func TestQuadData(t *testing.T) {
	vb := quadVertexBytes()
	if len(vb) != 4*quadVertexStride {
		t.Fatalf("vertex bytes = %d, want %d", len(vb), 4*quadVertexStride)
	}
	// Vertex 2 is the top right corner, sampled at (1, 0).
	v2 := vb[2*quadVertexStride:]
	got := [4]float32{}
	for i := range got {
		got[i] = math.Float32frombits(binary.LittleEndian.Uint32(v2[i*4:]))
	}
	if got != [4]float32{1, 1, 1, 0} {
		t.Errorf("vertex 2 = %v", got)
	}

	ib := quadIndexBytes()
	if len(ib)%4 != 0 || len(ib) < int(quadIndexCount)*2 {
		t.Fatalf("index bytes = %d", len(ib))
	}
	if binary.LittleEndian.Uint16(ib[6:]) != 2 {
		t.Errorf("index 3 = %d, want 2", binary.LittleEndian.Uint16(ib[6:]))
	}
}

func TestAlignedBytesPerRow(t *testing.T) {
	tests := []struct{ width, want uint32 }{
		{1, 256},
		{64, 256},
		{65, 512},
		{1920, 7680},
		{800, 3328},
	}
	for _, tt := range tests {
		if got := alignedBytesPerRow(tt.width); got != tt.want {
			t.Errorf("alignedBytesPerRow(%d) = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestStripRows(t *testing.T) {
	src := []byte{1, 2, 0, 0, 3, 4, 0, 0}
	dst := make([]byte, 6)
	stripRows(dst, 3, src, 4, 2, 2)
	want := []byte{1, 2, 0, 3, 4, 0}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst = %v, want %v", dst, want)
		}
	}
}

func TestDeviceFromProviderRejectsPlainValues(t *testing.T) {
	if _, err := deviceFromProvider(struct{}{}); !errors.Is(err, ErrProvider) {
		t.Errorf("err = %v, want ErrProvider", err)
	}
}

// TestStageMatchesSoftware runs the same frame through the GPU stage and
// the CPU stage. It is skipped on machines without an adapter.
func TestStageMatchesSoftware(t *testing.T) {
	const w, h = 64, 48
	f := &StageFactory{}
	if err := f.Init(); err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gs, err := f.NewStage(w, h)
	if err != nil {
		t.Skipf("GPU not available: %v", err)
	}
	defer gs.Close()

	cs, err := remap.NewSoftware(w, h)
	if err != nil {
		t.Fatal(err)
	}
	defer cs.Close()

	card, err := video.NewTestCard(video.TestCardOptions{Width: w, Height: h, Frames: 1})
	if err != nil {
		t.Fatal(err)
	}
	frame, err := card.Next(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	m, _ := lut.New(w, h)
	if err := m.EncodeModel(camera.Linear{}); err != nil {
		t.Fatal(err)
	}

	var out [2][2]*image.RGBA
	for i, s := range []remap.Stage{gs, cs} {
		if err := s.Process(frame); !errors.Is(err, remap.ErrNoLUT) {
			t.Fatalf("Process before UploadLUT: %v", err)
		}
		if err := s.UploadLUT(m); err != nil {
			t.Fatal(err)
		}
		if err := s.Process(frame); err != nil {
			t.Fatal(err)
		}
		out[i][0], out[i][1] = remap.NewSurface(s), remap.NewSurface(s)
		if err := s.ReadSurfaces(out[i][0], out[i][1]); err != nil {
			t.Fatal(err)
		}
	}
	for k := range 2 {
		g, c := out[0][k], out[1][k]
		bad := 0
		for i := range g.Pix {
			d := int(g.Pix[i]) - int(c.Pix[i])
			if d < -3 || d > 3 {
				bad++
			}
		}
		// Filtering precision differs between devices; tolerate a few texels.
		if bad > len(g.Pix)/100 {
			t.Errorf("surface %d: %d of %d bytes differ by more than 3", k, bad, len(g.Pix))
		}
	}
}
