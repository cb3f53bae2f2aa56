package camera

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const (
	testWidth  = 1920
	testHeight = 1080
)

func defaultUndistort() Undistort {
	return Undistort{Zoom: 1, FocalLength: 1700, Radial: [3]float64{-0.2, 0.04, 0}}
}

func defaultFisheye() Fisheye {
	return Fisheye{Zoom: 1, FocalLength: 1700}
}

func defaultOmnidir() Omnidir {
	return Omnidir{Zoom: 1, Xi: 1.2, FocalLength: 1700}
}

func TestLinearMap(t *testing.T) {
	mp, err := NewMapper(Linear{}, testWidth, testHeight)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}
	points := [][2]int{{0, 0}, {960, 540}, {1919, 1079}, {17, 1000}}
	for _, p := range points {
		sx, sy := mp.Map(p[0], p[1])
		wantX := float64(p[0]) / testWidth
		wantY := float64(p[1]) / testHeight
		if sx != wantX || sy != wantY {
			t.Errorf("Map(%d,%d) = (%v,%v), want (%v,%v)", p[0], p[1], sx, sy, wantX, wantY)
		}
	}
}

func TestPrincipalPointIsFixed(t *testing.T) {
	models := []Model{defaultUndistort(), defaultFisheye(), defaultOmnidir()}
	for _, m := range models {
		t.Run(m.Kind().String(), func(t *testing.T) {
			sx, sy, err := Evaluate(m, testWidth/2, testHeight/2, testWidth, testHeight)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if math.Abs(sx-0.5) > 1e-12 || math.Abs(sy-0.5) > 1e-12 {
				t.Errorf("center maps to (%v,%v), want (0.5,0.5)", sx, sy)
			}
		})
	}
}

func TestZeroDistortionIsIdentity(t *testing.T) {
	tests := []struct {
		name string
		m    Model
	}{
		{"undistort", Undistort{Zoom: 1, FocalLength: 1700}},
		// xi = 0 reduces the unified model to a pinhole.
		{"omnidir", Omnidir{Zoom: 1, Xi: 0, FocalLength: 1700}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mp, err := NewMapper(tt.m, testWidth, testHeight)
			if err != nil {
				t.Fatalf("NewMapper: %v", err)
			}
			for _, p := range [][2]int{{0, 0}, {100, 900}, {1919, 1079}} {
				sx, sy := mp.Map(p[0], p[1])
				if math.Abs(sx-float64(p[0])/testWidth) > 1e-9 || math.Abs(sy-float64(p[1])/testHeight) > 1e-9 {
					t.Errorf("Map(%d,%d) = (%v,%v), want identity", p[0], p[1], sx, sy)
				}
			}
		})
	}
}

func TestFisheyePullsTowardCenter(t *testing.T) {
	mp, err := NewMapper(defaultFisheye(), testWidth, testHeight)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}
	// atan(r) < r, so the sampled source lies closer to the center.
	sx, sy := mp.Map(1800, 1000)
	if sx >= 1800.0/testWidth || sx <= 0.5 {
		t.Errorf("sx = %v, want in (0.5, %v)", sx, 1800.0/testWidth)
	}
	if sy >= 1000.0/testHeight || sy <= 0.5 {
		t.Errorf("sy = %v, want in (0.5, %v)", sy, 1000.0/testHeight)
	}
}

func TestBarrelDistortionPullsTowardCenter(t *testing.T) {
	mp, err := NewMapper(defaultUndistort(), testWidth, testHeight)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}
	sx, _ := mp.Map(0, testHeight/2)
	if sx <= 0 {
		t.Errorf("left edge samples x = %v, want > 0 for negative k1", sx)
	}
}

func TestZoomOneIsNoOp(t *testing.T) {
	models := []Model{defaultUndistort(), defaultFisheye(), defaultOmnidir()}
	for _, m := range models {
		t.Run(m.Kind().String(), func(t *testing.T) {
			mp, err := NewMapper(m, 320, 240)
			if err != nil {
				t.Fatalf("NewMapper: %v", err)
			}
			for y := 0; y < 240; y += 17 {
				for x := 0; x < 320; x += 13 {
					mx, my := mp.Map(x, y)
					sx, sy := mp.Source(x, y)
					if sx != clamp01(mx) || sy != clamp01(my) {
						t.Fatalf("Source(%d,%d) = (%v,%v), want (%v,%v)", x, y, sx, sy, clamp01(mx), clamp01(my))
					}
				}
			}
		})
	}
}

func TestApplyZoom(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		zoom float64
		want float64
	}{
		{"center is fixed", 0.5, 3, 0.5},
		{"zoom in", 0.75, 0.5, 0.625},
		{"zoom out", 0.75, 2, 1},
		{"clamp low", -0.2, 1, 0},
		{"clamp high", 1.3, 1, 1},
		{"zoom out clamps low", 0.1, 4, 0},
		{"nan", math.NaN(), 1.5, 0},
		{"inf", math.Inf(1), 1.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyZoom(tt.v, tt.zoom)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("ApplyZoom(%v, %v) = %v, want %v", tt.v, tt.zoom, got, tt.want)
			}
		})
	}
}

func TestSourceAlwaysInUnitRange(t *testing.T) {
	models := []Model{
		Linear{},
		Undistort{Zoom: 1.5, FocalLength: 500, Radial: [3]float64{1, -0.5, 0.5}, Tangential: [2]float64{0.01, -0.01}},
		Fisheye{Zoom: 0.5, FocalLength: 500, K: [4]float64{-1, 1, -1, 1}},
		Omnidir{Zoom: 4, Xi: 0.5, FocalLength: 500, K: [2]float64{4.5, -4.5}, P: [2]float64{0.5, -0.05}},
	}
	for _, m := range models {
		t.Run(m.Kind().String(), func(t *testing.T) {
			mp, err := NewMapper(m, 64, 48)
			if err != nil {
				t.Fatalf("NewMapper: %v", err)
			}
			for y := 0; y < 48; y++ {
				for x := 0; x < 64; x++ {
					sx, sy := mp.Source(x, y)
					if !(sx >= 0 && sx <= 1 && sy >= 0 && sy <= 1) {
						t.Fatalf("Source(%d,%d) = (%v,%v) outside [0,1]", x, y, sx, sy)
					}
				}
			}
		})
	}
}

func TestUndistortPointInvertsMap(t *testing.T) {
	m := defaultUndistort()
	mp, err := NewMapper(m, testWidth, testHeight)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}
	for _, p := range [][2]int{{960, 540}, {400, 300}, {1500, 900}, {100, 540}} {
		sx, sy := mp.Map(p[0], p[1])
		x, y, ok := UndistortPoint(m, sx*testWidth, sy*testHeight, testWidth, testHeight)
		if !ok {
			t.Errorf("UndistortPoint(%d,%d) did not converge", p[0], p[1])
			continue
		}
		if math.Abs(x-float64(p[0])) > 1e-3 || math.Abs(y-float64(p[1])) > 1e-3 {
			t.Errorf("round trip of (%d,%d) = (%v,%v)", p[0], p[1], x, y)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       Model
		wantErr bool
	}{
		{"linear", Linear{}, false},
		{"undistort default", defaultUndistort(), false},
		{"nil", nil, true},
		{"zero focal", Undistort{Zoom: 1}, true},
		{"negative zoom", Fisheye{Zoom: -1, FocalLength: 1700}, true},
		{"nan coefficient", Fisheye{Zoom: 1, FocalLength: 1700, K: [4]float64{math.NaN()}}, true},
		{"inf xi", Omnidir{Zoom: 1, Xi: math.Inf(1), FocalLength: 1700}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.m)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidModel) {
				t.Errorf("error %v does not wrap ErrInvalidModel", err)
			}
		})
	}
}

func TestNewMapperRejectsResolution(t *testing.T) {
	_, err := NewMapper(Linear{}, 0, 10)
	if !errors.Is(err, ErrInvalidResolution) {
		t.Errorf("NewMapper(0x10) error = %v, want ErrInvalidResolution", err)
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"linear":           KindLinear,
		"opencv undistort": KindUndistort,
		"Fisheye":          KindFisheye,
		"omnidirectional":  KindOmnidir,
		" omnidir ":        KindOmnidir,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseKind("spherical"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(spherical) error = %v, want ErrUnknownKind", err)
	}
	for _, k := range Kinds {
		got, err := ParseKind(k.Title())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", k.Title(), got, err, k)
		}
	}
}

func TestIntrinsicsMatrix(t *testing.T) {
	in := NewIntrinsics(1700, testWidth, testHeight)
	want := []float64{1700, 0, 960, 0, 1700, 540, 0, 0, 1}
	got := in.Matrix().RawMatrix().Data
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Matrix() mismatch (-want +got):\n%s", diff)
	}

	inv, err := rectifyInverse(in.Matrix(), identity3())
	if err != nil {
		t.Fatalf("rectifyInverse: %v", err)
	}
	wantInv := [9]float64{1.0 / 1700, 0, -960.0 / 1700, 0, 1.0 / 1700, -540.0 / 1700, 0, 0, 1}
	if diff := cmp.Diff(wantInv, inv, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("inverse mismatch (-want +got):\n%s", diff)
	}
}

func TestCoefficientOrder(t *testing.T) {
	u := Undistort{Radial: [3]float64{1, 2, 3}, Tangential: [2]float64{4, 5}}
	if diff := cmp.Diff([5]float64{1, 2, 4, 5, 3}, u.Coefficients()); diff != "" {
		t.Errorf("Undistort.Coefficients mismatch (-want +got):\n%s", diff)
	}
	o := Omnidir{K: [2]float64{1, 2}, P: [2]float64{3, 4}}
	if diff := cmp.Diff([4]float64{1, 2, 3, 4}, o.Coefficients()); diff != "" {
		t.Errorf("Omnidir.Coefficients mismatch (-want +got):\n%s", diff)
	}
}
