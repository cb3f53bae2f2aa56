package control

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/gogpu/dewarp/camera"
	"github.com/gogpu/dewarp/lut"
)

func TestNewStartsLinearAndDirty(t *testing.T) {
	c := New()
	assert.Equal(t, camera.KindLinear, c.Mode())
	assert.True(t, c.Dirty())
	assert.Empty(t, c.Params())
	assert.Equal(t, camera.Linear{}, c.Model())
}

func TestDefaults(t *testing.T) {
	tests := []struct {
		kind camera.Kind
		want camera.Model
	}{
		{camera.KindUndistort, camera.Undistort{Zoom: 1, FocalLength: 1700, Radial: [3]float64{-0.2, 0.04, 0}}},
		{camera.KindFisheye, camera.Fisheye{Zoom: 1, FocalLength: 1700}},
		{camera.KindOmnidir, camera.Omnidir{Zoom: 1, Xi: 1.2, FocalLength: 1700}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			c := NewWithMode(tt.kind)
			assert.Equal(t, tt.want, c.Model())
		})
	}
}

func TestSwitchModeDiscardsValues(t *testing.T) {
	c := NewWithMode(camera.KindUndistort)
	_, err := c.Set("radial_1", 0.5)
	require.NoError(t, err)
	_, err = c.Set(ParamZoom, 1.4)
	require.NoError(t, err)

	c.SwitchMode(camera.KindOmnidir)
	assert.True(t, c.Dirty())
	assert.Equal(t, camera.Omnidir{Zoom: 1, Xi: 1.2, FocalLength: 1700}, c.Model())

	// Coming back restores defaults, not the previous edits.
	c.SwitchMode(camera.KindUndistort)
	v, err := c.Value("radial_1")
	require.NoError(t, err)
	assert.Equal(t, -0.2, v)
}

func TestSetClampsAndTracksChanges(t *testing.T) {
	c := NewWithMode(camera.KindOmnidir)
	m, err := lut.New(8, 6)
	require.NoError(t, err)
	_, err = c.Rebuild(m)
	require.NoError(t, err)
	require.False(t, c.Dirty())

	changed, err := c.Set("p2", 1)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, c.Dirty())
	v, _ := c.Value("p2")
	assert.Equal(t, 0.05, v)

	_, err = c.Rebuild(m)
	require.NoError(t, err)

	changed, err = c.Set("omnidirectional_p2", 0.05)
	require.NoError(t, err)
	assert.False(t, changed, "same value is not a change")
	assert.False(t, c.Dirty())
}

func TestSetErrors(t *testing.T) {
	c := NewWithMode(camera.KindFisheye)
	_, err := c.Set("xi", 1)
	assert.ErrorIs(t, err, ErrUnknownParam)

	_, err = New().Set(ParamZoom, 1)
	assert.ErrorIs(t, err, ErrUnknownParam)

	_, err = c.Set("k1", math.NaN())
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestNudge(t *testing.T) {
	c := NewWithMode(camera.KindUndistort)
	v, changed, err := c.Nudge("tangential_1", 3)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.InDelta(t, 0.00003, v, 1e-12)

	v, _, err = c.Nudge(ParamFocalLength, -2000)
	require.NoError(t, err)
	assert.Equal(t, 500.0, v)
}

func TestRebuildOnlyWhenDirty(t *testing.T) {
	c := NewWithMode(camera.KindFisheye)
	m, err := lut.New(16, 12)
	require.NoError(t, err)

	rebuilt, err := c.Rebuild(m)
	require.NoError(t, err)
	assert.True(t, rebuilt)
	first := append([]byte(nil), m.Pix...)

	rebuilt, err = c.Rebuild(m)
	require.NoError(t, err)
	assert.False(t, rebuilt)

	_, err = c.Set("k1", 0.5)
	require.NoError(t, err)
	rebuilt, err = c.Rebuild(m)
	require.NoError(t, err)
	assert.True(t, rebuilt)
	assert.NotEqual(t, first, m.Pix)
	assert.Len(t, m.Pix, 16*12*lut.BytesPerPixel)

	n, last := c.Stats()
	assert.Equal(t, 2, n)
	assert.GreaterOrEqual(t, last, time.Duration(0))
}

func TestRebuildReusesRecentMaps(t *testing.T) {
	c := NewWithMode(camera.KindUndistort)
	m, err := lut.New(24, 16)
	require.NoError(t, err)

	_, err = c.Rebuild(m)
	require.NoError(t, err)
	undistorted := append([]byte(nil), m.Pix...)

	c.SwitchMode(camera.KindFisheye)
	_, err = c.Rebuild(m)
	require.NoError(t, err)
	assert.NotEqual(t, undistorted, m.Pix)

	c.SwitchMode(camera.KindUndistort)
	rebuilt, err := c.Rebuild(m)
	require.NoError(t, err)
	assert.True(t, rebuilt)
	assert.Equal(t, undistorted, m.Pix)

	entries, hits := c.CacheStats()
	assert.Equal(t, 2, entries)
	assert.Equal(t, 1, hits)

	other, err := lut.New(12, 8)
	require.NoError(t, err)
	c.MarkDirty()
	_, err = c.Rebuild(other)
	require.NoError(t, err)
	entries, hits = c.CacheStats()
	assert.Equal(t, 3, entries, "a new size is a new entry")
	assert.Equal(t, 1, hits)
}

func TestEveryParameterChangesMap(t *testing.T) {
	if testing.Short() {
		t.Skip("builds full HD maps")
	}
	const w, h = 1920, 1080
	for _, kind := range camera.Kinds {
		base, err := lut.New(w, h)
		require.NoError(t, err)
		_, err = NewWithMode(kind).Rebuild(base)
		require.NoError(t, err)

		for _, s := range Specs(kind) {
			edits := map[string]float64{"step": s.Default + s.Step, "max": s.Max}
			if s.Default == s.Max {
				edits = map[string]float64{"step": s.Default - s.Step, "min": s.Min}
			}
			for edit, value := range edits {
				t.Run(s.Label+"/"+edit, func(t *testing.T) {
					c := NewWithMode(kind)
					changed, err := c.Set(s.Name, value)
					require.NoError(t, err)
					require.True(t, changed)

					m, err := lut.New(w, h)
					require.NoError(t, err)
					_, err = c.Rebuild(m)
					require.NoError(t, err)

					n, err := lut.Diff(base, m)
					require.NoError(t, err)
					assert.Positive(t, n, "map unchanged")
					assert.Len(t, m.Pix, w*h*lut.BytesPerPixel)
				})
			}
		}
	}
}

func TestSpecsTable(t *testing.T) {
	for _, kind := range camera.Kinds {
		for _, s := range Specs(kind) {
			assert.LessOrEqual(t, s.Min, s.Default, s.Label)
			assert.GreaterOrEqual(t, s.Max, s.Default, s.Label)
			assert.Positive(t, s.Step, s.Label)
		}
	}
	s, _, ok := Lookup(camera.KindOmnidir, "p2")
	require.True(t, ok)
	assert.Equal(t, 0.0001, s.Step)
	assert.Equal(t, "omnidirectional_p2", s.Label)

	s, _, ok = Lookup(camera.KindUndistort, "tangential_2")
	require.True(t, ok)
	assert.Equal(t, 0.00001, s.Step)
	assert.Equal(t, "distort_tangential_2", s.Label)
}

func TestWriteTable(t *testing.T) {
	c := NewWithMode(camera.KindUndistort)
	var buf bytes.Buffer
	require.NoError(t, c.WriteTable(&buf, language.English))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "mode: opencv undistort\n"))
	assert.Contains(t, out, "distort_focal_length")
	assert.Contains(t, out, "1,700.000")
	assert.Equal(t, 1+len(Specs(camera.KindUndistort)), strings.Count(out, "\n"))
}
